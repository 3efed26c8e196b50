package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	BooksCollection   = "books"
	MembersCollection = "members"
)

// MongoDB owns the client and the selected database.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database

	uri            string
	dbName         string
	connectTimeout time.Duration
}

func NewMongoDB(uri, dbName string, connectTimeout time.Duration) *MongoDB {
	return &MongoDB{
		uri:            uri,
		dbName:         dbName,
		connectTimeout: connectTimeout,
	}
}

// Connect opens the client and verifies the primary is reachable.
func (m *MongoDB) Connect(ctx context.Context) error {
	log.Info().Str("database", m.dbName).Msg("[MONGO] Connecting")

	connectCtx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(m.uri).
		SetConnectTimeout(m.connectTimeout))
	if err != nil {
		return fmt.Errorf("mongo connect failed: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("mongo ping failed: %w", err)
	}

	m.Client = client
	m.Database = client.Database(m.dbName)

	log.Info().Msg("[MONGO] Connected")
	return nil
}

// EnsureIndexes makes `code` unique in both collections.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	if m.Database == nil {
		return fmt.Errorf("mongo database is not initialized")
	}

	for _, name := range []string{BooksCollection, MembersCollection} {
		_, err := m.Database.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create index on %s.code: %w", name, err)
		}
	}

	return nil
}

func (m *MongoDB) HealthCheck(ctx context.Context) error {
	if m.Client == nil {
		return fmt.Errorf("mongo client is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	if m.Client == nil {
		return nil
	}
	err := m.Client.Disconnect(ctx)
	m.Client = nil
	m.Database = nil
	return err
}
