package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-backend/internal/domains/member/model"
	"library-backend/internal/infrastructure/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const duplicateKeyCode = 11000

// mongoRepository stores members with the borrowed list embedded as bookDetail.
type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) RepositoryInterface {
	return &mongoRepository{coll: db.Collection(mongodb.MembersCollection)}
}

func (r *mongoRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

func (r *mongoRepository) InsertMany(ctx context.Context, members []model.Member) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(members))
	for _, m := range members {
		m.Normalize()
		if m.Version == 0 {
			m.Version = 1
		}
		docs = append(docs, m)
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(docs), nil
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && onlyDuplicates(bwe) {
		return len(docs) - len(bwe.WriteErrors), nil
	}
	return 0, fmt.Errorf("failed to insert members: %w", err)
}

func (r *mongoRepository) List(ctx context.Context) ([]model.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer cursor.Close(ctx)

	members := make([]model.Member, 0)
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	for i := range members {
		members[i].Normalize()
	}
	return members, nil
}

func (r *mongoRepository) GetByCode(ctx context.Context, code string) (*model.Member, error) {
	var member model.Member
	err := r.coll.FindOne(ctx, bson.D{{Key: "code", Value: code}}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.NewMemberNotFoundError(code)
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	member.Normalize()
	return &member, nil
}

func (r *mongoRepository) ClearExpiredPenalties(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.D{
		{Key: "isPenalized", Value: true},
		{Key: "penalizedAt", Value: bson.D{{Key: "$lt", Value: cutoff}}},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "isPenalized", Value: false},
			{Key: "penalizedAt", Value: nil},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
	}

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired penalties: %w", err)
	}
	return res.ModifiedCount, nil
}

func onlyDuplicates(bwe mongo.BulkWriteException) bool {
	if bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}
