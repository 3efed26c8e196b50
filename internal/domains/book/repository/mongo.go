package repository

import (
	"context"
	"errors"
	"fmt"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/infrastructure/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const duplicateKeyCode = 11000

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository stores books in the "books" collection of db.
func NewMongoRepository(db *mongo.Database) RepositoryInterface {
	return &mongoRepository{coll: db.Collection(mongodb.BooksCollection)}
}

func (r *mongoRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

// InsertMany inserts unordered so one duplicate does not stop the rest.
func (r *mongoRepository) InsertMany(ctx context.Context, books []model.Book) (int, error) {
	if len(books) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(books))
	for _, b := range books {
		if b.Stock < 0 {
			return 0, fmt.Errorf("%w: code=%s", model.ErrNegativeStock, b.Code)
		}
		if b.Version == 0 {
			b.Version = 1
		}
		docs = append(docs, b)
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(docs), nil
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && onlyDuplicates(bwe) {
		return len(docs) - len(bwe.WriteErrors), nil
	}
	return 0, fmt.Errorf("failed to insert books: %w", err)
}

func (r *mongoRepository) List(ctx context.Context) ([]model.Book, error) {
	return r.find(ctx, bson.D{})
}

func (r *mongoRepository) ListAvailable(ctx context.Context) ([]model.Book, error) {
	return r.find(ctx, bson.D{{Key: "stock", Value: bson.D{{Key: "$gt", Value: 0}}}})
}

func (r *mongoRepository) GetByCode(ctx context.Context, code string) (*model.Book, error) {
	var book model.Book
	err := r.coll.FindOne(ctx, bson.D{{Key: "code", Value: code}}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.NewBookNotFoundError(code)
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

func (r *mongoRepository) find(ctx context.Context, filter bson.D) ([]model.Book, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer cursor.Close(ctx)

	books := make([]model.Book, 0)
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}
	return books, nil
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
