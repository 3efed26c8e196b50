package repository

import (
	"context"
	"errors"
	"fmt"

	bookModel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/lending/model"
	memberModel "library-backend/internal/domains/member/model"
	"library-backend/internal/infrastructure/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoRepository runs each mutation in a multi-document transaction.
// Updates filter on {code, version} so a stale read never overwrites.
type mongoRepository struct {
	client  *mongo.Client
	books   *mongo.Collection
	members *mongo.Collection
}

// NewMongoRepository needs a replica set or sharded cluster for transactions.
func NewMongoRepository(db *mongo.Database) RepositoryInterface {
	return &mongoRepository{
		client:  db.Client(),
		books:   db.Collection(mongodb.BooksCollection),
		members: db.Collection(mongodb.MembersCollection),
	}
}

func (r *mongoRepository) Mutate(ctx context.Context, memberCode, bookCode string, fn MutateFunc) (*memberModel.Member, *bookModel.Book, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var outMember *memberModel.Member
	var outBook *bookModel.Book

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		member, err := r.findMember(sc, memberCode)
		if err != nil {
			return nil, err
		}
		book, err := r.findBook(sc, bookCode)
		if err != nil {
			return nil, err
		}

		if err := fn(member, book); err != nil {
			return nil, err
		}

		if book != nil {
			if book.Stock < 0 {
				return nil, fmt.Errorf("%w: code=%s", bookModel.ErrNegativeStock, book.Code)
			}
			update := bson.D{
				{Key: "$set", Value: bson.D{{Key: "stock", Value: book.Stock}}},
				{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
			}
			if err := r.versionedUpdate(sc, r.books, book.Code, book.Version, update); err != nil {
				return nil, err
			}
			book.Version++
		}

		if member != nil {
			member.Normalize()
			update := bson.D{
				{Key: "$set", Value: bson.D{
					{Key: "bookDetail", Value: member.BookDetail},
					{Key: "isPenalized", Value: member.IsPenalized},
					{Key: "penalizedAt", Value: member.PenalizedAt},
				}},
				{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
			}
			if err := r.versionedUpdate(sc, r.members, member.Code, member.Version, update); err != nil {
				return nil, err
			}
			member.Version++
		}

		outMember, outBook = member, book
		return nil, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return outMember, outBook, nil
}

func (r *mongoRepository) findMember(ctx context.Context, code string) (*memberModel.Member, error) {
	var member memberModel.Member
	err := r.members.FindOne(ctx, bson.D{{Key: "code", Value: code}}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	member.Normalize()
	return &member, nil
}

func (r *mongoRepository) findBook(ctx context.Context, code string) (*bookModel.Book, error) {
	var book bookModel.Book
	err := r.books.FindOne(ctx, bson.D{{Key: "code", Value: code}}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

func (r *mongoRepository) versionedUpdate(ctx context.Context, coll *mongo.Collection, code string, version int64, update bson.D) error {
	filter := bson.D{
		{Key: "code", Value: code},
		{Key: "version", Value: version},
	}

	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return model.ErrConcurrentUpdate
	}
	return nil
}
