package repository

import (
	"context"

	"library-backend/internal/domains/book/model"
)

// RepositoryInterface defines the contract for book data access.
// Every adapter returns books in insertion order.
type RepositoryInterface interface {
	// Count returns the number of books in the catalog
	Count(ctx context.Context) (int64, error)

	// InsertMany inserts the books, skipping codes that already exist.
	// Returns how many rows were actually inserted.
	InsertMany(ctx context.Context, books []model.Book) (int, error)

	// List returns every book
	List(ctx context.Context) ([]model.Book, error)

	// ListAvailable returns the books with stock > 0
	ListAvailable(ctx context.Context) ([]model.Book, error)

	// GetByCode returns ErrBookNotFound when the code is unknown
	GetByCode(ctx context.Context, code string) (*model.Book, error)
}
