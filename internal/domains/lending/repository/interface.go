package repository

import (
	"context"

	bookModel "library-backend/internal/domains/book/model"
	memberModel "library-backend/internal/domains/member/model"
)

// MutateFunc changes a member and a book in place.
// A nil argument means no record exists for that code.
// Returning an error discards every change.
type MutateFunc func(member *memberModel.Member, book *bookModel.Book) error

// RepositoryInterface applies lending changes to a member and a book as one unit.
type RepositoryInterface interface {
	// Mutate loads both records, runs fn and persists the result only if
	// neither record changed in between. Returns the stored state on success.
	// Returns ErrConcurrentUpdate when a version check fails.
	Mutate(ctx context.Context, memberCode, bookCode string, fn MutateFunc) (*memberModel.Member, *bookModel.Book, error)
}
