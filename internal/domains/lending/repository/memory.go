package repository

import (
	"context"
	"fmt"

	bookModel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/lending/model"
	memberModel "library-backend/internal/domains/member/model"
	"library-backend/internal/infrastructure/memstore"
)

type memoryRepository struct {
	store *memstore.Store
}

// NewMemoryRepository mutates records of store under its write lock.
func NewMemoryRepository(store *memstore.Store) RepositoryInterface {
	return &memoryRepository{store: store}
}

func (r *memoryRepository) Mutate(ctx context.Context, memberCode, bookCode string, fn MutateFunc) (*memberModel.Member, *bookModel.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	r.store.Mu.Lock()
	defer r.store.Mu.Unlock()

	storedMember := r.store.Members[memberCode]
	storedBook := r.store.Books[bookCode]

	// fn works on copies so a failed mutation leaves the store untouched
	member := storedMember.Clone()
	book := storedBook.Clone()

	if err := fn(member, book); err != nil {
		return nil, nil, err
	}

	if book != nil {
		if book.Stock < 0 {
			return nil, nil, fmt.Errorf("%w: code=%s", bookModel.ErrNegativeStock, book.Code)
		}
		if book.Version != storedBook.Version {
			return nil, nil, model.ErrConcurrentUpdate
		}
	}
	if member != nil && member.Version != storedMember.Version {
		return nil, nil, model.ErrConcurrentUpdate
	}

	if book != nil {
		book.Version++
		r.store.Books[bookCode] = book.Clone()
	}
	if member != nil {
		member.Normalize()
		member.Version++
		r.store.Members[memberCode] = member.Clone()
	}

	return member, book, nil
}
