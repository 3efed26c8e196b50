package repository

import (
	"context"
	"fmt"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/infrastructure/memstore"
)

type memoryRepository struct {
	store *memstore.Store
}

// NewMemoryRepository keeps books in store. Returned values are copies.
func NewMemoryRepository(store *memstore.Store) RepositoryInterface {
	return &memoryRepository{store: store}
}

func (r *memoryRepository) Count(ctx context.Context) (int64, error) {
	r.store.Mu.RLock()
	defer r.store.Mu.RUnlock()
	return int64(len(r.store.Books)), nil
}

func (r *memoryRepository) InsertMany(ctx context.Context, books []model.Book) (int, error) {
	for _, b := range books {
		if b.Stock < 0 {
			return 0, fmt.Errorf("%w: code=%s", model.ErrNegativeStock, b.Code)
		}
	}

	r.store.Mu.Lock()
	defer r.store.Mu.Unlock()

	inserted := 0
	for i := range books {
		b := books[i]
		if b.Version == 0 {
			b.Version = 1
		}
		if r.store.PutBook(&b) {
			inserted++
		}
	}
	return inserted, nil
}

func (r *memoryRepository) List(ctx context.Context) ([]model.Book, error) {
	return r.collect(func(*model.Book) bool { return true }), nil
}

func (r *memoryRepository) ListAvailable(ctx context.Context) ([]model.Book, error) {
	return r.collect((*model.Book).IsAvailable), nil
}

func (r *memoryRepository) GetByCode(ctx context.Context, code string) (*model.Book, error) {
	r.store.Mu.RLock()
	defer r.store.Mu.RUnlock()

	b, ok := r.store.Books[code]
	if !ok {
		return nil, model.NewBookNotFoundError(code)
	}
	return b.Clone(), nil
}

func (r *memoryRepository) collect(keep func(*model.Book) bool) []model.Book {
	r.store.Mu.RLock()
	defer r.store.Mu.RUnlock()

	out := make([]model.Book, 0, len(r.store.BookOrder))
	for _, code := range r.store.BookOrder {
		b := r.store.Books[code]
		if keep(b) {
			out = append(out, *b.Clone())
		}
	}
	return out
}
