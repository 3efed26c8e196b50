package repository

import (
	"context"
	"time"

	"library-backend/internal/domains/member/model"
	"library-backend/internal/infrastructure/memstore"
)

type memoryRepository struct {
	store *memstore.Store
}

func NewMemoryRepository(store *memstore.Store) RepositoryInterface {
	return &memoryRepository{store: store}
}

func (r *memoryRepository) Count(ctx context.Context) (int64, error) {
	r.store.Mu.RLock()
	defer r.store.Mu.RUnlock()
	return int64(len(r.store.Members)), nil
}

func (r *memoryRepository) InsertMany(ctx context.Context, members []model.Member) (int, error) {
	r.store.Mu.Lock()
	defer r.store.Mu.Unlock()

	inserted := 0
	for i := range members {
		m := members[i].Clone()
		m.Normalize()
		if m.Version == 0 {
			m.Version = 1
		}
		if r.store.PutMember(m) {
			inserted++
		}
	}
	return inserted, nil
}

func (r *memoryRepository) List(ctx context.Context) ([]model.Member, error) {
	r.store.Mu.RLock()
	defer r.store.Mu.RUnlock()

	out := make([]model.Member, 0, len(r.store.MemberOrder))
	for _, code := range r.store.MemberOrder {
		out = append(out, *r.store.Members[code].Clone())
	}
	return out, nil
}

func (r *memoryRepository) GetByCode(ctx context.Context, code string) (*model.Member, error) {
	r.store.Mu.RLock()
	defer r.store.Mu.RUnlock()

	m, ok := r.store.Members[code]
	if !ok {
		return nil, model.NewMemberNotFoundError(code)
	}
	return m.Clone(), nil
}

func (r *memoryRepository) ClearExpiredPenalties(ctx context.Context, cutoff time.Time) (int64, error) {
	r.store.Mu.Lock()
	defer r.store.Mu.Unlock()

	var cleared int64
	for _, m := range r.store.Members {
		if m.IsPenalized && m.PenalizedAt != nil && m.PenalizedAt.Before(cutoff) {
			m.ClearPenalty()
			m.Version++
			cleared++
		}
	}
	return cleared, nil
}
