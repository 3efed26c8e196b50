package repository

import (
	"context"
	"time"

	"library-backend/internal/domains/member/model"
)

// RepositoryInterface defines the contract for member data access.
// Members come back in insertion order with BookDetail never nil.
type RepositoryInterface interface {
	Count(ctx context.Context) (int64, error)

	// InsertMany inserts members together with their borrowed lists,
	// skipping codes that already exist. Returns the number inserted.
	InsertMany(ctx context.Context, members []model.Member) (int, error)

	List(ctx context.Context) ([]model.Member, error)

	// GetByCode returns ErrMemberNotFound when the code is unknown
	GetByCode(ctx context.Context, code string) (*model.Member, error)

	// ClearExpiredPenalties lifts every penalty set strictly before cutoff.
	// Returns the number of members updated.
	ClearExpiredPenalties(ctx context.Context, cutoff time.Time) (int64, error)
}
