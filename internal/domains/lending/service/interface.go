package service

import (
	"context"

	bookModel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/lending/model"
	memberModel "library-backend/internal/domains/member/model"

	"github.com/hibiken/asynq"
)

// ServiceInterface defines lending business operations
type ServiceInterface interface {
	// EnsureCatalog seeds empty collections when auto-seeding is on.
	// Otherwise it returns ErrUninitializedStore if a collection is empty.
	EnsureCatalog(ctx context.Context) error

	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error)
	Return(ctx context.Context, req model.ReturnRequest) (*model.ReturnResult, error)

	// ListAvailableBooks returns books with stock > 0, cached when a cache is configured
	ListAvailableBooks(ctx context.Context) ([]bookModel.Book, error)
	ListMembers(ctx context.Context) ([]memberModel.Member, error)

	// SweepExpiredPenalties clears penalties that have run out and returns how many
	SweepExpiredPenalties(ctx context.Context) (int64, error)
}

// CatalogSeeder fills empty collections with the default dataset.
type CatalogSeeder interface {
	EnsureSeeded(ctx context.Context) error
	IsInitialized(ctx context.Context) (bool, error)
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
