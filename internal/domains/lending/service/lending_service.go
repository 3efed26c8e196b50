package service

import (
	"context"
	"fmt"
	"time"

	"library-backend/internal/config"
	bookModel "library-backend/internal/domains/book/model"
	bookRepo "library-backend/internal/domains/book/repository"
	"library-backend/internal/domains/lending/model"
	lendingRepo "library-backend/internal/domains/lending/repository"
	memberModel "library-backend/internal/domains/member/model"
	memberRepo "library-backend/internal/domains/member/repository"
	"library-backend/internal/shared"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/cache"
	"library-backend/pkg/clock"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

type lendingService struct {
	books   bookRepo.RepositoryInterface
	members memberRepo.RepositoryInterface
	lending lendingRepo.RepositoryInterface
	seeder  CatalogSeeder

	cache    cache.Cache  // optional
	enqueuer TaskEnqueuer // optional

	clock clock.Clock
	rules Rules
	cfg   config.LendingConfig
}

// Dependencies groups what the lending service needs.
// Cache and Enqueuer may be nil.
type Dependencies struct {
	Books    bookRepo.RepositoryInterface
	Members  memberRepo.RepositoryInterface
	Lending  lendingRepo.RepositoryInterface
	Seeder   CatalogSeeder
	Cache    cache.Cache
	Enqueuer TaskEnqueuer
	Clock    clock.Clock
}

func NewLendingService(deps Dependencies, cfg config.LendingConfig) ServiceInterface {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}

	return &lendingService{
		books:    deps.Books,
		members:  deps.Members,
		lending:  deps.Lending,
		seeder:   deps.Seeder,
		cache:    deps.Cache,
		enqueuer: deps.Enqueuer,
		clock:    clk,
		rules:    NewRules(cfg),
		cfg:      cfg,
	}
}

func (s *lendingService) EnsureCatalog(ctx context.Context) error {
	if s.cfg.AutoSeed {
		if err := s.seeder.EnsureSeeded(ctx); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		return nil
	}

	ok, err := s.seeder.IsInitialized(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect catalog: %w", err)
	}
	if !ok {
		return model.NewUninitializedStoreError()
	}
	return nil
}

// ========================================
// CHECKOUT / RETURN
// ========================================

func (s *lendingService) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	if err := s.EnsureCatalog(ctx); err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	var result *model.CheckoutResult
	err := RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		member, book, err := s.lending.Mutate(ctx, req.MemberCode, req.BookCode,
			func(m *memberModel.Member, b *bookModel.Book) error {
				return s.rules.Checkout(req.MemberCode, req.BookCode, m, b, now)
			})
		if err != nil {
			return err
		}

		result = &model.CheckoutResult{Book: book, Member: member}
		return nil
	}, s.retryOptions("checkout")...)
	if err != nil {
		return nil, err
	}

	s.invalidateAvailableBooks(ctx)

	log.Info().
		Str("member_code", req.MemberCode).
		Str("book_code", req.BookCode).
		Int("stock", result.Book.Stock).
		Msg("[LENDING] Book checked out")

	return result, nil
}

func (s *lendingService) Return(ctx context.Context, req model.ReturnRequest) (*model.ReturnResult, error) {
	if err := s.EnsureCatalog(ctx); err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	var result *model.ReturnResult
	err := RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		var outcome ReturnOutcome
		member, book, err := s.lending.Mutate(ctx, req.MemberCode, req.BookCode,
			func(m *memberModel.Member, b *bookModel.Book) error {
				var ruleErr error
				outcome, ruleErr = s.rules.Return(req.MemberCode, req.BookCode, m, b, now)
				return ruleErr
			})
		if err != nil {
			return err
		}

		result = &model.ReturnResult{
			Book:       book,
			Member:     member,
			BorrowedAt: outcome.BorrowedAt,
			Penalized:  outcome.Penalized,
		}
		return nil
	}, s.retryOptions("return")...)
	if err != nil {
		return nil, err
	}

	s.invalidateAvailableBooks(ctx)

	log.Info().
		Str("member_code", req.MemberCode).
		Str("book_code", req.BookCode).
		Bool("penalized", result.Penalized).
		Msg("[LENDING] Book returned")

	if result.Penalized {
		s.enqueuePenaltyApplied(ctx, result)
	}

	return result, nil
}

// ========================================
// QUERIES
// ========================================

func (s *lendingService) ListAvailableBooks(ctx context.Context) ([]bookModel.Book, error) {
	if err := s.EnsureCatalog(ctx); err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached []bookModel.Book
		found, err := s.cache.Get(ctx, shared.CacheKeyAvailableBooks, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("[LENDING] Cache read failed, falling back to store")
		} else if found {
			return cached, nil
		}
	}

	books, err := s.books.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available books: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, shared.CacheKeyAvailableBooks, books, s.cfg.CacheTTL); err != nil {
			log.Warn().Err(err).Msg("[LENDING] Cache write failed")
		}
	}

	return books, nil
}

func (s *lendingService) ListMembers(ctx context.Context) ([]memberModel.Member, error) {
	if err := s.EnsureCatalog(ctx); err != nil {
		return nil, err
	}

	members, err := s.members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// ========================================
// MAINTENANCE
// ========================================

func (s *lendingService) SweepExpiredPenalties(ctx context.Context) (int64, error) {
	cutoff := s.rules.PenaltyCutoff(s.clock.Now())

	cleared, err := s.members.ClearExpiredPenalties(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep penalties: %w", err)
	}

	log.Info().
		Int64("cleared", cleared).
		Time("cutoff", cutoff).
		Msg("[LENDING] Expired penalties swept")

	return cleared, nil
}

// ========================================
// HELPERS
// ========================================

func (s *lendingService) retryOptions(operation string) []RetryOption {
	opts := []RetryOption{WithOperation(operation)}
	if s.cfg.RetryAttempts > 0 {
		opts = append(opts, WithMaxAttempts(s.cfg.RetryAttempts))
	}
	if s.cfg.RetryBaseDelay > 0 {
		opts = append(opts, WithBaseDelay(s.cfg.RetryBaseDelay))
	}
	return opts
}

func (s *lendingService) invalidateAvailableBooks(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, shared.CacheKeyAvailableBooks); err != nil {
		log.Warn().Err(err).Msg("[LENDING] Failed to invalidate available books cache")
	}
}

// enqueuePenaltyApplied is best-effort; the return already succeeded.
func (s *lendingService) enqueuePenaltyApplied(ctx context.Context, result *model.ReturnResult) {
	if s.enqueuer == nil {
		return
	}

	penalizedAt := s.clock.Now()
	if result.Member.PenalizedAt != nil {
		penalizedAt = *result.Member.PenalizedAt
	}

	task, err := utils.NewJSONTask(shared.TypeLendingPenaltyApplied, model.PenaltyAppliedPayload{
		MemberCode:  result.Member.Code,
		BookCode:    result.Book.Code,
		BorrowedAt:  result.BorrowedAt,
		PenalizedAt: penalizedAt,
	})
	if err != nil {
		log.Error().Err(err).Msg("[LENDING] Failed to build penalty task")
		return
	}

	info, err := s.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueLending),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.TaskID(uuid.NewString()),
	)
	if err != nil {
		log.Error().Err(err).
			Str("member_code", result.Member.Code).
			Msg("[LENDING] Failed to enqueue penalty task")
		return
	}

	log.Debug().Str("task_id", info.ID).Msg("[LENDING] Penalty task enqueued")
}
