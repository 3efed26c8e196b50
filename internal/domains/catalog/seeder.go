// Package catalog loads the default books and members into an empty store.
package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	bookModel "library-backend/internal/domains/book/model"
	bookRepo "library-backend/internal/domains/book/repository"
	memberModel "library-backend/internal/domains/member/model"
	memberRepo "library-backend/internal/domains/member/repository"

	"github.com/rs/zerolog/log"
)

// Seeder inserts the default dataset into empty collections.
// Inserts ignore duplicate codes, so concurrent first requests are safe.
type Seeder struct {
	books   bookRepo.RepositoryInterface
	members memberRepo.RepositoryInterface

	// ready is set once both collections were seen non-empty.
	// Records are never deleted, so it never goes back.
	ready atomic.Bool
}

// NewSeeder creates a new seeder instance
func NewSeeder(books bookRepo.RepositoryInterface, members memberRepo.RepositoryInterface) *Seeder {
	return &Seeder{books: books, members: members}
}

// SeedBooks inserts the default books if the collection is empty.
// Returns the number of rows inserted.
func (s *Seeder) SeedBooks(ctx context.Context) (int, error) {
	count, err := s.books.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inserted, err := s.books.InsertMany(ctx, bookModel.DefaultBooks())
	if err != nil {
		return 0, fmt.Errorf("failed to seed books: %w", err)
	}

	log.Info().Int("inserted", inserted).Msg("[SEEDER] Books seeded")
	return inserted, nil
}

// SeedMembers inserts the default members if the collection is empty.
func (s *Seeder) SeedMembers(ctx context.Context) (int, error) {
	count, err := s.members.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inserted, err := s.members.InsertMany(ctx, memberModel.DefaultMembers())
	if err != nil {
		return 0, fmt.Errorf("failed to seed members: %w", err)
	}

	log.Info().Int("inserted", inserted).Msg("[SEEDER] Members seeded")
	return inserted, nil
}

// EnsureSeeded seeds books then members.
func (s *Seeder) EnsureSeeded(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}

	if _, err := s.SeedBooks(ctx); err != nil {
		return err
	}
	if _, err := s.SeedMembers(ctx); err != nil {
		return err
	}

	s.ready.Store(true)
	return nil
}

// IsInitialized reports whether both collections hold at least one record.
func (s *Seeder) IsInitialized(ctx context.Context) (bool, error) {
	if s.ready.Load() {
		return true, nil
	}

	books, err := s.books.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count books: %w", err)
	}
	members, err := s.members.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count members: %w", err)
	}

	ok := books > 0 && members > 0
	if ok {
		s.ready.Store(true)
	}
	return ok, nil
}
