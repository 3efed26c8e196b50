package catalog

import (
	"context"
	"errors"
	"testing"

	bookModel "library-backend/internal/domains/book/model"
	bookRepo "library-backend/internal/domains/book/repository"
	memberRepo "library-backend/internal/domains/member/repository"
	"library-backend/internal/infrastructure/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBooks struct {
	bookRepo.RepositoryInterface
}

func (failingBooks) Count(context.Context) (int64, error) {
	return 0, errors.New("store offline")
}

func newSeeder() (*Seeder, bookRepo.RepositoryInterface, memberRepo.RepositoryInterface) {
	store := memstore.New()
	books := bookRepo.NewMemoryRepository(store)
	members := memberRepo.NewMemoryRepository(store)
	return NewSeeder(books, members), books, members
}

func TestSeeder_EnsureSeeded(t *testing.T) {
	ctx := context.Background()
	seeder, books, members := newSeeder()

	ok, err := seeder.IsInitialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, seeder.EnsureSeeded(ctx))

	bookCount, err := books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), bookCount)

	memberCount, err := members.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), memberCount)

	ok, err = seeder.IsInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeeder_SkipsNonEmptyCollections(t *testing.T) {
	ctx := context.Background()
	seeder, books, _ := newSeeder()

	_, err := books.InsertMany(ctx, []bookModel.Book{{Code: "X-1", Title: "Existing", Author: "Someone", Stock: 2}})
	require.NoError(t, err)

	inserted, err := seeder.SeedBooks(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	inserted, err = seeder.SeedMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	all, err := books.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "X-1", all[0].Code)
}

func TestSeeder_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	seeder, books, _ := newSeeder()

	require.NoError(t, seeder.EnsureSeeded(ctx))
	require.NoError(t, seeder.EnsureSeeded(ctx))

	count, err := books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestSeeder_PropagatesStoreErrors(t *testing.T) {
	store := memstore.New()
	seeder := NewSeeder(failingBooks{bookRepo.NewMemoryRepository(store)}, memberRepo.NewMemoryRepository(store))

	err := seeder.EnsureSeeded(context.Background())
	assert.ErrorContains(t, err, "store offline")

	_, err = seeder.IsInitialized(context.Background())
	assert.Error(t, err)
}
