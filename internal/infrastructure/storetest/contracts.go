// Package storetest holds behaviour every store adapter must share.
// Adapters run it from their own tests with a factory for a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bookModel "library-backend/internal/domains/book/model"
	bookRepo "library-backend/internal/domains/book/repository"
	lendingModel "library-backend/internal/domains/lending/model"
	lendingRepo "library-backend/internal/domains/lending/repository"
	memberModel "library-backend/internal/domains/member/model"
	memberRepo "library-backend/internal/domains/member/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type CleanupFunc = func()

// Repos is one store seen through the three repositories.
type Repos struct {
	Books   bookRepo.RepositoryInterface
	Members memberRepo.RepositoryInterface
	Lending lendingRepo.RepositoryInterface
}

// Factory returns repositories over a new empty store.
type Factory func(t *testing.T) (Repos, CleanupFunc)

var errNoStock = errors.New("no stock")

// RunAll runs every contract against stores built by newRepos.
func RunAll(t *testing.T, newRepos Factory) {
	t.Run("BookRepo", func(t *testing.T) { RunBookRepo(t, newRepos) })
	t.Run("MemberRepo", func(t *testing.T) { RunMemberRepo(t, newRepos) })
	t.Run("LendingRepo", func(t *testing.T) { RunLendingRepo(t, newRepos) })
}

func open(t *testing.T, newRepos Factory) Repos {
	t.Helper()
	repos, cleanup := newRepos(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return repos
}

// at returns a UTC time with millisecond precision, the coarsest any adapter stores.
func at(sec int64) time.Time {
	return time.Unix(sec, 0).UTC().Truncate(time.Millisecond)
}

func RunBookRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	count, err := repos.Books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	inserted, err := repos.Books.InsertMany(ctx, bookModel.DefaultBooks())
	require.NoError(t, err)
	assert.Equal(t, 5, inserted)

	// duplicate codes are skipped, new ones still go in
	extra := append(bookModel.DefaultBooks()[:1], bookModel.Book{Code: "ZERO-1", Title: "Gone", Author: "Nobody", Stock: 0})
	inserted, err = repos.Books.InsertMany(ctx, extra)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	count, err = repos.Books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)

	all, err := repos.Books.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i, want := range bookModel.DefaultBooks() {
		assert.Equal(t, want.Code, all[i].Code, "insertion order at %d", i)
		assert.Equal(t, want.Title, all[i].Title)
		assert.Equal(t, want.Author, all[i].Author)
		assert.Equal(t, want.Stock, all[i].Stock)
	}
	assert.Equal(t, "ZERO-1", all[5].Code)

	available, err := repos.Books.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 5)
	for _, b := range available {
		assert.NotEqual(t, "ZERO-1", b.Code)
		assert.Greater(t, b.Stock, 0)
	}

	got, err := repos.Books.GetByCode(ctx, "JK-45")
	require.NoError(t, err)
	assert.Equal(t, "Harry Potter", got.Title)

	_, err = repos.Books.GetByCode(ctx, "NOPE")
	assert.True(t, bookModel.IsNotFoundError(err), "got %v", err)
}

func RunMemberRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	inserted, err := repos.Members.InsertMany(ctx, memberModel.DefaultMembers())
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	inserted, err = repos.Members.InsertMany(ctx, memberModel.DefaultMembers())
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	members, err := repos.Members.List(ctx)
	require.NoError(t, err)
	require.Len(t, members, 3)
	for i, want := range memberModel.DefaultMembers() {
		assert.Equal(t, want.Code, members[i].Code)
		assert.Equal(t, want.Name, members[i].Name)
		assert.NotNil(t, members[i].BookDetail)
		assert.Empty(t, members[i].BookDetail)
		assert.False(t, members[i].IsPenalized)
		assert.Nil(t, members[i].PenalizedAt)
	}

	_, err = repos.Members.GetByCode(ctx, "M999")
	assert.True(t, memberModel.IsNotFoundError(err), "got %v", err)

	// penalties
	old := at(1_000)
	recent := at(500_000)
	_, err = repos.Books.InsertMany(ctx, bookModel.DefaultBooks())
	require.NoError(t, err)
	_, err = repos.Members.InsertMany(ctx, []memberModel.Member{
		{Code: "P-OLD", Name: "Old", IsPenalized: true, PenalizedAt: &old},
		{Code: "P-NEW", Name: "New", IsPenalized: true, PenalizedAt: &recent,
			BookDetail: []memberModel.BorrowedBook{{Code: "JK-45", BorrowedAt: at(400_000)}}},
	})
	require.NoError(t, err)

	withLoan, err := repos.Members.GetByCode(ctx, "P-NEW")
	require.NoError(t, err)
	require.Len(t, withLoan.BookDetail, 1)
	assert.Equal(t, "JK-45", withLoan.BookDetail[0].Code)
	assert.True(t, at(400_000).Equal(withLoan.BookDetail[0].BorrowedAt))

	cleared, err := repos.Members.ClearExpiredPenalties(ctx, at(100_000))
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	gotOld, err := repos.Members.GetByCode(ctx, "P-OLD")
	require.NoError(t, err)
	assert.False(t, gotOld.IsPenalized)
	assert.Nil(t, gotOld.PenalizedAt)

	gotNew, err := repos.Members.GetByCode(ctx, "P-NEW")
	require.NoError(t, err)
	assert.True(t, gotNew.IsPenalized)
	require.NotNil(t, gotNew.PenalizedAt)
	assert.True(t, recent.Equal(*gotNew.PenalizedAt))

	// cutoff is exclusive
	cleared, err = repos.Members.ClearExpiredPenalties(ctx, recent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cleared)
}

func RunLendingRepo(t *testing.T, newRepos Factory) {
	t.Helper()

	t.Run("mutation is persisted", func(t *testing.T) {
		ctx := context.Background()
		repos := open(t, newRepos)
		seed(t, repos)

		borrowedAt := at(2_000)
		member, book, err := repos.Lending.Mutate(ctx, "M001", "JK-45", func(m *memberModel.Member, b *bookModel.Book) error {
			require.NotNil(t, m)
			require.NotNil(t, b)
			m.BookDetail = append(m.BookDetail, memberModel.BorrowedBook{Code: b.Code, BorrowedAt: borrowedAt})
			b.Stock--
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, book.Stock)
		require.Len(t, member.BookDetail, 1)

		storedBook, err := repos.Books.GetByCode(ctx, "JK-45")
		require.NoError(t, err)
		assert.Equal(t, 0, storedBook.Stock)
		assert.Equal(t, book.Version, storedBook.Version)

		storedMember, err := repos.Members.GetByCode(ctx, "M001")
		require.NoError(t, err)
		require.Len(t, storedMember.BookDetail, 1)
		assert.Equal(t, "JK-45", storedMember.BookDetail[0].Code)
		assert.True(t, borrowedAt.Equal(storedMember.BookDetail[0].BorrowedAt))
		assert.Equal(t, member.Version, storedMember.Version)

		available, err := repos.Books.ListAvailable(ctx)
		require.NoError(t, err)
		assert.Len(t, available, 4)
	})

	t.Run("penalty fields round trip", func(t *testing.T) {
		ctx := context.Background()
		repos := open(t, newRepos)
		seed(t, repos)

		penalizedAt := at(9_000)
		_, _, err := repos.Lending.Mutate(ctx, "M002", "TW-11", func(m *memberModel.Member, b *bookModel.Book) error {
			m.Penalize(penalizedAt)
			return nil
		})
		require.NoError(t, err)

		stored, err := repos.Members.GetByCode(ctx, "M002")
		require.NoError(t, err)
		assert.True(t, stored.IsPenalized)
		require.NotNil(t, stored.PenalizedAt)
		assert.True(t, penalizedAt.Equal(*stored.PenalizedAt))
	})

	t.Run("error discards changes", func(t *testing.T) {
		ctx := context.Background()
		repos := open(t, newRepos)
		seed(t, repos)

		boom := errors.New("boom")
		_, _, err := repos.Lending.Mutate(ctx, "M001", "JK-45", func(m *memberModel.Member, b *bookModel.Book) error {
			b.Stock = 0
			m.BookDetail = append(m.BookDetail, memberModel.BorrowedBook{Code: b.Code, BorrowedAt: at(1)})
			return boom
		})
		assert.ErrorIs(t, err, boom)

		storedBook, err := repos.Books.GetByCode(ctx, "JK-45")
		require.NoError(t, err)
		assert.Equal(t, 1, storedBook.Stock)

		storedMember, err := repos.Members.GetByCode(ctx, "M001")
		require.NoError(t, err)
		assert.Empty(t, storedMember.BookDetail)
	})

	t.Run("missing records are passed as nil", func(t *testing.T) {
		ctx := context.Background()
		repos := open(t, newRepos)
		seed(t, repos)

		called := false
		_, _, err := repos.Lending.Mutate(ctx, "M404", "B404", func(m *memberModel.Member, b *bookModel.Book) error {
			called = true
			assert.Nil(t, m)
			assert.Nil(t, b)
			return lendingModel.NewBookNotFoundError("B404")
		})
		assert.True(t, called)
		assert.True(t, bookModel.IsNotFoundError(err), "got %v", err)
	})

	t.Run("concurrent mutations never oversell", func(t *testing.T) {
		ctx := context.Background()
		repos := open(t, newRepos)
		seed(t, repos)

		const workers = 8
		var wg sync.WaitGroup
		results := make(chan error, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := repos.Lending.Mutate(ctx, "M003", "HOB-83", func(m *memberModel.Member, b *bookModel.Book) error {
					if b.Stock == 0 {
						return errNoStock
					}
					b.Stock--
					m.BookDetail = append(m.BookDetail, memberModel.BorrowedBook{Code: b.Code, BorrowedAt: at(5)})
					return nil
				})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		successes := 0
		for err := range results {
			if err == nil {
				successes++
				continue
			}
			assert.True(t,
				errors.Is(err, errNoStock) || errors.Is(err, lendingModel.ErrConcurrentUpdate),
				"unexpected error %v", err)
		}
		assert.Equal(t, 1, successes)

		book, err := repos.Books.GetByCode(ctx, "HOB-83")
		require.NoError(t, err)
		assert.Equal(t, 0, book.Stock)

		member, err := repos.Members.GetByCode(ctx, "M003")
		require.NoError(t, err)
		assert.Len(t, member.BookDetail, 1)
	})
}

func seed(t *testing.T, repos Repos) {
	t.Helper()
	ctx := context.Background()

	_, err := repos.Books.InsertMany(ctx, bookModel.DefaultBooks())
	require.NoError(t, err)
	_, err = repos.Members.InsertMany(ctx, memberModel.DefaultMembers())
	require.NoError(t, err)
}
