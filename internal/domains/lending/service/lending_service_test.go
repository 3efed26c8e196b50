package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"library-backend/internal/config"
	bookModel "library-backend/internal/domains/book/model"
	bookRepo "library-backend/internal/domains/book/repository"
	"library-backend/internal/domains/catalog"
	"library-backend/internal/domains/lending/model"
	lendingRepo "library-backend/internal/domains/lending/repository"
	memberModel "library-backend/internal/domains/member/model"
	memberRepo "library-backend/internal/domains/member/repository"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/internal/shared"
	"library-backend/pkg/clock"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// FAKES
// ========================================

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deletes++
	return nil
}

func (c *fakeCache) Ping(context.Context) error { return nil }

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

// conflictingRepo fails the first n mutations with ErrConcurrentUpdate.
type conflictingRepo struct {
	lendingRepo.RepositoryInterface
	remaining int
	calls     int
}

func (r *conflictingRepo) Mutate(ctx context.Context, memberCode, bookCode string, fn lendingRepo.MutateFunc) (*memberModel.Member, *bookModel.Book, error) {
	r.calls++
	if r.remaining > 0 {
		r.remaining--
		return nil, nil, model.ErrConcurrentUpdate
	}
	return r.RepositoryInterface.Mutate(ctx, memberCode, bookCode, fn)
}

// ========================================
// FIXTURE
// ========================================

type fixture struct {
	svc      ServiceInterface
	clock    *clock.ManualClock
	cache    *fakeCache
	enqueuer *fakeEnqueuer
	books    bookRepo.RepositoryInterface
	members  memberRepo.RepositoryInterface
}

func testLendingConfig() config.LendingConfig {
	return config.LendingConfig{
		MaxBorrowed:    2,
		LateAfterDays:  7,
		PenaltyDays:    3,
		AutoSeed:       true,
		CacheTTL:       time.Minute,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
	}
}

func newFixture(t *testing.T, cfg config.LendingConfig, wrap func(lendingRepo.RepositoryInterface) lendingRepo.RepositoryInterface) *fixture {
	t.Helper()

	store := memstore.New()
	books := bookRepo.NewMemoryRepository(store)
	members := memberRepo.NewMemoryRepository(store)
	lending := lendingRepo.NewMemoryRepository(store)
	if wrap != nil {
		lending = wrap(lending)
	}

	f := &fixture{
		clock:    clock.NewManualClock(t0),
		cache:    newFakeCache(),
		enqueuer: &fakeEnqueuer{},
		books:    books,
		members:  members,
	}
	f.svc = NewLendingService(Dependencies{
		Books:    books,
		Members:  members,
		Lending:  lending,
		Seeder:   catalog.NewSeeder(books, members),
		Cache:    f.cache,
		Enqueuer: f.enqueuer,
		Clock:    f.clock,
	}, cfg)
	return f
}

func (f *fixture) checkout(t *testing.T, member, book string) (*model.CheckoutResult, error) {
	t.Helper()
	return f.svc.Checkout(context.Background(), model.CheckoutRequest{MemberCode: member, BookCode: book})
}

func (f *fixture) giveBack(t *testing.T, member, book string) (*model.ReturnResult, error) {
	t.Helper()
	return f.svc.Return(context.Background(), model.ReturnRequest{MemberCode: member, BookCode: book})
}

func (f *fixture) stock(t *testing.T, code string) int {
	t.Helper()
	b, err := f.books.GetByCode(context.Background(), code)
	require.NoError(t, err)
	return b.Stock
}

func (f *fixture) member(t *testing.T, code string) *memberModel.Member {
	t.Helper()
	m, err := f.members.GetByCode(context.Background(), code)
	require.NoError(t, err)
	return m
}

// ========================================
// TESTS
// ========================================

func TestLendingService_SeedsLazily(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	books, err := f.svc.ListAvailableBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 5)
	for _, b := range books {
		assert.Equal(t, 1, b.Stock)
	}

	members, err := f.svc.ListMembers(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "M001", members[0].Code)
}

func TestLendingService_UninitializedStoreWithoutAutoSeed(t *testing.T) {
	cfg := testLendingConfig()
	cfg.AutoSeed = false
	f := newFixture(t, cfg, nil)

	_, err := f.checkout(t, "M001", "JK-45")
	assert.ErrorIs(t, err, model.ErrUninitializedStore)

	status, msg := model.MapErrorToHTTP(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Error, The systems failed to load books or members", msg)

	_, err = f.svc.ListAvailableBooks(context.Background())
	assert.ErrorIs(t, err, model.ErrUninitializedStore)
}

func TestLendingService_UninitializedIsReportedBeforeValidation(t *testing.T) {
	cfg := testLendingConfig()
	cfg.AutoSeed = false
	f := newFixture(t, cfg, nil)

	_, err := f.checkout(t, "", "")
	assert.ErrorIs(t, err, model.ErrUninitializedStore)
}

func TestLendingService_Validation(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	_, err := f.checkout(t, "  ", "")
	require.ErrorIs(t, err, model.ErrValidation)

	fields := model.ToFieldErrors(err)
	require.Len(t, fields, 2)
	assert.Equal(t, model.FieldError{Msg: "book_code is required.", Param: "book_code", Location: "body"}, fields[0])
	assert.Equal(t, model.FieldError{Msg: "member_code is required.", Param: "member_code", Location: "body"}, fields[1])
}

func TestLendingService_CheckoutThenReturn(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	res, err := f.checkout(t, "M001", "JK-45")
	require.NoError(t, err)
	assert.Equal(t, "Successfully checkout Harry Potter", res.Message())
	assert.Equal(t, 0, f.stock(t, "JK-45"))
	require.Len(t, f.member(t, "M001").BookDetail, 1)

	f.clock.Advance(2 * 24 * time.Hour)

	ret, err := f.giveBack(t, "M001", "JK-45")
	require.NoError(t, err)
	assert.False(t, ret.Penalized)
	assert.Equal(t, "Successfully returned Harry Potter", ret.Message())
	assert.Equal(t, 1, f.stock(t, "JK-45"))
	assert.Empty(t, f.member(t, "M001").BookDetail)
	assert.Empty(t, f.enqueuer.tasks)
}

func TestLendingService_CacheIsInvalidatedOnMutation(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)
	ctx := context.Background()

	_, err := f.svc.ListAvailableBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets)

	// served from cache
	_, err = f.svc.ListAvailableBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets)

	_, err = f.checkout(t, "M001", "JK-45")
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.deletes)

	books, err := f.svc.ListAvailableBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 4)
	for _, b := range books {
		assert.NotEqual(t, "JK-45", b.Code)
	}
}

func TestLendingService_OutOfStockLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	_, err := f.checkout(t, "M001", "JK-45")
	require.NoError(t, err)

	_, err = f.checkout(t, "M002", "JK-45")
	require.ErrorIs(t, err, model.ErrOutOfStock)

	status, msg := model.MapErrorToHTTP(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Sorry Harry Potter is already borrowed", msg)

	assert.Equal(t, 0, f.stock(t, "JK-45"))
	assert.Empty(t, f.member(t, "M002").BookDetail)
}

func TestLendingService_BorrowLimit(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	_, err := f.checkout(t, "M001", "JK-45")
	require.NoError(t, err)
	_, err = f.checkout(t, "M001", "SHR-1")
	require.NoError(t, err)

	_, err = f.checkout(t, "M001", "TW-11")
	require.ErrorIs(t, err, model.ErrBorrowLimitReached)

	status, msg := model.MapErrorToHTTP(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Sorry, you've already borrowed 2 books, return it first", msg)
	assert.Len(t, f.member(t, "M001").BookDetail, 2)
	assert.Equal(t, 1, f.stock(t, "TW-11"))
}

func TestLendingService_NotFound(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	_, err := f.checkout(t, "M001", "XX-1")
	assert.ErrorIs(t, err, bookModel.ErrBookNotFound)
	_, msg := model.MapErrorToHTTP(err)
	assert.Equal(t, "Sorry, book XX-1 not found", msg)

	_, err = f.giveBack(t, "M999", "JK-45")
	assert.ErrorIs(t, err, memberModel.ErrMemberNotFound)
	_, msg = model.MapErrorToHTTP(err)
	assert.Equal(t, "Sorry, member M999 not found", msg)
}

func TestLendingService_ReturnErrors(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	_, err := f.giveBack(t, "M001", "JK-45")
	assert.ErrorIs(t, err, model.ErrNothingBorrowed)

	_, err = f.checkout(t, "M001", "TW-11")
	require.NoError(t, err)

	_, err = f.giveBack(t, "M001", "JK-45")
	assert.ErrorIs(t, err, model.ErrNotBorrowedByMember)
	assert.Equal(t, 1, f.stock(t, "JK-45"))
}

func TestLendingService_LatePenaltyLifecycle(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	_, err := f.checkout(t, "M001", "JK-45")
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)
	returnedAt := f.clock.Now()

	ret, err := f.giveBack(t, "M001", "JK-45")
	require.NoError(t, err)
	assert.True(t, ret.Penalized)
	assert.Equal(t, "Successfully returned Harry Potter, But you've got Penalized", ret.Message())

	m := f.member(t, "M001")
	assert.True(t, m.IsPenalized)
	require.NotNil(t, m.PenalizedAt)
	assert.True(t, returnedAt.Equal(*m.PenalizedAt))

	// penalty event
	require.Len(t, f.enqueuer.tasks, 1)
	task := f.enqueuer.tasks[0]
	assert.Equal(t, shared.TypeLendingPenaltyApplied, task.Type())
	var payload model.PenaltyAppliedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "M001", payload.MemberCode)
	assert.Equal(t, "JK-45", payload.BookCode)
	assert.True(t, t0.Equal(payload.BorrowedAt))
	assert.True(t, returnedAt.Equal(payload.PenalizedAt))

	// before expiry
	f.clock.Advance(2 * 24 * time.Hour)
	_, err = f.checkout(t, "M001", "SHR-1")
	require.ErrorIs(t, err, model.ErrStillPenalized)
	_, msg := model.MapErrorToHTTP(err)
	assert.Equal(t, "Error, can't checkout book because you're still penalized", msg)

	// after expiry
	f.clock.Advance(2 * 24 * time.Hour)
	_, err = f.checkout(t, "M001", "SHR-1")
	require.NoError(t, err)

	m = f.member(t, "M001")
	assert.False(t, m.IsPenalized)
	assert.Nil(t, m.PenalizedAt)
	assert.Len(t, m.BookDetail, 1)
}

func TestLendingService_EnqueueFailureDoesNotFailReturn(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)
	f.enqueuer.err = errors.New("redis down")

	_, err := f.checkout(t, "M002", "TW-11")
	require.NoError(t, err)
	f.clock.Advance(10 * 24 * time.Hour)

	ret, err := f.giveBack(t, "M002", "TW-11")
	require.NoError(t, err)
	assert.True(t, ret.Penalized)
}

func TestLendingService_SweepExpiredPenalties(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	_, err := f.checkout(t, "M001", "JK-45")
	require.NoError(t, err)
	f.clock.Advance(8 * 24 * time.Hour)
	_, err = f.giveBack(t, "M001", "JK-45")
	require.NoError(t, err)

	f.clock.Advance(3 * 24 * time.Hour)
	cleared, err := f.svc.SweepExpiredPenalties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), cleared, "exactly three days is still in force")

	f.clock.Advance(time.Minute)
	cleared, err = f.svc.SweepExpiredPenalties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
	assert.False(t, f.member(t, "M001").IsPenalized)
}

func TestLendingService_RetriesConcurrentUpdates(t *testing.T) {
	var repo *conflictingRepo
	f := newFixture(t, testLendingConfig(), func(inner lendingRepo.RepositoryInterface) lendingRepo.RepositoryInterface {
		repo = &conflictingRepo{RepositoryInterface: inner, remaining: 2}
		return repo
	})

	_, err := f.checkout(t, "M001", "JK-45")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.calls)
	assert.Equal(t, 0, f.stock(t, "JK-45"))
}

func TestLendingService_ConflictAfterRetriesExhausted(t *testing.T) {
	var repo *conflictingRepo
	f := newFixture(t, testLendingConfig(), func(inner lendingRepo.RepositoryInterface) lendingRepo.RepositoryInterface {
		repo = &conflictingRepo{RepositoryInterface: inner, remaining: 100}
		return repo
	})

	_, err := f.checkout(t, "M001", "JK-45")
	require.ErrorIs(t, err, model.ErrConcurrentUpdate)
	assert.Equal(t, 3, repo.calls)

	status, _ := model.MapErrorToHTTP(err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 1, f.stock(t, "JK-45"))
}

func TestLendingService_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t, testLendingConfig(), nil)

	codes := []string{"M001", "M002", "M003"}
	var wg sync.WaitGroup
	errs := make([]error, len(codes))
	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			_, errs[i] = f.svc.Checkout(context.Background(), model.CheckoutRequest{MemberCode: code, BookCode: "NRN-7"})
		}(i, code)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, model.ErrOutOfStock)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, f.stock(t, "NRN-7"))
}
