package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"library-backend/internal/domains/lending/model"
	"library-backend/internal/shared"
	"library-backend/internal/shared/utils"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	cleared int64
	err     error
	calls   int
}

func (s *fakeSweeper) SweepExpiredPenalties(context.Context) (int64, error) {
	s.calls++
	return s.cleared, s.err
}

func TestPenaltyAppliedHandler(t *testing.T) {
	h := NewPenaltyAppliedHandler()
	borrowedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("valid payload", func(t *testing.T) {
		task, err := utils.NewJSONTask(shared.TypeLendingPenaltyApplied, model.PenaltyAppliedPayload{
			MemberCode:  "M001",
			BookCode:    "JK-45",
			BorrowedAt:  borrowedAt,
			PenalizedAt: borrowedAt.Add(9 * 24 * time.Hour),
		})
		require.NoError(t, err)

		assert.NoError(t, h.ProcessTask(context.Background(), task))
	})

	t.Run("malformed payload is not retried", func(t *testing.T) {
		task := asynq.NewTask(shared.TypeLendingPenaltyApplied, []byte("{not json"))

		err := h.ProcessTask(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("missing codes are not retried", func(t *testing.T) {
		task := asynq.NewTask(shared.TypeLendingPenaltyApplied, nil)

		err := h.ProcessTask(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestSweepExpiredPenaltiesHandler(t *testing.T) {
	t.Run("sweeps", func(t *testing.T) {
		sweeper := &fakeSweeper{cleared: 2}
		h := NewSweepExpiredPenaltiesHandler(sweeper)

		task, err := utils.NewJSONTask(shared.TypeSweepExpiredPenalties, model.SweepExpiredPenaltiesPayload{ScheduledBy: "scheduler"})
		require.NoError(t, err)

		require.NoError(t, h.ProcessTask(context.Background(), task))
		assert.Equal(t, 1, sweeper.calls)
	})

	t.Run("empty payload", func(t *testing.T) {
		sweeper := &fakeSweeper{}
		h := NewSweepExpiredPenaltiesHandler(sweeper)

		require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeSweepExpiredPenalties, nil)))
		assert.Equal(t, 1, sweeper.calls)
	})

	t.Run("store error is retried", func(t *testing.T) {
		sweeper := &fakeSweeper{err: errors.New("timeout")}
		h := NewSweepExpiredPenaltiesHandler(sweeper)

		err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeSweepExpiredPenalties, nil))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}
