package job

import (
	"context"
	"fmt"

	"library-backend/internal/domains/lending/model"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// PenaltySweeper is the part of the lending service the sweep needs.
type PenaltySweeper interface {
	SweepExpiredPenalties(ctx context.Context) (int64, error)
}

// SweepExpiredPenaltiesHandler lifts penalties that have run out.
type SweepExpiredPenaltiesHandler struct {
	sweeper PenaltySweeper
}

func NewSweepExpiredPenaltiesHandler(sweeper PenaltySweeper) *SweepExpiredPenaltiesHandler {
	return &SweepExpiredPenaltiesHandler{sweeper: sweeper}
}

func (h *SweepExpiredPenaltiesHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.SweepExpiredPenaltiesPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	cleared, err := h.sweeper.SweepExpiredPenalties(ctx)
	if err != nil {
		logger.Error("Failed to sweep expired penalties", err)
		return fmt.Errorf("sweep expired penalties: %w", err)
	}

	logger.Info("Expired penalties swept", map[string]interface{}{
		"cleared": cleared,
	})

	return nil
}
