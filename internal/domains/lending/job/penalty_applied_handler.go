package job

import (
	"context"
	"fmt"

	"library-backend/internal/domains/lending/model"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// PenaltyAppliedHandler records late returns that penalized a member.
type PenaltyAppliedHandler struct{}

func NewPenaltyAppliedHandler() *PenaltyAppliedHandler {
	return &PenaltyAppliedHandler{}
}

func (h *PenaltyAppliedHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.PenaltyAppliedPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	if payload.MemberCode == "" || payload.BookCode == "" {
		return fmt.Errorf("incomplete penalty payload: %w", asynq.SkipRetry)
	}

	logger.Info("Member penalized for late return", map[string]interface{}{
		"member_code":  payload.MemberCode,
		"book_code":    payload.BookCode,
		"borrowed_at":  payload.BorrowedAt,
		"penalized_at": payload.PenalizedAt,
		"days_late":    int(payload.PenalizedAt.Sub(payload.BorrowedAt).Hours() / 24),
	})

	return nil
}
