package main

import (
	lendingJob "library-backend/internal/domains/lending/job"
	"library-backend/internal/shared"
	"library-backend/pkg/container"

	"github.com/hibiken/asynq"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	penaltyApplied        *lendingJob.PenaltyAppliedHandler
	sweepExpiredPenalties *lendingJob.SweepExpiredPenaltiesHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		penaltyApplied:        lendingJob.NewPenaltyAppliedHandler(),
		sweepExpiredPenalties: lendingJob.NewSweepExpiredPenaltiesHandler(c.LendingService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeLendingPenaltyApplied, h.penaltyApplied.ProcessTask)
	mux.HandleFunc(shared.TypeSweepExpiredPenalties, h.sweepExpiredPenalties.ProcessTask)
}
