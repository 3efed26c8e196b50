package queue

import (
	"fmt"
	"time"

	"library-backend/internal/config"
	"library-backend/internal/domains/lending/model"
	"library-backend/internal/shared"
	"library-backend/internal/shared/utils"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterJobs registers every periodic task.
func (s *Scheduler) RegisterJobs() error {
	if err := s.registerSweepExpiredPenaltiesJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// Sweep expired penalties (hourly by default)
// ================================================
func (s *Scheduler) registerSweepExpiredPenaltiesJob() error {
	task, err := utils.NewJSONTask(shared.TypeSweepExpiredPenalties, model.SweepExpiredPenaltiesPayload{
		ScheduledBy: "scheduler",
	})
	if err != nil {
		return err
	}

	entryID, err := s.scheduler.Register(
		s.jobConfig.PenaltySweepCron,
		task,
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(2),
		asynq.Timeout(2*time.Minute),
		asynq.Unique(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("register %s job: %w", shared.TypeSweepExpiredPenalties, err)
	}

	log.Info().
		Str("entry_id", entryID).
		Str("cron", s.jobConfig.PenaltySweepCron).
		Msg("[SCHEDULER] Registered penalty sweep")

	return nil
}

// Start blocks until Shutdown is called.
func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
