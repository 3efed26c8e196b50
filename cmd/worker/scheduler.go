package main

import (
	"library-backend/internal/config"
	"library-backend/internal/infrastructure/queue"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// asynqScheduler wraps queue.Scheduler with additional functionality
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler registers the periodic jobs and starts the scheduler.
func setupScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.JobConfig) *asynqScheduler {
	scheduler := queue.NewScheduler(redisOpt, jobConfig)

	if err := scheduler.RegisterJobs(); err != nil {
		log.Fatal().Err(err).Msg("[SCHEDULER] Failed to register jobs")
	}

	go func() {
		log.Info().Msg("[SCHEDULER] Starting")
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("[SCHEDULER] Failed")
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	log.Info().Msg("[SCHEDULER] Shutting down")
	s.Scheduler.Shutdown()
	log.Info().Msg("[SCHEDULER] Stopped")
}
