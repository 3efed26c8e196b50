package main

import (
	"context"

	"library-backend/internal/shared"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// asynqServer wraps asynq.Server with additional functionality
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates the server and starts it in the background.
func setupAsynqServer(redisOpt asynq.RedisClientOpt, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Queues:      shared.QueuePriorities,
			Concurrency: 10,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().
					Err(err).
					Str("task_type", task.Type()).
					Msg("[WORKER] Task failed")
			}),
		},
	)

	go func() {
		log.Info().Msg("[WORKER] Starting")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("[WORKER] Failed")
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits for active tasks, bounded by asynq's ShutdownTimeout.
func (s *asynqServer) Shutdown() {
	log.Info().Msg("[WORKER] Shutting down")
	s.Server.Shutdown()
	log.Info().Msg("[WORKER] Stopped")
}
