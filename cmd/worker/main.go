package main

import (
	"os"
	"os/signal"
	"syscall"

	"library-backend/pkg/container"
	"library-backend/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	c, err := container.NewContainer()
	if err != nil {
		log.Fatal().Err(err).Msg("[CONTAINER] Failed to initialize")
	}
	defer c.Cleanup()

	if err := checkDependencies(c); err != nil {
		log.Fatal().Err(err).Msg("[STARTUP] Health check failed")
	}

	redisOpt := c.RedisClientOpt()

	handlers := initializeHandlers(c)
	srv := setupAsynqServer(redisOpt, handlers)
	scheduler := setupScheduler(redisOpt, c.Config.Jobs)

	waitForShutdown(srv, scheduler)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("[SHUTDOWN] Gracefully stopping")
	scheduler.Shutdown()
	srv.Shutdown()
	log.Info().Msg("[SHUTDOWN] Stopped")
}
