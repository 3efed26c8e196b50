package main

import (
	"context"
	"fmt"
	"time"

	"library-backend/pkg/container"

	"github.com/rs/zerolog/log"
)

// checkDependencies verifies the store and Redis before the worker starts.
func checkDependencies(c *container.Container) error {
	log.Info().Msg("============================================")
	log.Info().Msg("Library Worker Starting")
	log.Info().Msg("============================================")

	if !c.Config.Redis.Enabled {
		return fmt.Errorf("the worker needs Redis, set REDIS_ENABLED=true")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	checks, healthy := c.HealthCheck(ctx)
	for name, status := range checks {
		log.Info().Str("check", name).Str("status", status).Msg("[STARTUP] Health check")
	}
	if !healthy {
		return fmt.Errorf("dependency health check failed: %v", checks)
	}

	return nil
}
