package main

import (
	"context"
	"net/http"
	"time"

	"library-backend/internal/shared/middleware"
	"library-backend/pkg/container"

	"github.com/gin-gonic/gin"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
	)

	router.GET("/health", healthCheckHandler(c))

	setupLendingRoutes(router, c)

	return router
}

// ========================================
// LENDING ROUTES
// ========================================
func setupLendingRoutes(router *gin.Engine, c *container.Container) {
	h := c.LendingHandler

	router.GET("/", h.Home)
	router.GET("/list-book", h.ListBooks)
	router.GET("/list-member", h.ListMembers)
	router.POST("/checkout", h.Checkout)
	router.POST("/return", h.Return)
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		services, healthy := appCtx.HealthCheck(ctx)

		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services":  services,
		}

		statusCode := http.StatusOK
		if !healthy {
			health["status"] = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
