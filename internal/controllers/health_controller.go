package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autohub/internal/config"
)

// Health reports whether postgres and redis are reachable.
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"postgres": "ok", "redis": "ok"}
	healthy := true

	switch {
	case config.DB == nil:
		checks["postgres"], healthy = "not configured", false
	default:
		sqlDB, err := config.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			logrus.WithError(err).Warn("health: postgres unreachable")
			checks["postgres"], healthy = "down", false
		}
	}

	switch {
	case config.Cache == nil:
		checks["redis"], healthy = "not configured", false
	default:
		if err := config.Cache.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).Warn("health: redis unreachable")
			checks["redis"], healthy = "down", false
		}
	}

	status := http.StatusOK
	checks["status"] = "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		checks["status"] = "degraded"
	}
	c.JSON(status, checks)
}
