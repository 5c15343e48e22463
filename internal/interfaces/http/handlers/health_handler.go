package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/turtacn/backupgw/pkg/logger"
)

const checkTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// DatabaseCheck pings the database behind db.
func DatabaseCheck(db *gorm.DB) HealthCheck {
	return HealthCheck{Name: "database", Check: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

// RedisCheck pings redis.
func RedisCheck(rdb redis.UniversalClient) HealthCheck {
	return HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	checks []HealthCheck
	log    logger.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(log logger.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		log:    log.WithComponent("HealthHandler"),
	}
}

// HealthCheck reports liveness. It never touches dependencies.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck reports whether every dependency answers.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := h.performChecks(c.Request.Context())
	for name, checkStatus := range checks {
		if checkStatus != "ok" {
			status = "unavailable"
			httpStatus = http.StatusServiceUnavailable
			h.log.Warn(c.Request.Context(), "Readiness check failed", logger.String("check", name), logger.String("status", checkStatus))
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

func (h *HealthHandler) performChecks(parent context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(parent, checkTimeout)
	defer cancel()

	var g errgroup.Group
	var mu sync.Mutex
	checks := make(map[string]string, len(h.checks))

	// a failing check must not cancel its siblings, so every Go func returns nil
	for _, hc := range h.checks {
		hc := hc
		g.Go(func() error {
			status := "ok"
			if err := hc.Check(ctx); err != nil {
				status = "error: " + err.Error()
			}
			mu.Lock()
			checks[hc.Name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return checks
}
