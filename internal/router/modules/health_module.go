package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-admin/internal/container"
	"github.com/oksasatya/go-ddd-user-admin/pkg/response"
)

// HealthModule serves GET /health without authentication. It reports 503
// when PostgreSQL is configured but unreachable; Redis is informational only
// because every Redis feature degrades gracefully.
type HealthModule struct{}

func NewHealthModule() *HealthModule { return &HealthModule{} }

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"storage": "memory", "redis": "disabled"}
		status := http.StatusOK
		if pool := container.GetPGPool(); pool != nil {
			checks["storage"] = "postgres"
			if err := pool.Ping(ctx); err != nil {
				checks["storage"] = "postgres: " + err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		if rdb := container.GetRedis(); rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
			}
		}

		if status != http.StatusOK {
			c.JSON(status, response.Error[any](c, status, "unhealthy", checks))
			return
		}
		c.JSON(status, response.Success(c, status, checks, "ok", nil))
	})
}
