package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the /health/db view of the connection pool.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// HealthChecker is what /health/db needs from the database.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Stats() PoolStats
}

// PoolChecker adapts a pgx pool to HealthChecker.
type PoolChecker struct {
	Pool *pgxpool.Pool
}

func (p PoolChecker) Ping(ctx context.Context) error { return p.Pool.Ping(ctx) }

func (p PoolChecker) Stats() PoolStats {
	stat := p.Pool.Stat()
	return PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

const healthPingTimeout = 5 * time.Second

// HealthHandler serves GET /health/db. Diet logs and medical notes are both
// unavailable without the database, so a failed ping answers 503. The driver
// error stays out of the body since it can carry the connection host.
func HealthHandler(hc HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
		defer cancel()

		status, code := "healthy", http.StatusOK
		if err := hc.Ping(ctx); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]interface{}{
			"status": status,
			"pool":   hc.Stats(),
		})
	}
}
