package db

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// StoreStats is the health payload for the embedded store.
type StoreStats struct {
	OpenConns int    `json:"open_conns"`
	InUse     int    `json:"in_use"`
	Idle      int    `json:"idle"`
	WaitCount int64  `json:"wait_count"`
	WaitTotal string `json:"wait_total"`
	Healthy   bool   `json:"healthy"`
}

func statsOf(sqldb *sql.DB) *StoreStats {
	s := sqldb.Stats()
	return &StoreStats{
		OpenConns: s.OpenConnections,
		InUse:     s.InUse,
		Idle:      s.Idle,
		WaitCount: s.WaitCount,
		WaitTotal: s.WaitDuration.String(),
		Healthy:   true,
	}
}

// HealthHandler serves the store health check endpoint.
func HealthHandler(sqldb *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		stats := statsOf(sqldb)
		if err := sqldb.PingContext(ctx); err != nil {
			stats.Healthy = false
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
				"store":  stats,
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"store":  stats,
		})
	}
}
