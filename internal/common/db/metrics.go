package db

import (
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/messagely/backend/internal/observability/metrics"
)

func StartPoolMetrics(pool *pgxpool.Pool, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			stat := pool.Stat()
			metrics.DBPoolAcquiredConnections.Set(float64(stat.AcquiredConns()))
			metrics.DBPoolIdleConnections.Set(float64(stat.IdleConns()))
			metrics.DBPoolMaxConnections.Set(float64(stat.MaxConns()))
			metrics.DBPoolTotalConnections.Set(float64(stat.TotalConns()))
		}
	}()
}
