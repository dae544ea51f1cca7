package handler

import (
	"context"
	"net/http"
	"time"

	"salonledger/internal/infra"
	"salonledger/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Only the database is critical: a Redis outage degrades caching and alerts
// but the ledger keeps working. Never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, cacheBreaker *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else if n, err := worker.DLQLength(ctx, rdb); err == nil {
				body["alerts_dead_letters"] = n
			}
		}
		body["redis"] = redisStatus

		if cacheBreaker != nil {
			body["projection_cache"] = cacheBreaker.State().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}
