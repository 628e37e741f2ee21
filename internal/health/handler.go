package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/llm"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handler is the liveness probe.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Component states reported by the readiness probe
const (
	StateConnected     = "connected"
	StateError         = "error"
	StateNotConfigured = "not_configured"
	StateFallbackOnly  = "fallback_only"
)

// Report is the readiness payload.
type Report struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	MLService string `json:"ml_service"`
}

// ReadyHandler checks the database and Redis and reports the LLM provider.
// It answers 503 when the database is unreachable. rdb may be nil.
func ReadyHandler(db *gorm.DB, rdb redis.UniversalClient, gw *llm.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		report := Check(ctx, db, rdb, gw)
		status := http.StatusOK
		if report.Database != StateConnected {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}

// Check probes every dependency.
func Check(ctx context.Context, db *gorm.DB, rdb redis.UniversalClient, gw *llm.Gateway) Report {
	report := Report{
		Status:    "healthy",
		Database:  StateConnected,
		Redis:     StateNotConfigured,
		MLService: StateFallbackOnly,
	}

	if err := database.Ping(ctx, db); err != nil {
		report.Database = StateError
		report.Status = "unhealthy"
	}

	if rdb != nil {
		report.Redis = StateConnected
		if err := rdb.Ping(ctx).Err(); err != nil {
			report.Redis = StateError
			if report.Status == "healthy" {
				report.Status = "degraded"
			}
		}
	}

	if gw != nil && gw.Configured() {
		report.MLService = gw.Provider()
	}
	return report
}
