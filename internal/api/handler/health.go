package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/recruitai/internal/api/response"
)

// Pinger is anything whose connectivity can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// NewHealthHandler checks database and cache connectivity. A nil cache is
// reported as disabled rather than degraded.
func NewHealthHandler(db Pinger, c Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}
		if err := db.Ping(ctx); err != nil {
			checks["database"] = "degraded"
		}
		if c == nil {
			checks["cache"] = "disabled"
		} else if err := c.Ping(ctx); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["database"] == "degraded" || checks["cache"] == "degraded" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}
		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
