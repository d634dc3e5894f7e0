package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
)

// HealthCheck reports the readiness of one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

const healthCheckTimeout = 2 * time.Second

func HealthHandler(log *logger.Logger, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"check":  c.Name,
					"action": "health_check",
				}).Warnf("health check failed: %v", err)
				status[c.Name] = "unavailable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[c.Name] = "ok"
		}

		WriteJSON(w, code, status)
	}
}
