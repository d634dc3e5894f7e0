package service

import (
	"github.com/AlibekovAA/shotplot/backend/internal/observability/metrics"
)

const (
	resultSuccess     = "success"
	resultInvalid     = "invalid"
	resultConflict    = "conflict"
	resultFailed      = "failed"
	resultUnavailable = "unavailable"
)

func incrementRegistrations(result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}

func incrementLogins(result string) {
	metrics.LoginsTotal.WithLabelValues(result).Inc()
}
