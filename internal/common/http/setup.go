package http

import (
	"net/http"

	"github.com/AlibekovAA/shotplot/backend/internal/common/constants"
	"github.com/AlibekovAA/shotplot/backend/internal/common/httpmetrics"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
)

// BuildBaseHandler wraps handler in the standard middleware chain.
func BuildBaseHandler(service string, log *logger.Logger, handler http.Handler) http.Handler {
	collector := httpmetrics.New(service)
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)

	return SecurityHeadersMiddleware(recovery(TraceIDMiddleware(maxRequestSize(collector.Wrap(handler)))))
}

// BuildStreamHandler is BuildBaseHandler without the body limit and metrics
// recorder, for routes that hijack the connection.
func BuildStreamHandler(log *logger.Logger, handler http.Handler) http.Handler {
	return RecoveryMiddleware(log)(TraceIDMiddleware(handler))
}
