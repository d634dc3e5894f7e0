package metrics

import (
	observabilitymetrics "github.com/AlibekovAA/shotplot/backend/internal/observability/metrics"
)

func IncrementActiveWebSocketConnections() {
	observabilitymetrics.ChatWebSocketConnectionsActive.Inc()
	observabilitymetrics.ChatWebSocketConnectionsTotal.Inc()
}

func DecrementActiveWebSocketConnections(reason string) {
	observabilitymetrics.ChatWebSocketConnectionsActive.Dec()
	observabilitymetrics.ChatWebSocketDisconnections.WithLabelValues(reason).Inc()
}

func IncrementWebSocketError(errorType string) {
	observabilitymetrics.ChatWebSocketErrors.WithLabelValues(errorType).Inc()
}

func RecordBroadcast(recipients int) {
	observabilitymetrics.ChatBroadcastsTotal.Inc()
	observabilitymetrics.ChatBroadcastRecipients.Observe(float64(recipients))
}

func IncrementDeliveryFailure(reason string) {
	observabilitymetrics.ChatDeliveryFailures.WithLabelValues(reason).Inc()
}
