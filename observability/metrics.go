package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds metric instruments for dispatch, backed by any go-utils
// MetricFactory.
type Metrics struct {
	NotificationsTotal gu.Counter
	DeliveriesTotal    gu.Counter
	DeliveryLatency    gu.Histogram
	InFlightDeliveries gu.Gauge
}

// NewMetrics creates dispatch metric instruments using the supplied factory.
// Use metrics.NewMetricsCollector() for standalone usage.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		NotificationsTotal: factory.Counter("dispatch_notifications_total"),
		DeliveriesTotal:    factory.Counter("dispatch_deliveries_total"),
		DeliveryLatency:    factory.Histogram("dispatch_delivery_latency_seconds"),
		InFlightDeliveries: factory.Gauge("dispatch_in_flight_deliveries"),
	}
}

// RecordDelivery records a delivery attempt with the given status and latency.
func (m *Metrics) RecordDelivery(status string, latencySeconds float64) {
	m.DeliveriesTotal.WithLabels(map[string]string{"status": status}).Inc()
	m.DeliveryLatency.Observe(latencySeconds)
}

// RecordNotification records one Notify call with its overall outcome.
func (m *Metrics) RecordNotification(outcome string) {
	m.NotificationsTotal.WithLabels(map[string]string{"outcome": outcome}).Inc()
}
