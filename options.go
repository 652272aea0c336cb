package dispatch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/dispatch/delivery"
	"github.com/xraph/dispatch/enrich"
	"github.com/xraph/dispatch/filter"
	"github.com/xraph/dispatch/observability"
	"github.com/xraph/dispatch/store"
	"github.com/xraph/dispatch/webhook"
)

// Option configures a Notifier instance.
type Option func(*Notifier) error

// WithStore sets the persistence backend for the Notifier instance.
func WithStore(s store.Store) Option {
	return func(n *Notifier) error {
		n.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Notifier instance.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) error {
		n.logger = logger
		return nil
	}
}

// WithMaxInFlight bounds concurrent deliveries during one fan-out.
func WithMaxInFlight(limit int) Option {
	return func(n *Notifier) error {
		n.config.MaxInFlight = limit
		return nil
	}
}

// WithRequestTimeout sets the HTTP timeout per delivery attempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(n *Notifier) error {
		n.config.RequestTimeout = d
		return nil
	}
}

// WithBackoff sets the wait policy between retry attempts.
func WithBackoff(b delivery.Backoff) Option {
	return func(n *Notifier) error {
		n.config.Backoff = b
		return nil
	}
}

// WithFields selects the common webhook fields embedded in composed
// payloads.
func WithFields(fields webhook.Fields) Option {
	return func(n *Notifier) error {
		n.config.Fields = fields
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for deliveries, replacing the
// default timeout-bound client.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Notifier) error {
		n.httpClient = client
		return nil
	}
}

// WithFilterEvaluator binds a filter evaluator to a format tag, replacing
// the built-in evaluator for that tag if any.
func WithFilterEvaluator(format string, ev filter.Evaluator) Option {
	return func(n *Notifier) error {
		n.evaluators[format] = ev
		return nil
	}
}

// WithEnricher registers a payload enricher. Enrichers run in registration
// order for every event whose type they apply to.
func WithEnricher(en enrich.Enricher) Option {
	return func(n *Notifier) error {
		n.enrichers = append(n.enrichers, en)
		return nil
	}
}

// WithMetrics sets the metrics instruments for the Notifier instance.
func WithMetrics(m *observability.Metrics) Option {
	return func(n *Notifier) error {
		n.metrics = m
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the Notifier instance.
func WithTracer(t *observability.Tracer) Option {
	return func(n *Notifier) error {
		n.tracer = t
		return nil
	}
}
