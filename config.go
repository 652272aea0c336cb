package dispatch

import (
	"time"

	"github.com/xraph/dispatch/delivery"
	"github.com/xraph/dispatch/webhook"
)

// Config holds the configuration for a Notifier instance.
type Config struct {
	// MaxInFlight bounds concurrent deliveries during one notification
	// fan-out.
	MaxInFlight int

	// RequestTimeout is the HTTP timeout per delivery attempt.
	RequestTimeout time.Duration

	// Backoff is the wait policy between retry attempts. The contract is a
	// monotonically non-decreasing delay; the curve itself is a policy
	// decision.
	Backoff delivery.Backoff

	// Fields selects the common webhook fields embedded in every composed
	// payload.
	Fields webhook.Fields
}

// DefaultBackoff is the default retry backoff: exponential from 500ms
// doubling up to 30s.
var DefaultBackoff = delivery.ExponentialBackoff{
	Initial: 500 * time.Millisecond,
	Max:     30 * time.Second,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxInFlight:    10,
		RequestTimeout: 30 * time.Second,
		Backoff:        DefaultBackoff,
		Fields:         webhook.FieldAll,
	}
}
