package delivery

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/observability"
	"github.com/xraph/dispatch/ratelimit"
)

// ExecutorConfig holds executor configuration.
type ExecutorConfig struct {
	// MaxInFlight bounds concurrent deliveries during one fan-out.
	MaxInFlight int

	// Backoff is the wait policy between retry attempts.
	Backoff Backoff

	// Metrics and Tracer are optional instrumentation hooks.
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// Executor delivers webhooks to subscriptions, retrying failed attempts and
// isolating failures: one subscription's exhaustion or error never blocks
// or fails another's.
type Executor struct {
	sender  *Sender
	limiter *ratelimit.Limiter
	config  ExecutorConfig
	logger  *slog.Logger
}

// NewExecutor creates a delivery executor.
func NewExecutor(sender *Sender, limiter *ratelimit.Limiter, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	if cfg.Backoff == nil {
		cfg.Backoff = ExponentialBackoff{}
	}
	return &Executor{
		sender:  sender,
		limiter: limiter,
		config:  cfg,
		logger:  logger,
	}
}

// Deliver sends one request, retrying up to the subscription's RetryCount
// additional times. Success is any 2xx response. Cancellation aborts the
// current attempt and any pending backoff wait immediately, producing a
// distinct cancelled result rather than a failure.
func (e *Executor) Deliver(ctx context.Context, req Request) Result {
	sub := req.Subscription
	if req.DeliveryID.IsNil() {
		req.DeliveryID = id.NewDeliveryID()
	}
	res := Result{DeliveryID: req.DeliveryID, SubscriptionID: sub.ID}

	var span trace.Span
	if e.config.Tracer != nil {
		ctx, span = e.config.Tracer.StartDeliverySpan(ctx, sub.ID.String(), req.EventID.String())
		defer func() {
			e.config.Tracer.EndDeliverySpan(span, res.StatusCode, res.Attempts, res.Error)
		}()
	}

	maxAttempts := sub.RetryCount + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Cancelled = true
			res.Error = err.Error()
			return res
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx, sub.ID.String(), sub.RateLimit); err != nil {
				res.Cancelled = true
				res.Error = err.Error()
				return res
			}
		}

		attemptRes := e.sender.send(ctx, req, attempt)
		res.Attempts = attempt
		res.StatusCode = attemptRes.StatusCode
		res.Response = attemptRes.Response
		res.LatencyMs = attemptRes.LatencyMs
		res.Error = attemptRes.Error

		latencySeconds := float64(attemptRes.LatencyMs) / 1000.0

		if attemptRes.ok() {
			res.Success = true
			res.Error = ""
			if e.config.Metrics != nil {
				e.config.Metrics.RecordDelivery("delivered", latencySeconds)
			}
			e.logger.DebugContext(ctx, "delivered",
				"subscription_id", sub.ID, "status", attemptRes.StatusCode,
				"attempt", attempt, "latency_ms", attemptRes.LatencyMs)
			return res
		}

		// A transport error caused by cancellation is a cancelled outcome,
		// not a failed one.
		if ctx.Err() != nil {
			res.Cancelled = true
			res.Error = ctx.Err().Error()
			if e.config.Metrics != nil {
				e.config.Metrics.RecordDelivery("cancelled", latencySeconds)
			}
			return res
		}

		if attempt == maxAttempts {
			break
		}

		if e.config.Metrics != nil {
			e.config.Metrics.RecordDelivery("retried", latencySeconds)
		}
		e.logger.DebugContext(ctx, "retrying delivery",
			"subscription_id", sub.ID, "attempt", attempt,
			"status", attemptRes.StatusCode, "error", attemptRes.Error)

		if err := sleep(ctx, e.config.Backoff.Delay(attempt)); err != nil {
			res.Cancelled = true
			res.Error = err.Error()
			return res
		}
	}

	if e.config.Metrics != nil {
		e.config.Metrics.RecordDelivery("failed", float64(res.LatencyMs)/1000.0)
	}
	e.logger.WarnContext(ctx, "delivery failed permanently",
		"subscription_id", sub.ID, "attempts", res.Attempts,
		"status", res.StatusCode, "error", res.Error)

	return res
}

// DeliverAll fans the requests out concurrently, one goroutine per
// subscription bounded by MaxInFlight, and returns one result per request
// in request order. Results are written to disjoint slots, so no locking
// is needed among concurrent deliveries.
func (e *Executor) DeliverAll(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	sem := make(chan struct{}, e.config.MaxInFlight)
	var wg sync.WaitGroup

	for i, req := range reqs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Mark this and the remaining requests cancelled.
			for j := i; j < len(reqs); j++ {
				results[j] = Result{
					DeliveryID:     reqs[j].DeliveryID,
					SubscriptionID: reqs[j].Subscription.ID,
					Cancelled:      true,
					Error:          ctx.Err().Error(),
				}
			}
			wg.Wait()
			return results
		}

		wg.Add(1)
		if e.config.Metrics != nil {
			e.config.Metrics.InFlightDeliveries.Inc()
		}
		go func(slot int, r Request) {
			defer wg.Done()
			defer func() { <-sem }()
			if e.config.Metrics != nil {
				defer e.config.Metrics.InFlightDeliveries.Dec()
			}
			results[slot] = e.Deliver(ctx, r)
		}(i, req)
	}

	wg.Wait()
	return results
}
