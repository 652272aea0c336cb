package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/dispatch/delivery"
	"github.com/xraph/dispatch/enrich"
	"github.com/xraph/dispatch/event"
	"github.com/xraph/dispatch/filter"
	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/observability"
	"github.com/xraph/dispatch/ratelimit"
	"github.com/xraph/dispatch/signature"
	"github.com/xraph/dispatch/store"
	"github.com/xraph/dispatch/subscription"
	"github.com/xraph/dispatch/webhook"
)

// Notifier is the main entry point for dispatch. It owns the notification
// pipeline (resolve, filter, enrich, compose, sign, deliver) and the
// administrative subscription lifecycle, all over a single pluggable store.
type Notifier struct {
	store      store.Store
	logger     *slog.Logger
	config     Config
	httpClient *http.Client
	evaluators map[string]filter.Evaluator
	enrichers  []enrich.Enricher
	metrics    *observability.Metrics
	tracer     *observability.Tracer

	subs     *subscription.Manager
	resolver *subscription.Resolver
	filters  *filter.Registry
	composer *webhook.Composer
	signer   *signature.Signer
	executor *delivery.Executor
}

// New creates a Notifier with the given options. A store is required; every
// other dependency has a working default.
func New(opts ...Option) (*Notifier, error) {
	n := &Notifier{
		logger:     slog.Default(),
		config:     DefaultConfig(),
		evaluators: make(map[string]filter.Evaluator),
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	if n.store == nil {
		return nil, ErrNoStore
	}

	n.wireServices()
	return n, nil
}

// wireServices assembles the pipeline stages from the resolved configuration.
func (n *Notifier) wireServices() {
	n.subs = subscription.NewManager(n.store, n.logger)
	n.resolver = subscription.NewResolver(n.store)

	n.filters = filter.NewRegistry()
	n.filters.Register(filter.FormatExpr, filter.NewExprEvaluator())
	n.filters.Register(filter.FormatJSONSchema, filter.NewSchemaEvaluator())
	for format, ev := range n.evaluators {
		n.filters.Register(format, ev)
	}

	n.composer = webhook.NewComposer(n.config.Fields)
	n.signer = signature.NewSigner()

	sender := delivery.NewSender(n.config.RequestTimeout)
	if n.httpClient != nil {
		sender = delivery.NewSenderWithClient(n.httpClient)
	}

	n.executor = delivery.NewExecutor(sender, ratelimit.New(), delivery.ExecutorConfig{
		MaxInFlight: n.config.MaxInFlight,
		Backoff:     n.config.Backoff,
		Metrics:     n.metrics,
		Tracer:      n.tracer,
	}, n.logger)
}

// Subscriptions returns the administrative subscription lifecycle manager.
func (n *Notifier) Subscriptions() *subscription.Manager {
	return n.subs
}

// Store returns the underlying persistence backend.
func (n *Notifier) Store() store.Store {
	return n.store
}

// Close releases the underlying store.
func (n *Notifier) Close() error {
	return n.store.Close()
}

// Notify fans the event out to every matching active subscription of the
// tenant and blocks until all deliveries reach a terminal state. The call
// returns one aggregate Result; per-subscription failures are reported in
// it, never as the function error. The error return is reserved for
// pipeline-level problems (invalid input, store failure).
func (n *Notifier) Notify(ctx context.Context, tenantID string, evt *event.Info) (*Result, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	if evt == nil || evt.Type == "" {
		return nil, ErrEventTypeRequired
	}

	if evt.ID.IsNil() {
		evt.ID = id.NewEventID()
	}
	if evt.TenantID == "" {
		evt.TenantID = tenantID
	}
	// Snapshot the timestamp once so every composed payload and filter
	// evaluation for this event sees the same instant. Composition must be
	// byte-identical across subscriptions; the signer depends on it.
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	return n.notify(ctx, tenantID, evt)
}

func (n *Notifier) notify(ctx context.Context, tenantID string, evt *event.Info) (*Result, error) {
	if n.tracer != nil {
		spanCtx, span := n.tracer.StartNotifySpan(ctx, tenantID, evt.ID.String(), evt.Type)
		ctx = spanCtx
		defer span.End()
	}

	candidates, err := n.resolver.Resolve(ctx, tenantID, evt.Type, true)
	if err != nil {
		return nil, err
	}

	res := &Result{EventID: evt.ID}

	var matched []*subscription.Subscription
	for _, sub := range candidates {
		ok, warnings := n.filters.Match(ctx, sub.Filters, evt)
		res.Warnings = append(res.Warnings, warnings...)
		if len(warnings) > 0 {
			n.logger.WarnContext(ctx, "filter evaluation problems",
				"tenant_id", tenantID, "subscription_id", sub.ID,
				"event_id", evt.ID, "warnings", warnings)
		}
		if ok {
			matched = append(matched, sub)
		}
	}

	if len(matched) == 0 {
		res.Outcome = OutcomeNoSubscribers
		if n.metrics != nil {
			n.metrics.RecordNotification(string(res.Outcome))
		}
		n.logger.InfoContext(ctx, "no subscribers for event",
			"tenant_id", tenantID, "event_id", evt.ID, "event_type", evt.Type,
			"candidates", len(candidates))
		return res, nil
	}

	// Enrichment is per event, not per subscription: every matched
	// subscription sees the same supplemental data.
	enrichment, warnings := enrich.Apply(ctx, n.enrichers, evt)
	res.Warnings = append(res.Warnings, warnings...)
	if len(warnings) > 0 {
		n.logger.WarnContext(ctx, "enrichment problems",
			"tenant_id", tenantID, "event_id", evt.ID, "warnings", warnings)
	}

	reqs := make([]delivery.Request, 0, len(matched))
	for _, sub := range matched {
		body, err := n.composer.Compose(sub.Name, evt, enrichment)
		if err != nil {
			return nil, err
		}

		var sig string
		if sub.Secret != "" {
			sig = n.signer.Sign(body, sub.Secret)
		}

		reqs = append(reqs, delivery.Request{
			Subscription: sub,
			EventID:      evt.ID,
			EventType:    evt.Type,
			Body:         body,
			Signature:    sig,
		})
	}

	res.Deliveries = n.executor.DeliverAll(ctx, reqs)
	res.Outcome = deriveOutcome(res.Deliveries)

	if n.metrics != nil {
		n.metrics.RecordNotification(string(res.Outcome))
	}
	n.logger.InfoContext(ctx, "notification completed",
		"tenant_id", tenantID, "event_id", evt.ID, "event_type", evt.Type,
		"outcome", res.Outcome, "matched", len(matched),
		"succeeded", res.Successful(), "failed", res.Failed())

	return res, nil
}
