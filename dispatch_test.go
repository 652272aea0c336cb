package dispatch_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/dispatch"
	"github.com/xraph/dispatch/delivery"
	"github.com/xraph/dispatch/enrich"
	"github.com/xraph/dispatch/event"
	"github.com/xraph/dispatch/signature"
	"github.com/xraph/dispatch/store/memory"
	"github.com/xraph/dispatch/subscription"
)

func newNotifier(t *testing.T, opts ...dispatch.Option) *dispatch.Notifier {
	t.Helper()
	opts = append([]dispatch.Option{
		dispatch.WithStore(memory.New()),
		dispatch.WithBackoff(delivery.ConstantBackoff(time.Millisecond)),
	}, opts...)
	n, err := dispatch.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func addSubscription(t *testing.T, n *dispatch.Notifier, tenantID, url string, mutate func(*subscription.Input)) {
	t.Helper()
	in := subscription.Input{
		Name:           "test hooks",
		EventTypes:     []string{"order.*"},
		DestinationURL: url,
		Active:         true,
	}
	if mutate != nil {
		mutate(&in)
	}
	if _, err := n.Subscriptions().Add(context.Background(), tenantID, "user-1", in); err != nil {
		t.Fatal(err)
	}
}

func enrichFunc(eventType string, data map[string]any) enrich.Enricher {
	return enrich.Func{
		Applies: func(et string) bool { return et == eventType },
		Create: func(context.Context, *event.Info) (map[string]any, error) {
			return data, nil
		},
	}
}

func orderEvent() *event.Info {
	return &event.Info{
		Type: "order.created",
		Data: map[string]any{"order_id": "ord_42", "amount": 150.0},
	}
}

func TestNewRequiresStore(t *testing.T) {
	_, err := dispatch.New()
	if !errors.Is(err, dispatch.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestNotifyValidation(t *testing.T) {
	n := newNotifier(t)

	_, err := n.Notify(context.Background(), "", orderEvent())
	if !errors.Is(err, dispatch.ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}

	_, err = n.Notify(context.Background(), "t1", &event.Info{})
	if !errors.Is(err, dispatch.ErrEventTypeRequired) {
		t.Fatalf("expected ErrEventTypeRequired, got %v", err)
	}

	_, err = n.Notify(context.Background(), "t1", nil)
	if !errors.Is(err, dispatch.ErrEventTypeRequired) {
		t.Fatalf("expected ErrEventTypeRequired for nil event, got %v", err)
	}
}

func TestNotifyNoSubscribers(t *testing.T) {
	n := newNotifier(t)

	res, err := n.Notify(context.Background(), "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeNoSubscribers {
		t.Fatalf("expected no_subscribers, got %s", res.Outcome)
	}
	if len(res.Deliveries) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(res.Deliveries))
	}
	if res.EventID.IsNil() {
		t.Fatal("expected event ID assigned")
	}
}

func TestNotifyDelivers(t *testing.T) {
	var receivedBody []byte
	var receivedSig string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedBody, _ = io.ReadAll(r.Body)
		receivedSig = r.Header.Get(signature.Header)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newNotifier(t)
	secret := signature.GenerateSecret()
	addSubscription(t, n, "t1", srv.URL, func(in *subscription.Input) {
		in.Secret = secret
	})

	res, err := n.Notify(context.Background(), "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeAllDelivered {
		t.Fatalf("expected all_delivered, got %s (%+v)", res.Outcome, res.Deliveries)
	}
	if len(res.Deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(res.Deliveries))
	}
	if res.Deliveries[0].Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", res.Deliveries[0].Attempts)
	}

	// The signature verifies over exactly the bytes received.
	if !signature.Verify(receivedBody, secret, receivedSig) {
		t.Fatal("signature did not verify over received body")
	}

	var payload map[string]any
	if err := json.Unmarshal(receivedBody, &payload); err != nil {
		t.Fatal(err)
	}
	if payload["event_type"] != "order.created" {
		t.Fatalf("payload event_type: %v", payload["event_type"])
	}
	data, _ := payload["data"].(map[string]any)
	if data["order_id"] != "ord_42" {
		t.Fatalf("payload data: %v", payload["data"])
	}
}

func TestNotifyComposesIdenticalBodies(t *testing.T) {
	var first, second []byte

	firstSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer firstSrv.Close()

	secondSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		second, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer secondSrv.Close()

	n := newNotifier(t)
	addSubscription(t, n, "t1", firstSrv.URL, nil)
	addSubscription(t, n, "t1", secondSrv.URL, nil)

	// Leave the timestamp unset: Notify must pin it once so both
	// subscriptions see the same instant and byte-identical payloads.
	evt := orderEvent()
	if !evt.Timestamp.IsZero() {
		t.Fatal("test event should start with a zero timestamp")
	}

	res, err := n.Notify(context.Background(), "t1", evt)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeAllDelivered {
		t.Fatalf("expected all_delivered, got %s", res.Outcome)
	}

	if evt.Timestamp.IsZero() {
		t.Fatal("expected event timestamp pinned during notify")
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("subscriptions received different bodies:\n%s\n%s", first, second)
	}
}

func TestNotifyRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newNotifier(t)
	addSubscription(t, n, "t1", srv.URL, func(in *subscription.Input) {
		in.RetryCount = 2
	})

	res, err := n.Notify(context.Background(), "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeAllDelivered {
		t.Fatalf("expected all_delivered, got %s", res.Outcome)
	}
	if res.Deliveries[0].Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", res.Deliveries[0].Attempts)
	}
}

func TestNotifyPartialFailure(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okSrv.Close()

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failSrv.Close()

	n := newNotifier(t)
	addSubscription(t, n, "t1", okSrv.URL, nil)
	addSubscription(t, n, "t1", failSrv.URL, nil)

	res, err := n.Notify(context.Background(), "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomePartialFailure {
		t.Fatalf("expected partial_failure, got %s", res.Outcome)
	}
	if res.Successful() != 1 || res.Failed() != 1 {
		t.Fatalf("expected 1 success and 1 failure, got %d/%d", res.Successful(), res.Failed())
	}
}

func TestNotifyAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := newNotifier(t)
	addSubscription(t, n, "t1", srv.URL, nil)

	res, err := n.Notify(context.Background(), "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeAllFailed {
		t.Fatalf("expected all_failed, got %s", res.Outcome)
	}
}

func TestNotifySkipsSuspended(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newNotifier(t)
	addSubscription(t, n, "t1", srv.URL, func(in *subscription.Input) {
		in.Active = false
	})

	res, err := n.Notify(context.Background(), "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeNoSubscribers {
		t.Fatalf("expected no_subscribers, got %s", res.Outcome)
	}
	if calls.Load() != 0 {
		t.Fatal("inactive subscription must not receive deliveries")
	}
}

func TestNotifyTenantIsolation(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newNotifier(t)
	addSubscription(t, n, "t1", srv.URL, nil)

	res, err := n.Notify(context.Background(), "t2", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeNoSubscribers {
		t.Fatalf("expected no_subscribers across tenants, got %s", res.Outcome)
	}
	if calls.Load() != 0 {
		t.Fatal("another tenant's subscription must not receive deliveries")
	}
}

func TestNotifyExprFilter(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newNotifier(t)
	addSubscription(t, n, "t1", srv.URL, func(in *subscription.Input) {
		in.Filters = []subscription.Filter{
			{Expression: `data.amount > 1000`, Format: "expr"},
		}
	})

	// Below the filter threshold: no delivery.
	res, err := n.Notify(context.Background(), "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeNoSubscribers {
		t.Fatalf("expected filtered event to have no subscribers, got %s", res.Outcome)
	}
	if calls.Load() != 0 {
		t.Fatal("filtered event must not be delivered")
	}

	// Above the threshold: delivered.
	big := orderEvent()
	big.Data["amount"] = 5000.0
	res, err = n.Notify(context.Background(), "t1", big)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeAllDelivered {
		t.Fatalf("expected delivery, got %s", res.Outcome)
	}
}

func TestNotifyFilterFailureIsWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newNotifier(t)
	addSubscription(t, n, "t1", srv.URL, func(in *subscription.Input) {
		in.Filters = []subscription.Filter{
			{Expression: `data.amount >`, Format: "expr"}, // malformed
		}
	})

	res, err := n.Notify(context.Background(), "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	// Fail-safe: the broken filter demotes to a non-match, never an error.
	if res.Outcome != dispatch.OutcomeNoSubscribers {
		t.Fatalf("expected no_subscribers, got %s", res.Outcome)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected a warning for the malformed filter")
	}
}

func TestNotifyEnrichment(t *testing.T) {
	var receivedBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	enricher := enrichFunc("order.created", map[string]any{"customer_name": "Acme"})

	n := newNotifier(t, dispatch.WithEnricher(enricher))
	addSubscription(t, n, "t1", srv.URL, nil)

	res, err := n.Notify(context.Background(), "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != dispatch.OutcomeAllDelivered {
		t.Fatalf("expected all_delivered, got %s", res.Outcome)
	}

	var payload map[string]any
	if err := json.Unmarshal(receivedBody, &payload); err != nil {
		t.Fatal(err)
	}
	extra, _ := payload["extra"].(map[string]any)
	if extra["customer_name"] != "Acme" {
		t.Fatalf("expected enrichment in payload, got %v", payload["extra"])
	}
}

func TestNotifyCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newNotifier(t, dispatch.WithBackoff(delivery.ConstantBackoff(time.Minute)))
	addSubscription(t, n, "t1", srv.URL, func(in *subscription.Input) {
		in.RetryCount = 5
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	res, err := n.Notify(ctx, "t1", orderEvent())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Deliveries) != 1 {
		t.Fatalf("expected 1 delivery result, got %d", len(res.Deliveries))
	}
	if !res.Deliveries[0].Cancelled {
		t.Fatalf("expected cancelled delivery, got %+v", res.Deliveries[0])
	}
}
