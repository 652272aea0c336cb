package webhook_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/xraph/dispatch/event"
	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/webhook"
)

func testEvent() *event.Info {
	return &event.Info{
		ID:        id.MustParse("evt_00000000000000000000000001"),
		Type:      "order.created",
		TenantID:  "t1",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Data: map[string]any{
			"order_id": "ord_42",
			"amount":   150.0,
		},
	}
}

func TestComposeAllFields(t *testing.T) {
	c := webhook.NewComposer(webhook.FieldAll)

	body, err := c.Compose("billing hooks", testEvent(), nil)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}

	if got["name"] != "billing hooks" {
		t.Fatalf("name: %v", got["name"])
	}
	if got["event_id"] != "evt_00000000000000000000000001" {
		t.Fatalf("event_id: %v", got["event_id"])
	}
	if got["event_type"] != "order.created" {
		t.Fatalf("event_type: %v", got["event_type"])
	}
	if got["timestamp"] == nil {
		t.Fatal("missing timestamp")
	}
	data, ok := got["data"].(map[string]any)
	if !ok || data["order_id"] != "ord_42" {
		t.Fatalf("data: %v", got["data"])
	}
}

func TestComposeFieldNone(t *testing.T) {
	c := webhook.NewComposer(webhook.FieldNone)

	body, err := c.Compose("billing hooks", testEvent(), nil)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}

	for _, k := range []string{"name", "event_id", "event_type", "timestamp"} {
		if _, ok := got[k]; ok {
			t.Fatalf("unexpected field %q with FieldNone", k)
		}
	}
	if got["data"] == nil {
		t.Fatal("data should always be present")
	}
}

func TestComposeSelectedFields(t *testing.T) {
	c := webhook.NewComposer(webhook.FieldEventID | webhook.FieldEventType)

	body, err := c.Compose("billing hooks", testEvent(), nil)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}

	if _, ok := got["name"]; ok {
		t.Fatal("name should be omitted")
	}
	if _, ok := got["timestamp"]; ok {
		t.Fatal("timestamp should be omitted")
	}
	if got["event_id"] == nil || got["event_type"] == nil {
		t.Fatal("selected fields missing")
	}
}

func TestComposeEnrichment(t *testing.T) {
	c := webhook.NewComposer(webhook.FieldAll)

	body, err := c.Compose("n", testEvent(), map[string]any{"customer": "c_1"})
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}

	extra, ok := got[webhook.EnrichmentKey].(map[string]any)
	if !ok {
		t.Fatalf("missing %q key: %v", webhook.EnrichmentKey, got)
	}
	if extra["customer"] != "c_1" {
		t.Fatalf("enrichment: %v", extra)
	}
}

func TestComposeDeterministic(t *testing.T) {
	c := webhook.NewComposer(webhook.FieldAll)
	evt := testEvent()
	enrichment := map[string]any{"b": 2, "a": 1, "c": 3}

	first, err := c.Compose("n", evt, enrichment)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		again, err := c.Compose("n", evt, enrichment)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("composition not deterministic:\n%s\n%s", first, again)
		}
	}
}
