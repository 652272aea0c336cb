package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/xraph/dispatch/id"
	"github.com/xraph/dispatch/internal/entity"
	"github.com/xraph/dispatch/store/memory"
	"github.com/xraph/dispatch/subscription"
)

func newSub(tenantID, name string, eventTypes ...string) *subscription.Subscription {
	if len(eventTypes) == 0 {
		eventTypes = []string{"*"}
	}
	return &subscription.Subscription{
		Entity:         entity.New(),
		TenantID:       tenantID,
		Name:           name,
		EventTypes:     eventTypes,
		DestinationURL: "https://example.com/hooks",
		Status:         subscription.StatusActive,
	}
}

func TestCreateAssignsID(t *testing.T) {
	s := memory.New()

	subID, err := s.Create(context.Background(), "t1", newSub("t1", "a"))
	if err != nil {
		t.Fatal(err)
	}
	if subID.IsNil() {
		t.Fatal("expected assigned ID")
	}
	if subID.Prefix() != id.PrefixSubscription {
		t.Fatalf("expected sub prefix, got %q", subID.Prefix())
	}
}

func TestGetByIDMissing(t *testing.T) {
	s := memory.New()

	sub, err := s.GetByID(context.Background(), "t1", id.NewSubscriptionID())
	if err != nil {
		t.Fatal(err)
	}
	if sub != nil {
		t.Fatal("expected (nil, nil) for missing subscription")
	}
}

func TestGetByIDTenantScoped(t *testing.T) {
	s := memory.New()

	subID, _ := s.Create(context.Background(), "t1", newSub("t1", "a"))

	sub, err := s.GetByID(context.Background(), "t2", subID)
	if err != nil {
		t.Fatal(err)
	}
	if sub != nil {
		t.Fatal("expected nil across tenants")
	}
}

func TestGetByEventType(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	_, _ = s.Create(ctx, "t1", newSub("t1", "orders", "order.*"))
	_, _ = s.Create(ctx, "t1", newSub("t1", "everything", "*"))
	_, _ = s.Create(ctx, "t1", newSub("t1", "invoices", "invoice.created"))

	suspended := newSub("t1", "paused", "order.*")
	suspended.Status = subscription.StatusSuspended
	_, _ = s.Create(ctx, "t1", suspended)

	subs, err := s.GetByEventType(ctx, "t1", "order.created", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 active matches, got %d", len(subs))
	}
	// Creation order preserved.
	if subs[0].Name != "orders" || subs[1].Name != "everything" {
		t.Fatalf("unexpected order: %s, %s", subs[0].Name, subs[1].Name)
	}

	// Including suspended subscriptions.
	subs, err = s.GetByEventType(ctx, "t1", "order.created", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 3 {
		t.Fatalf("expected 3 matches including suspended, got %d", len(subs))
	}
}

func TestUpdate(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	subID, _ := s.Create(ctx, "t1", newSub("t1", "a"))

	sub, _ := s.GetByID(ctx, "t1", subID)
	sub.Name = "renamed"

	updated, err := s.Update(ctx, "t1", sub)
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Fatal("expected update to report true")
	}

	got, _ := s.GetByID(ctx, "t1", subID)
	if got.Name != "renamed" {
		t.Fatalf("update not persisted: %q", got.Name)
	}
}

func TestUpdateMissing(t *testing.T) {
	s := memory.New()

	sub := newSub("t1", "ghost")
	sub.ID = id.NewSubscriptionID()

	updated, err := s.Update(context.Background(), "t1", sub)
	if err != nil {
		t.Fatal(err)
	}
	if updated {
		t.Fatal("expected false for missing subscription")
	}
}

func TestReadIsolation(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	subID, _ := s.Create(ctx, "t1", newSub("t1", "a"))

	// Mutating a read copy must not leak into the store without Update.
	sub, _ := s.GetByID(ctx, "t1", subID)
	sub.Name = "mutated"

	got, _ := s.GetByID(ctx, "t1", subID)
	if got.Name != "a" {
		t.Fatalf("read copy mutation leaked into store: %q", got.Name)
	}
}

func TestDelete(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	subID, _ := s.Create(ctx, "t1", newSub("t1", "a"))

	deleted, err := s.Delete(ctx, "t1", subID)
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Fatal("expected delete to report true")
	}

	deleted, _ = s.Delete(ctx, "t1", subID)
	if deleted {
		t.Fatal("expected false on repeated delete")
	}
}

func TestGetPage(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, _ = s.Create(ctx, "t1", newSub("t1", fmt.Sprintf("sub-%d", i)))
	}

	items, total, err := s.GetPage(ctx, "t1", subscription.PageQuery{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatal(err)
	}
	if total != 7 {
		t.Fatalf("expected total 7, got %d", total)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Name != "sub-3" {
		t.Fatalf("expected sub-3 first on page 2, got %q", items[0].Name)
	}
}

func TestPingAfterClose(t *testing.T) {
	s := memory.New()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error after close")
	}
}
