// Package dispatch provides a composable webhook notification engine for Go.
//
// Dispatch is a library, not a service. Import it into your application to
// get tenant-scoped webhook subscriptions, content filtering, payload
// enrichment, HMAC signing, and concurrent delivery with retry.
//
// Key features:
//   - Tenant-scoped subscription lifecycle (add, enable, disable, remove)
//     with explicit state transitions
//   - Pluggable filter dialects (expr-lang expressions, JSON Schema) with a
//     wildcard short-circuit
//   - Pluggable payload enrichers keyed by event type
//   - Deterministic payload composition with HMAC-SHA256 signing
//   - Bounded concurrent fan-out with per-subscription retry and backoff
//   - Composable store pattern with multiple backends (Postgres, MongoDB,
//     Redis, Memory)
//
// Quick start:
//
//	n, err := dispatch.New(
//	    dispatch.WithStore(memoryStore),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	subID, _ := n.Subscriptions().Add(ctx, "tenant_123", "user_1", subscription.Input{
//	    Name:           "billing hooks",
//	    EventTypes:     []string{"invoice.*"},
//	    DestinationURL: "https://example.com/hooks",
//	    Active:         true,
//	})
//
//	result, _ := n.Notify(ctx, "tenant_123", &event.Info{
//	    Type: "invoice.created",
//	    Data: map[string]any{"invoice_id": "inv_01h..."},
//	})
//	_ = subID
//	_ = result.Outcome
package dispatch
