// Package filter evaluates subscription filter expressions against events.
//
// Evaluators are pluggable per expression dialect: the Registry maps a
// format tag to an Evaluator implementation, resolved with a single lookup.
// The wildcard filter always matches without invoking any evaluator, and
// evaluator failures count as non-matches for that filter, so a
// malformed expression never causes a spurious delivery or aborts the
// notification.
package filter

import (
	"context"
	"fmt"

	"github.com/xraph/dispatch/event"
	"github.com/xraph/dispatch/subscription"
)

// Evaluator decides whether an event matches a filter expression in one
// specific dialect.
type Evaluator interface {
	// Matches evaluates the expression against the event. A non-nil error
	// means the expression could not be evaluated; callers treat that as a
	// non-match.
	Matches(ctx context.Context, expression string, evt *event.Info) (bool, error)
}

// Registry resolves filter evaluators by format tag.
type Registry struct {
	evaluators map[string]Evaluator
}

// NewRegistry creates a registry with the given evaluators, keyed by the
// format tag they handle. Registration happens once at startup; the
// registry is read-only afterwards and safe for concurrent use.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]Evaluator)}
}

// Register binds an evaluator to a format tag, replacing any previous
// binding for that tag.
func (r *Registry) Register(format string, ev Evaluator) {
	r.evaluators[format] = ev
}

// Evaluator returns the evaluator bound to the format tag, if any.
func (r *Registry) Evaluator(format string) (Evaluator, bool) {
	ev, ok := r.evaluators[format]
	return ev, ok
}

// Matches evaluates a single filter against an event.
// Wildcard filters match unconditionally. An unknown format is an error.
func (r *Registry) Matches(ctx context.Context, f subscription.Filter, evt *event.Info) (bool, error) {
	if f.IsWildcard() {
		return true, nil
	}

	ev, ok := r.evaluators[f.Format]
	if !ok {
		return false, fmt.Errorf("filter: no evaluator for format %q", f.Format)
	}

	return ev.Matches(ctx, f.Expression, evt)
}

// Match applies the subscription filter policy to an event:
//
//   - an empty filter list matches unconditionally (the event type match
//     alone suffices);
//   - a wildcard filter matches, short-circuiting the remaining filters;
//   - otherwise the filters combine with OR: any one matching triggers
//     delivery.
//
// Evaluation failures demote the failing filter to a non-match and are
// returned as warnings, never as an error.
func (r *Registry) Match(ctx context.Context, filters []subscription.Filter, evt *event.Info) (bool, []string) {
	if len(filters) == 0 {
		return true, nil
	}

	var warnings []string
	for _, f := range filters {
		ok, err := r.Matches(ctx, f, evt)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("filter %q (%s): %v", f.Expression, f.Format, err))
			continue
		}
		if ok {
			return true, warnings
		}
	}
	return false, warnings
}

// env builds the evaluation environment exposed to expression dialects.
func env(evt *event.Info) map[string]any {
	return map[string]any{
		"event": map[string]any{
			"id":        evt.ID.String(),
			"type":      evt.Type,
			"tenant_id": evt.TenantID,
			"timestamp": evt.OccurredAt(),
		},
		"data": evt.Data,
	}
}
