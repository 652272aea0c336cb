// Package enrich supplies supplemental payload data for events before
// composition.
//
// Enrichers are pluggable, zero or more per Notifier. Every enricher whose
// AppliesTo matches the event type contributes data merged into the outbound
// payload. An enricher failure demotes the payload (the enrichment is
// omitted and the failure recorded as a warning) and never fails delivery.
package enrich

import (
	"context"
	"fmt"

	"github.com/xraph/dispatch/event"
)

// Enricher supplies additional payload data for a given event type.
type Enricher interface {
	// AppliesTo reports whether the enricher contributes data for events
	// of the given type.
	AppliesTo(eventType string) bool

	// CreateData builds the supplemental data for the event.
	CreateData(ctx context.Context, evt *event.Info) (map[string]any, error)
}

// Apply runs every applicable enricher against the event and merges the
// results. Later enrichers win on key collisions. Failures are returned as
// warnings alongside whatever data was produced.
func Apply(ctx context.Context, enrichers []Enricher, evt *event.Info) (map[string]any, []string) {
	var (
		merged   map[string]any
		warnings []string
	)

	for _, en := range enrichers {
		if !en.AppliesTo(evt.Type) {
			continue
		}

		data, err := en.CreateData(ctx, evt)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("enricher %T: %v", en, err))
			continue
		}
		if len(data) == 0 {
			continue
		}

		if merged == nil {
			merged = make(map[string]any, len(data))
		}
		for k, v := range data {
			merged[k] = v
		}
	}

	return merged, warnings
}

// Func adapts a pair of functions into an Enricher.
type Func struct {
	// Applies reports whether the enricher handles the event type.
	Applies func(eventType string) bool

	// Create builds the supplemental data.
	Create func(ctx context.Context, evt *event.Info) (map[string]any, error)
}

// AppliesTo implements Enricher.
func (f Func) AppliesTo(eventType string) bool {
	if f.Applies == nil {
		return false
	}
	return f.Applies(eventType)
}

// CreateData implements Enricher.
func (f Func) CreateData(ctx context.Context, evt *event.Info) (map[string]any, error) {
	if f.Create == nil {
		return nil, nil
	}
	return f.Create(ctx, evt)
}
