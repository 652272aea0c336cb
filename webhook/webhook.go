// Package webhook composes the outbound payload delivered to subscribers.
package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/dispatch/event"
)

// Fields selects which common webhook fields are embedded in the composed
// payload. Values combine as bit flags.
type Fields int

const (
	// FieldNone embeds no common fields, only the event data.
	FieldNone Fields = 0

	// FieldName embeds the subscription name.
	FieldName Fields = 1 << iota

	// FieldEventID embeds the event identifier.
	FieldEventID

	// FieldEventType embeds the event type name.
	FieldEventType

	// FieldTimestamp embeds the event timestamp.
	FieldTimestamp

	// FieldAll embeds every common field.
	FieldAll = FieldName | FieldEventID | FieldEventType | FieldTimestamp
)

// Has reports whether all flags in mask are set.
func (f Fields) Has(mask Fields) bool {
	return f&mask == mask
}

// EnrichmentKey is the conventional payload key enrichment data is embedded
// under.
const EnrichmentKey = "extra"

// payload is the composed body. Field order is fixed by the struct so
// identical inputs always marshal to byte-identical output; map-valued
// fields marshal with sorted keys. The signer depends on this determinism.
type payload struct {
	Name      string         `json:"name,omitempty"`
	EventID   string         `json:"event_id,omitempty"`
	EventType string         `json:"event_type,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Composer builds outbound webhook bodies from events.
type Composer struct {
	fields Fields
}

// NewComposer creates a composer embedding the given field set.
func NewComposer(fields Fields) *Composer {
	return &Composer{fields: fields}
}

// Fields returns the configured field set.
func (c *Composer) Fields() Fields { return c.fields }

// Compose builds the outbound body for one subscription. Composition is
// pure: identical (event, fields, enrichment, name) inputs yield
// byte-identical output.
func (c *Composer) Compose(name string, evt *event.Info, enrichment map[string]any) ([]byte, error) {
	p := payload{
		Data:  evt.Data,
		Extra: enrichment,
	}

	if c.fields.Has(FieldName) {
		p.Name = name
	}
	if c.fields.Has(FieldEventID) {
		p.EventID = evt.ID.String()
	}
	if c.fields.Has(FieldEventType) {
		p.EventType = evt.Type
	}
	if c.fields.Has(FieldTimestamp) {
		ts := evt.OccurredAt().Truncate(time.Millisecond)
		p.Timestamp = &ts
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("webhook: compose payload: %w", err)
	}
	return body, nil
}
