package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/xraph/dispatch/event"
)

// FormatJSONSchema is the format tag for JSON Schema filters. The filter
// expression is a JSON Schema document; an event matches when its data
// validates against the schema.
const FormatJSONSchema = "jsonschema"

// SchemaEvaluator matches events whose payload validates against a JSON
// Schema given as the filter expression.
type SchemaEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema // keyed by schema JSON content
}

// NewSchemaEvaluator creates a JSON Schema evaluator.
func NewSchemaEvaluator() *SchemaEvaluator {
	return &SchemaEvaluator{
		cache: make(map[string]*jsonschema.Schema),
	}
}

// Matches reports whether the event data validates against the schema.
// A schema that fails to compile is an evaluation error; data that merely
// fails validation is a plain non-match.
func (e *SchemaEvaluator) Matches(_ context.Context, expression string, evt *event.Info) (bool, error) {
	compiled, err := e.compile(expression)
	if err != nil {
		return false, fmt.Errorf("schema compilation error: %w", err)
	}

	// Round-trip through JSON so typed payload values normalize to the
	// generic representation the validator expects.
	raw, err := json.Marshal(evt.Data)
	if err != nil {
		return false, fmt.Errorf("marshal event data: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("unmarshal event data: %w", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return false, nil
	}
	return true, nil
}

// compile returns a compiled schema, using the cache for previously-seen
// schemas.
func (e *SchemaEvaluator) compile(expression string) (*jsonschema.Schema, error) {
	e.mu.RLock()
	if cached, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return cached, nil
	}
	e.mu.RUnlock()

	var doc any
	if err := json.Unmarshal([]byte(expression), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Use a unique URL as the schema resource identifier.
	url := "dispatch://schema/" + sanitizeKey(expression)

	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	e.mu.Lock()
	e.cache[expression] = compiled
	e.mu.Unlock()

	return compiled, nil
}

// sanitizeKey creates a safe URL path segment from a schema key.
func sanitizeKey(key string) string {
	r := strings.NewReplacer(
		`"`, "",
		`{`, "",
		`}`, "",
		` `, "_",
		"\t", "_",
		"\n", "_",
		"\r", "_",
		`:`, "",
	)
	s := r.Replace(key)
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
