package subscription

// WildcardExpression is the distinguished filter expression that matches
// every event, regardless of payload content.
const WildcardExpression = "*"

// Filter is an expression evaluated against an event instance to decide
// whether it should be delivered to a subscription.
type Filter struct {
	// Expression is the filter expression, in the dialect named by Format.
	Expression string `json:"expression"`

	// Format identifies the expression dialect (e.g. "expr", "jsonschema").
	Format string `json:"format"`
}

// Wildcard returns the distinguished filter that always matches.
func Wildcard() Filter {
	return Filter{Expression: WildcardExpression}
}

// IsWildcard reports whether the filter is the distinguished always-match value.
func (f Filter) IsWildcard() bool {
	return f.Expression == WildcardExpression
}
