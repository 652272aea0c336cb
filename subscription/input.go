package subscription

// Input is the creation payload for subscriptions.
type Input struct {
	// Name is a human-readable name for the subscription.
	Name string `json:"name"`

	// EventTypes are event type patterns. At least one is required.
	EventTypes []string `json:"event_types"`

	// DestinationURL is the absolute URL deliveries are POSTed to.
	DestinationURL string `json:"destination_url"`

	// Secret is the HMAC signing secret. Empty means unsigned deliveries.
	Secret string `json:"secret"`

	// Headers are custom HTTP headers sent with each delivery.
	Headers map[string]string `json:"headers,omitempty"`

	// Filters are evaluated against each event beyond the type match.
	Filters []Filter `json:"filters,omitempty"`

	// RetryCount is the number of additional attempts after the first.
	RetryCount int `json:"retry_count"`

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int `json:"rate_limit"`

	// Active creates the subscription directly in the Active status.
	// When false the subscription starts in None and must be enabled.
	Active bool `json:"active"`

	// Metadata holds user-defined key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PageQuery selects a page of a tenant's subscriptions.
// Page numbers are 1-based; results are in creation order.
type PageQuery struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Offset returns the zero-based item offset for this query.
func (q PageQuery) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.PageSize
}

// Page is one page of a tenant's subscriptions.
type Page struct {
	// Subscriptions are the items on this page, in creation order.
	Subscriptions []*Subscription `json:"subscriptions"`

	// TotalCount is the number of subscriptions the tenant owns.
	TotalCount int `json:"total_count"`

	// TotalPages is the number of pages at the requested page size.
	TotalPages int `json:"total_pages"`
}
