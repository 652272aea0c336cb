package dispatch

import (
	"github.com/xraph/dispatch/delivery"
	"github.com/xraph/dispatch/id"
)

// Outcome classifies the aggregate result of a notification fan-out.
type Outcome string

const (
	// OutcomeNoSubscribers means no active subscription matched the event.
	OutcomeNoSubscribers Outcome = "no_subscribers"

	// OutcomeAllDelivered means every attempted delivery succeeded.
	OutcomeAllDelivered Outcome = "all_delivered"

	// OutcomePartialFailure means some deliveries succeeded and some failed.
	OutcomePartialFailure Outcome = "partial_failure"

	// OutcomeAllFailed means every attempted delivery failed.
	OutcomeAllFailed Outcome = "all_failed"
)

// Result is the aggregate outcome of one Notify call.
type Result struct {
	// EventID identifies the notified event.
	EventID id.ID `json:"event_id"`

	// Outcome classifies the fan-out as a whole.
	Outcome Outcome `json:"outcome"`

	// Deliveries holds one per-subscription delivery report for each
	// matched subscription, in resolution order.
	Deliveries []delivery.Result `json:"deliveries"`

	// Warnings collects non-fatal pipeline problems (filter evaluator
	// failures, enricher failures). A warning never aborts the fan-out.
	Warnings []string `json:"warnings,omitempty"`
}

// Successful reports the number of successful deliveries.
func (r *Result) Successful() int {
	n := 0
	for i := range r.Deliveries {
		if r.Deliveries[i].Success {
			n++
		}
	}
	return n
}

// Failed reports the number of failed deliveries.
func (r *Result) Failed() int {
	return len(r.Deliveries) - r.Successful()
}

// deriveOutcome classifies a set of delivery results.
func deriveOutcome(deliveries []delivery.Result) Outcome {
	if len(deliveries) == 0 {
		return OutcomeNoSubscribers
	}
	succeeded := 0
	for i := range deliveries {
		if deliveries[i].Success {
			succeeded++
		}
	}
	switch succeeded {
	case len(deliveries):
		return OutcomeAllDelivered
	case 0:
		return OutcomeAllFailed
	default:
		return OutcomePartialFailure
	}
}
