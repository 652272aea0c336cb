package delivery_test

import (
	"testing"
	"time"

	"github.com/xraph/dispatch/delivery"
)

func TestConstantBackoff(t *testing.T) {
	b := delivery.ConstantBackoff(2 * time.Second)

	for attempt := 1; attempt <= 5; attempt++ {
		if got := b.Delay(attempt); got != 2*time.Second {
			t.Fatalf("attempt %d: got %v", attempt, got)
		}
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := delivery.ExponentialBackoff{
		Initial: 1 * time.Second,
		Max:     10 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := b.Delay(tt.attempt); got != tt.want {
			t.Fatalf("attempt %d: got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoffDefaults(t *testing.T) {
	b := delivery.ExponentialBackoff{}

	if got := b.Delay(1); got != time.Second {
		t.Fatalf("expected 1s default initial, got %v", got)
	}
	if got := b.Delay(20); got != 30*time.Second {
		t.Fatalf("expected 30s default cap, got %v", got)
	}
}

func TestBackoffMonotonic(t *testing.T) {
	b := delivery.ExponentialBackoff{Initial: 100 * time.Millisecond, Max: 5 * time.Second}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 12; attempt++ {
		d := b.Delay(attempt)
		if d < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		prev = d
	}
}
