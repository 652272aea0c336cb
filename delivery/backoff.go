package delivery

import (
	"context"
	"time"
)

// Backoff computes the wait before a retry attempt. Implementations must be
// monotonically non-decreasing in the attempt number.
type Backoff interface {
	// Delay returns the wait before attempt n+1, where n ≥ 1 is the number
	// of attempts already made.
	Delay(attempt int) time.Duration
}

// ConstantBackoff waits a fixed interval between attempts.
type ConstantBackoff time.Duration

// Delay implements Backoff.
func (b ConstantBackoff) Delay(int) time.Duration {
	return time.Duration(b)
}

// ExponentialBackoff doubles the wait after each attempt, capped at Max.
type ExponentialBackoff struct {
	// Initial is the wait after the first failed attempt.
	Initial time.Duration

	// Max caps the wait between attempts.
	Max time.Duration
}

// Delay implements Backoff.
func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	initial := b.Initial
	if initial <= 0 {
		initial = time.Second
	}
	maximum := b.Max
	if maximum <= 0 {
		maximum = 30 * time.Second
	}

	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	if delay > maximum {
		return maximum
	}
	return delay
}

// sleep waits for d or until the context is cancelled, whichever comes
// first. Returns the context error on cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
