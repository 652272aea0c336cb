package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/dispatch/ratelimit"
)

func TestAllowUnlimited(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 100; i++ {
		if !l.Allow("sub-1", 0) {
			t.Fatal("rate limit 0 should be unlimited")
		}
	}
}

func TestAllowBurst(t *testing.T) {
	l := ratelimit.New()

	// Bucket starts full: the first rateLimit requests pass.
	for i := 0; i < 5; i++ {
		if !l.Allow("sub-1", 5) {
			t.Fatalf("request %d should be allowed within burst", i)
		}
	}
	if l.Allow("sub-1", 5) {
		t.Fatal("request beyond burst should be denied")
	}
}

func TestAllowPerSubscription(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 2; i++ {
		l.Allow("sub-1", 2)
	}
	if l.Allow("sub-1", 2) {
		t.Fatal("sub-1 should be exhausted")
	}

	// Another subscription has its own bucket.
	if !l.Allow("sub-2", 2) {
		t.Fatal("sub-2 should have a fresh bucket")
	}
}

func TestReset(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 2; i++ {
		l.Allow("sub-1", 2)
	}
	if l.Allow("sub-1", 2) {
		t.Fatal("expected exhausted bucket")
	}

	l.Reset("sub-1")
	if !l.Allow("sub-1", 2) {
		t.Fatal("expected fresh bucket after reset")
	}
}

func TestWaitCancellation(t *testing.T) {
	l := ratelimit.New()

	// Exhaust the bucket at a very low rate so Wait has to block.
	l.Allow("sub-1", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "sub-1", 1)
	if err == nil {
		// The bucket refills at 1/s; within 50ms it may not refill. A nil
		// error is only acceptable if the wait genuinely succeeded fast,
		// which at this rate it cannot.
		t.Fatal("expected context cancellation")
	}
}

func TestWaitUnlimited(t *testing.T) {
	l := ratelimit.New()

	if err := l.Wait(context.Background(), "sub-1", 0); err != nil {
		t.Fatal(err)
	}
}
