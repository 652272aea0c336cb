package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/xraph/dispatch/signature"
)

const maxResponseBody = 1024 // 1KB cap on response body storage

// attemptResult holds the outcome of a single HTTP attempt.
type attemptResult struct {
	StatusCode int
	Error      string
	Response   string
	LatencyMs  int
}

// ok reports whether the attempt received a 2xx response.
func (r attemptResult) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Sender performs a single HTTP webhook delivery attempt.
type Sender struct {
	client *http.Client
}

// NewSender creates a sender with the given HTTP timeout.
func NewSender(timeout time.Duration) *Sender {
	return &Sender{
		client: &http.Client{Timeout: timeout},
	}
}

// NewSenderWithClient creates a sender over a caller-supplied HTTP client.
func NewSenderWithClient(client *http.Client) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sender{client: client}
}

// send POSTs the composed body to the subscription's destination.
func (s *Sender) send(ctx context.Context, req Request, attempt int) attemptResult {
	sub := req.Subscription

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.DestinationURL, bytes.NewReader(req.Body))
	if err != nil {
		return attemptResult{Error: fmt.Sprintf("create request: %v", err)}
	}

	// Custom subscription headers first; standard headers after, so custom
	// values can never override the signature or delivery metadata.
	for k, v := range sub.Headers {
		httpReq.Header.Set(k, v)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "Dispatch/1.0")
	httpReq.Header.Set("X-Webhook-Event-Id", req.EventID.String())
	httpReq.Header.Set("X-Webhook-Event-Type", req.EventType)
	httpReq.Header.Set("X-Webhook-Delivery-Id", req.DeliveryID.String())
	httpReq.Header.Set("X-Webhook-Attempt", strconv.Itoa(attempt))

	if req.Signature != "" {
		httpReq.Header.Set(signature.Header, req.Signature)
	}

	start := time.Now()
	resp, err := s.client.Do(httpReq) //nolint:gosec // G704: URL is a user-configured webhook destination; SSRF is by design.
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return attemptResult{
			Error:     err.Error(),
			LatencyMs: int(latency),
		}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if readErr != nil {
		return attemptResult{
			StatusCode: resp.StatusCode,
			Error:      fmt.Sprintf("read response: %v", readErr),
			LatencyMs:  int(latency),
		}
	}

	res := attemptResult{
		StatusCode: resp.StatusCode,
		Response:   string(respBody),
		LatencyMs:  int(latency),
	}
	if !res.ok() {
		res.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return res
}
