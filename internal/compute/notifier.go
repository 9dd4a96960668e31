package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"deckserver/internal/generation"
)

// Notifier delivers completion callbacks to the control plane. Delivery is
// at-least-once: a transient failure is retried with a linearly growing
// delay, and the receiving side is idempotent, so duplicates are harmless.
type Notifier struct {
	client      *http.Client
	logger      zerolog.Logger
	maxAttempts int
	baseDelay   time.Duration
}

// NewNotifier builds a notifier with bounded delivery retries.
func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
		maxAttempts: 5,
		baseDelay:   2 * time.Second,
	}
}

// Send posts the callback to url, retrying on transport errors and 5xx
// answers. A 2xx acks the callback; a 4xx means the control plane rejected
// it and retrying would not help.
func (n *Notifier) Send(ctx context.Context, url string, cb generation.Callback) error {
	body, err := json.Marshal(cb)
	if err != nil {
		return fmt.Errorf("encode callback: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * n.baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = n.post(ctx, url, body)
		if lastErr == nil {
			return nil
		}
		var rerr *rejectedError
		if errors.As(lastErr, &rerr) {
			return lastErr
		}
		n.logger.Warn().
			Err(lastErr).
			Str("job_id", cb.JobID.String()).
			Int("delivery_attempt", attempt).
			Msg("callback delivery failed")
	}
	return fmt.Errorf("callback not delivered after %d attempts: %w", n.maxAttempts, lastErr)
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &rejectedError{status: resp.StatusCode, body: string(snippet)}
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("callback endpoint answered %d: %s", resp.StatusCode, snippet)
	}
}

// rejectedError marks a definitive 4xx rejection that must not be retried.
type rejectedError struct {
	status int
	body   string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("callback rejected with %d: %s", e.status, e.body)
}
