package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"deckserver/internal/domain"
)

// Gateway invokes the external compute unit. The call is fire-and-forget:
// a nil error only means the unit accepted the work, completion arrives
// later through the callback.
type Gateway interface {
	Invoke(ctx context.Context, payload DelegationPayload) error
}

// HTTPGateway posts delegation payloads to the compute unit over HTTP. The
// unit is expected to answer 202 and call back when done.
type HTTPGateway struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPGateway creates a gateway targeting the given compute URL with a
// bounded connect/send timeout.
func NewHTTPGateway(url string, timeout time.Duration, logger zerolog.Logger) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Invoke submits the payload. Every failure to get an acceptance ack is a
// TransportError; the caller decides what that does to the job.
func (g *HTTPGateway) Invoke(ctx context.Context, payload DelegationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &domain.TransportError{Err: fmt.Errorf("encode payload: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return &domain.TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.TransportError{Err: fmt.Errorf("compute unit answered %d: %s", resp.StatusCode, snippet)}
	}

	g.logger.Info().
		Str("job_id", payload.JobID.String()).
		Int("attempt", payload.Attempt).
		Msg("delegation accepted")
	return nil
}

var _ Gateway = (*HTTPGateway)(nil)
