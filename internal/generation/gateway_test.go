package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"deckserver/internal/domain"
)

func TestHTTPGatewayInvoke(t *testing.T) {
	var received DelegationPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, 2*time.Second, zerolog.Nop())
	payload := validPayload()
	payload.Attempt = 1

	if err := gw.Invoke(context.Background(), payload); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if received.JobID != payload.JobID {
		t.Errorf("job id = %s, want %s", received.JobID, payload.JobID)
	}
	if received.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", received.Attempt)
	}
}

func TestHTTPGatewayRejectionIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, 2*time.Second, zerolog.Nop())
	err := gw.Invoke(context.Background(), validPayload())

	var terr *domain.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}

func TestHTTPGatewayUnreachableIsTransportError(t *testing.T) {
	// A server that is immediately closed leaves a port nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	gw := NewHTTPGateway(url, time.Second, zerolog.Nop())
	err := gw.Invoke(context.Background(), validPayload())

	var terr *domain.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}
