package compute

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"deckserver/internal/generation"
	"deckserver/internal/middleware"
)

// processTimeout bounds one generation including input reads and the
// callback delivery retries.
const processTimeout = 10 * time.Minute

// Server exposes the compute unit's accept-and-callback contract: a valid
// dispatch is answered 202 immediately and processed detached from the
// request.
type Server struct {
	worker *Worker
	logger zerolog.Logger
}

// NewServer wires the compute HTTP surface.
func NewServer(worker *Worker, logger zerolog.Logger) *Server {
	return &Server{worker: worker, logger: logger}
}

// Router assembles the compute routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Post("/v1/generate", s.handleGenerate)
	return r
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload generation.DelegationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.reject(w, "malformed payload: "+err.Error())
		return
	}
	if err := payload.Validate(); err != nil {
		s.reject(w, err.Error())
		return
	}

	// Ack first, work later. The control plane marks the job PROCESSING on
	// this 202 and waits for the callback.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"job_id": payload.JobID.String(),
		"status": "accepted",
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		if err := s.worker.Process(ctx, payload); err != nil {
			s.logger.Error().Err(err).Str("job_id", payload.JobID.String()).Msg("detached processing failed")
		}
	}()
}

func (s *Server) reject(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": detail})
}
