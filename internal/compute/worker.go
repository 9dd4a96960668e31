package compute

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"deckserver/internal/generation"
	"deckserver/internal/providers/textgen"
	"deckserver/internal/storage"
)

// maxExcerptBytes caps how much of each input document reaches the prompt.
const maxExcerptBytes = 16 * 1024

// Worker executes one delegated generation: read the input documents,
// generate the deck, persist the result and call back. It holds no state of
// its own; the result file under the job's key doubles as the idempotency
// record when a dispatch is redelivered.
type Worker struct {
	store    *storage.FileStore
	textgen  *textgen.Client
	notifier *Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewWorker wires a worker.
func NewWorker(store *storage.FileStore, gen *textgen.Client, notifier *Notifier, logger zerolog.Logger) *Worker {
	return &Worker{
		store:    store,
		textgen:  gen,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// resultKey is where a job's generated deck lands; the callback reports it
// as the result reference.
func resultKey(payload generation.DelegationPayload) string {
	return fmt.Sprintf("decks/%s/result.json", payload.JobID)
}

// Process runs the delegation end to end and always ends in a callback. The
// error return is for the caller's log only; the control plane learns the
// outcome exclusively through the callback.
func (w *Worker) Process(ctx context.Context, payload generation.DelegationPayload) error {
	key := resultKey(payload)

	// Redelivered dispatch for work already done: report the existing
	// result instead of generating again.
	if ok, err := w.store.Exists(ctx, key); err == nil && ok {
		w.logger.Info().
			Str("job_id", payload.JobID.String()).
			Int("attempt", payload.Attempt).
			Msg("result already present, resending callback")
		return w.succeed(ctx, payload, key)
	}

	excerpts, err := w.readInputs(ctx, payload.InputKeys)
	if err != nil {
		return w.fail(ctx, payload, fmt.Sprintf("read input documents: %v", err))
	}

	deck, err := w.textgen.GenerateDeck(ctx, textgen.Request{
		JobID:          payload.JobID.String(),
		ProjectName:    payload.Project.Name,
		Description:    payload.Project.Description,
		Industry:       payload.Project.Industry,
		TargetAudience: payload.Project.TargetAudience,
		SystemPrompt:   payload.SystemPrompt,
		UserPrompt:     payload.UserPrompt,
		Locale:         payload.Locale,
		InputExcerpts:  excerpts,
	})
	if err != nil {
		return w.fail(ctx, payload, fmt.Sprintf("generate deck: %v", err))
	}

	raw, err := json.Marshal(deck)
	if err != nil {
		return w.fail(ctx, payload, fmt.Sprintf("encode deck: %v", err))
	}
	if _, err := w.store.Write(ctx, key, raw); err != nil {
		return w.fail(ctx, payload, fmt.Sprintf("persist result: %v", err))
	}

	return w.succeed(ctx, payload, key)
}

func (w *Worker) readInputs(ctx context.Context, keys []string) ([]string, error) {
	excerpts := make([]string, 0, len(keys))
	for _, key := range keys {
		data, err := w.store.Read(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", key, err)
		}
		if len(data) > maxExcerptBytes {
			data = data[:maxExcerptBytes]
		}
		excerpts = append(excerpts, string(data))
	}
	return excerpts, nil
}

func (w *Worker) succeed(ctx context.Context, payload generation.DelegationPayload, key string) error {
	cb := generation.Callback{
		JobID:       payload.JobID,
		Status:      generation.OutcomeCompleted,
		Attempt:     payload.Attempt,
		ResultRef:   key,
		CompletedAt: w.now().UTC(),
	}
	if err := w.notifier.Send(ctx, payload.CallbackURL, cb); err != nil {
		w.logger.Error().Err(err).Str("job_id", payload.JobID.String()).Msg("success callback undeliverable")
		return err
	}
	return nil
}

func (w *Worker) fail(ctx context.Context, payload generation.DelegationPayload, detail string) error {
	w.logger.Error().
		Str("job_id", payload.JobID.String()).
		Int("attempt", payload.Attempt).
		Str("error", detail).
		Msg("generation attempt failed")
	cb := generation.Callback{
		JobID:       payload.JobID,
		Status:      generation.OutcomeFailed,
		Attempt:     payload.Attempt,
		ErrorDetail: detail,
		CompletedAt: w.now().UTC(),
	}
	if err := w.notifier.Send(ctx, payload.CallbackURL, cb); err != nil {
		w.logger.Error().Err(err).Str("job_id", payload.JobID.String()).Msg("failure callback undeliverable")
		return err
	}
	return nil
}
