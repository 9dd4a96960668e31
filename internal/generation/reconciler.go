package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"deckserver/internal/domain"
	"deckserver/internal/domain/deckjson"
)

// ResultFetcher loads generated content by the reference the compute unit
// reported in its callback.
type ResultFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Reconciler applies external completion signals to job state. Callbacks
// are delivered at least once, possibly late, possibly for a superseded
// attempt; every branch below except a genuine internal failure must end in
// a success ack so the external side stops redelivering.
type Reconciler struct {
	store      domain.Store
	fetcher    ResultFetcher
	controller *Controller
	logger     zerolog.Logger
	now        func() time.Time
}

// NewReconciler wires the reconciler. The controller is needed for the
// retry edge: a failed attempt with budget left re-enters its dispatch
// step after the state update commits.
func NewReconciler(store domain.Store, fetcher ResultFetcher, controller *Controller, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:      store,
		fetcher:    fetcher,
		controller: controller,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleCallback validates nothing (the HTTP boundary already did) and
// applies the outcome under the per-job lock. A nil return means "acked, do
// not redeliver"; an error means an internal failure where redelivery is
// actively desired.
func (r *Reconciler) HandleCallback(ctx context.Context, cb Callback) error {
	var redispatch *domain.GenerationJob

	err := r.store.InTx(ctx, func(tx domain.Tx) error {
		job, err := tx.LockJob(ctx, cb.JobID)
		if errors.Is(err, domain.ErrNotFound) {
			// Unknown job: ack anyway so the external side does not
			// enter a retry storm.
			r.logger.Warn().Str("job_id", cb.JobID.String()).Msg("callback for unknown job acknowledged")
			return nil
		}
		if err != nil {
			return err
		}

		if job.Status.Terminal() {
			r.logger.Info().
				Str("job_id", job.ID.String()).
				Str("status", string(job.Status)).
				Msg("duplicate or late callback ignored")
			return nil
		}
		if job.Status != domain.JobStatusProcessing || cb.Attempt != job.RetryCount {
			r.logger.Info().
				Str("job_id", job.ID.String()).
				Str("status", string(job.Status)).
				Int("callback_attempt", cb.Attempt).
				Int("current_attempt", job.RetryCount).
				Msg("stale-attempt callback ignored")
			return nil
		}

		if cb.Status == OutcomeCompleted {
			return r.applySuccess(ctx, tx, job, cb)
		}
		next, err := r.applyFailure(ctx, tx, job, cb)
		if err != nil {
			return err
		}
		redispatch = next
		return nil
	})
	if err != nil {
		return err
	}

	if redispatch != nil {
		// The retry dispatch must happen after the QUEUED/retry_count
		// update committed, so a stale callback racing in sees the new
		// state.
		r.controller.dispatch(ctx, redispatch)
	}
	return nil
}

// applySuccess runs the atomic success unit: flip the project's current
// deck, insert the new version, complete the job. One transaction, so no
// reader ever observes zero or two current versions.
func (r *Reconciler) applySuccess(ctx context.Context, tx domain.Tx, job *domain.GenerationJob, cb Callback) error {
	raw, err := r.fetcher.Fetch(ctx, cb.ResultRef)
	if err != nil {
		return fmt.Errorf("fetch result %q: %w", cb.ResultRef, err)
	}
	deck, err := deckjson.Parse(raw)
	if err != nil {
		return fmt.Errorf("result %q: %w", cb.ResultRef, err)
	}

	if err := tx.UnsetCurrentDeck(ctx, job.ProjectID); err != nil {
		return err
	}
	version, err := tx.NextDeckVersion(ctx, job.ProjectID)
	if err != nil {
		return err
	}
	record := &domain.PitchDeck{
		ID:               uuid.New(),
		ProjectID:        job.ProjectID,
		OwnerID:          job.OwnerID,
		GenerationJobID:  &job.ID,
		Title:            deck.Title,
		Version:          version,
		Content:          raw,
		SlideCount:       deck.SlideCount(),
		IsCurrentVersion: true,
		CreatedAt:        r.now(),
	}
	if err := tx.InsertDeck(ctx, record); err != nil {
		return err
	}

	now := r.now()
	job.Status = domain.JobStatusCompleted
	job.ResultDeckID = &record.ID
	job.CompletedAt = &now
	job.ErrorMessage = ""
	if err := tx.UpdateJob(ctx, job); err != nil {
		return err
	}

	r.logger.Info().
		Str("job_id", job.ID.String()).
		Str("deck_id", record.ID.String()).
		Int("version", version).
		Msg("generation completed")
	return nil
}

// applyFailure consumes one attempt. With budget left the job goes back to
// QUEUED and the returned job is redispatched after commit; otherwise the
// job terminates FAILED.
func (r *Reconciler) applyFailure(ctx context.Context, tx domain.Tx, job *domain.GenerationJob, cb Callback) (*domain.GenerationJob, error) {
	job.ErrorMessage = cb.ErrorDetail

	if job.RetryCount < job.MaxRetries {
		job.RetryCount++
		job.Status = domain.JobStatusQueued
		// startedAt is deliberately preserved: it records the first
		// time the job ever reached PROCESSING.
		if err := tx.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
		r.logger.Info().
			Str("job_id", job.ID.String()).
			Int("attempt", job.RetryCount).
			Int("max_retries", job.MaxRetries).
			Str("error", cb.ErrorDetail).
			Msg("generation failed, retrying")
		retry := *job
		return &retry, nil
	}

	now := r.now()
	job.Status = domain.JobStatusFailed
	job.CompletedAt = &now
	if err := tx.UpdateJob(ctx, job); err != nil {
		return nil, err
	}
	r.logger.Error().
		Str("job_id", job.ID.String()).
		Int("attempts", job.RetryCount+1).
		Str("error", cb.ErrorDetail).
		Msg("generation failed terminally, retry budget exhausted")
	return nil, nil
}
