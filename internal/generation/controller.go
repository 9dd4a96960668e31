package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"deckserver/internal/domain"
)

// StartParams carries everything a start-generation request needs. Model is
// an explicit parameter: the caller's configuration layer supplies the
// default, the controller never reads global config.
type StartParams struct {
	OwnerID      uuid.UUID
	ProjectID    uuid.UUID
	InputFileIDs []uuid.UUID
	Model        string
	SystemPrompt string
	UserPrompt   string
	Locale       string
}

// Controller owns the generation job lifecycle: creation, validation,
// delegation and every status transition except the ones the reconciler
// applies on callbacks.
type Controller struct {
	store       domain.Store
	gateway     Gateway
	logger      zerolog.Logger
	callbackURL string
	maxRetries  int
	now         func() time.Time
}

// NewController wires the controller. callbackURL is the absolute address
// the compute unit will report back to.
func NewController(store domain.Store, gateway Gateway, logger zerolog.Logger, callbackURL string, maxRetries int) *Controller {
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	return &Controller{
		store:       store,
		gateway:     gateway,
		logger:      logger,
		callbackURL: callbackURL,
		maxRetries:  maxRetries,
		now:         time.Now,
	}
}

// Start validates the request, persists a QUEUED job and hands it to the
// compute unit. The returned job reflects the state after dispatch:
// PROCESSING on a successful hand-off, FAILED on a transport failure. The
// caller observes nothing else; results arrive via callback.
func (c *Controller) Start(ctx context.Context, params StartParams) (*domain.GenerationJob, error) {
	project, err := c.store.Projects().GetByID(ctx, params.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != params.OwnerID {
		return nil, domain.ErrUnauthorized
	}
	if params.Model == "" {
		return nil, &domain.ValidationError{Reason: "model is required"}
	}
	if len(params.InputFileIDs) == 0 {
		return nil, &domain.ValidationError{Reason: "at least one input file is required"}
	}

	uploads, err := c.store.Uploads().ListByIDs(ctx, params.InputFileIDs)
	if err != nil {
		return nil, err
	}
	if bad := invalidUploads(params.InputFileIDs, uploads, params.ProjectID); len(bad) > 0 {
		return nil, &domain.ValidationError{Reason: "input files missing, foreign or not upload-complete", IDs: bad}
	}

	job := &domain.GenerationJob{
		ID:           uuid.New(),
		ProjectID:    params.ProjectID,
		OwnerID:      params.OwnerID,
		Status:       domain.JobStatusQueued,
		Model:        params.Model,
		InputFileIDs: params.InputFileIDs,
		SystemPrompt: params.SystemPrompt,
		UserPrompt:   params.UserPrompt,
		Locale:       params.Locale,
		RetryCount:   0,
		MaxRetries:   c.maxRetries,
		CreatedAt:    c.now(),
	}
	if err := c.store.Jobs().Create(ctx, job); err != nil {
		return nil, err
	}
	c.logger.Info().
		Str("job_id", job.ID.String()).
		Str("project_id", job.ProjectID.String()).
		Int("input_files", len(job.InputFileIDs)).
		Msg("generation job created")

	c.dispatch(ctx, job)

	// Reload so the response carries the post-dispatch status.
	return c.store.Jobs().GetByID(ctx, job.ID)
}

// GetStatus is a pure read.
func (c *Controller) GetStatus(ctx context.Context, jobID, ownerID uuid.UUID) (*domain.GenerationJob, error) {
	return c.store.Jobs().GetForOwner(ctx, jobID, ownerID)
}

// ListByProject returns the project's jobs, newest first, after an
// ownership check.
func (c *Controller) ListByProject(ctx context.Context, projectID, ownerID uuid.UUID) ([]domain.GenerationJob, error) {
	if _, err := c.store.Projects().GetForOwner(ctx, projectID, ownerID); err != nil {
		return nil, err
	}
	return c.store.Jobs().ListByProject(ctx, projectID)
}

// Cancel terminates a QUEUED or PROCESSING job. It takes the same per-job
// lock as the reconciler, so a cancel that commits first always wins the
// race against a late callback. Cancellation is cooperative: an in-flight
// external computation is not interrupted, its eventual callback is simply
// discarded.
func (c *Controller) Cancel(ctx context.Context, jobID, ownerID uuid.UUID) error {
	return c.store.InTx(ctx, func(tx domain.Tx) error {
		job, err := tx.LockJob(ctx, jobID)
		if err != nil {
			return err
		}
		if job.OwnerID != ownerID {
			return domain.ErrNotFound
		}
		if job.Status.Terminal() {
			return fmt.Errorf("%w: job is already %s", domain.ErrInvalidState, job.Status)
		}
		now := c.now()
		job.Status = domain.JobStatusCancelled
		job.CompletedAt = &now
		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}
		c.logger.Info().Str("job_id", job.ID.String()).Msg("generation job cancelled")
		return nil
	})
}

// dispatch invokes the delegation gateway for the job's current attempt and
// applies the resulting transition: PROCESSING on ack, terminal FAILED on a
// transport failure. Transport failures are not retried; the retry edge
// exists for generation failures only.
func (c *Controller) dispatch(ctx context.Context, job *domain.GenerationJob) {
	payload, err := c.buildPayload(ctx, job)
	if err == nil {
		err = c.gateway.Invoke(ctx, *payload)
	}
	if err != nil {
		var terr *domain.TransportError
		if !errors.As(err, &terr) {
			terr = &domain.TransportError{Err: err}
		}
		c.logger.Error().Err(terr).Str("job_id", job.ID.String()).Msg("delegation failed, job marked FAILED")
		if _, ferr := c.store.Jobs().MarkFailed(ctx, job.ID, terr.Error(), c.now()); ferr != nil {
			c.logger.Error().Err(ferr).Str("job_id", job.ID.String()).Msg("failed to persist transport failure")
		}
		return
	}

	ok, err := c.store.Jobs().MarkProcessing(ctx, job.ID, c.now())
	if err != nil {
		c.logger.Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to mark job PROCESSING")
		return
	}
	if !ok {
		// The job left QUEUED while we were dispatching; a concurrent
		// cancel won. The eventual callback will be discarded.
		c.logger.Warn().Str("job_id", job.ID.String()).Msg("job no longer QUEUED after dispatch")
	}
}

func (c *Controller) buildPayload(ctx context.Context, job *domain.GenerationJob) (*DelegationPayload, error) {
	project, err := c.store.Projects().GetByID(ctx, job.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	uploads, err := c.store.Uploads().ListByIDs(ctx, job.InputFileIDs)
	if err != nil {
		return nil, fmt.Errorf("load input files: %w", err)
	}
	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		keys = append(keys, u.StorageKey)
	}
	return &DelegationPayload{
		JobID:        job.ID,
		ProjectID:    job.ProjectID,
		OwnerID:      job.OwnerID,
		InputKeys:    keys,
		CallbackURL:  c.callbackURL,
		Model:        job.Model,
		SystemPrompt: job.SystemPrompt,
		UserPrompt:   job.UserPrompt,
		Locale:       job.Locale,
		Attempt:      job.RetryCount,
		Project: ProjectContext{
			Name:           project.Name,
			Description:    project.Description,
			Industry:       project.Industry,
			TargetAudience: project.TargetAudience,
		},
	}, nil
}

// invalidUploads returns the ids that are unresolvable, belong to another
// project, or are not upload-complete.
func invalidUploads(requested []uuid.UUID, uploads []domain.FileUpload, projectID uuid.UUID) []uuid.UUID {
	byID := make(map[uuid.UUID]domain.FileUpload, len(uploads))
	for _, u := range uploads {
		byID[u.ID] = u
	}
	var bad []uuid.UUID
	for _, id := range requested {
		u, ok := byID[id]
		if !ok || u.ProjectID != projectID || u.Status != domain.UploadStatusCompleted {
			bad = append(bad, id)
		}
	}
	return bad
}
