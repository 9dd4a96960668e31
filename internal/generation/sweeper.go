package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"deckserver/internal/domain"
)

// Sweeper recovers jobs whose compute unit died without ever calling back.
// It does not mutate jobs itself: for every stuck job it synthesizes a
// failure callback for the job's current attempt and feeds it through the
// reconciler, so the retry budget and the per-job lock apply exactly as they
// would for a real callback.
type Sweeper struct {
	store      domain.Store
	reconciler *Reconciler
	logger     zerolog.Logger
	interval   time.Duration
	olderThan  time.Duration
	now        func() time.Time
}

// NewSweeper wires a sweeper. olderThan is how long a job may sit in
// PROCESSING before it counts as stuck.
func NewSweeper(store domain.Store, reconciler *Reconciler, logger zerolog.Logger, interval, olderThan time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if olderThan <= 0 {
		olderThan = 15 * time.Minute
	}
	return &Sweeper{
		store:      store,
		reconciler: reconciler,
		logger:     logger,
		interval:   interval,
		olderThan:  olderThan,
		now:        time.Now,
	}
}

// Sweep runs one pass and returns how many stuck jobs it reconciled. A job
// that left PROCESSING between the query and the synthesized callback is
// skipped by the reconciler's stale guard, which is fine.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.olderThan)
	stuck, err := s.store.Jobs().StuckProcessing(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("query stuck jobs: %w", err)
	}

	swept := 0
	for _, job := range stuck {
		cb := Callback{
			JobID:       job.ID,
			Status:      OutcomeFailed,
			Attempt:     job.RetryCount,
			ErrorDetail: fmt.Sprintf("no callback received within %s", s.olderThan),
			CompletedAt: s.now(),
		}
		if err := s.reconciler.HandleCallback(ctx, cb); err != nil {
			s.logger.Error().Err(err).Str("job_id", job.ID.String()).Msg("sweep reconcile failed")
			continue
		}
		s.logger.Warn().
			Str("job_id", job.ID.String()).
			Int("attempt", job.RetryCount).
			Time("started_at", *job.StartedAt).
			Msg("stuck job swept")
		swept++
	}
	return swept, nil
}

// Watch sweeps on a fixed interval until the context is cancelled. Run it in
// its own goroutine.
func (s *Sweeper) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sweep pass failed")
			}
		}
	}
}
