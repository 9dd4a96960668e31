package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"deckserver/internal/domain"
	"deckserver/internal/infra"
	"deckserver/internal/sqlinline"
)

// txScope implements domain.Tx over a transaction-bound SQLRunner.
type txScope struct {
	run infra.SQLExecutor
}

// LockJob loads the job under SELECT ... FOR UPDATE. The lock holds until
// the surrounding transaction commits, giving the reconciler its per-job
// single-writer guarantee.
func (t *txScope) LockJob(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	return scanJob(t.run.QueryRow(ctx, sqlinline.QLockJob, id))
}

// UpdateJob writes the mutable job fields.
func (t *txScope) UpdateJob(ctx context.Context, job *domain.GenerationJob) error {
	_, err := t.run.Exec(ctx, sqlinline.QUpdateJob,
		job.ID,
		string(job.Status),
		job.RetryCount,
		job.ErrorMessage,
		job.ResultDeckID,
		job.StartedAt,
		job.CompletedAt,
	)
	return err
}

// UnsetCurrentDeck clears the current-version flag for the project.
func (t *txScope) UnsetCurrentDeck(ctx context.Context, projectID uuid.UUID) error {
	_, err := t.run.Exec(ctx, sqlinline.QUnsetCurrentDeck, projectID)
	return err
}

// NextDeckVersion locks the project row, then returns max(version)+1.
// The lock serializes version bumps when two jobs of the same project
// complete concurrently.
func (t *txScope) NextDeckVersion(ctx context.Context, projectID uuid.UUID) (int, error) {
	var locked uuid.UUID
	if err := t.run.QueryRow(ctx, sqlinline.QLockProject, projectID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	var max int
	if err := t.run.QueryRow(ctx, sqlinline.QMaxDeckVersion, projectID).Scan(&max); err != nil {
		return 0, err
	}
	return max + 1, nil
}

// InsertDeck persists a new deck version.
func (t *txScope) InsertDeck(ctx context.Context, deck *domain.PitchDeck) error {
	_, err := t.run.Exec(ctx, sqlinline.QInsertDeck,
		deck.ID,
		deck.ProjectID,
		deck.OwnerID,
		deck.GenerationJobID,
		deck.Title,
		deck.Version,
		deck.Content,
		deck.SlideCount,
		deck.IsCurrentVersion,
	)
	return err
}

var _ domain.Tx = (*txScope)(nil)
