package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"deckserver/internal/domain"
	"deckserver/internal/infra"
	"deckserver/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	run infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(run infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{run: run}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	_, err := r.run.Exec(ctx, sqlinline.QInsertJob,
		job.ID,
		job.ProjectID,
		job.OwnerID,
		string(job.Status),
		job.Model,
		job.InputFileIDs,
		job.SystemPrompt,
		job.UserPrompt,
		job.Locale,
		job.RetryCount,
		job.MaxRetries,
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	return scanJob(r.run.QueryRow(ctx, sqlinline.QSelectJobByID, id))
}

// GetForOwner fetches a job only when it belongs to the given owner.
func (r *JobRepositoryPG) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.GenerationJob, error) {
	return scanJob(r.run.QueryRow(ctx, sqlinline.QSelectJobForOwner, id, ownerID))
}

// ListByProject returns the project's jobs, newest first.
func (r *JobRepositoryPG) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.GenerationJob, error) {
	rows, err := r.run.Query(ctx, sqlinline.QListJobsByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// MarkProcessing transitions QUEUED -> PROCESSING. The status guard in the
// query makes a concurrent cancel win the race.
func (r *JobRepositoryPG) MarkProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	tag, err := r.run.Exec(ctx, sqlinline.QMarkJobProcessing, id, startedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed terminates a non-terminal job, used for transport failures.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, id uuid.UUID, detail string, completedAt time.Time) (bool, error) {
	tag, err := r.run.Exec(ctx, sqlinline.QMarkJobFailed, id, detail, completedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// StuckProcessing lists PROCESSING jobs started before the cutoff.
func (r *JobRepositoryPG) StuckProcessing(ctx context.Context, cutoff time.Time) ([]domain.GenerationJob, error) {
	rows, err := r.run.Query(ctx, sqlinline.QSelectStuckJobs, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// CountByStatus returns job counts grouped by status.
func (r *JobRepositoryPG) CountByStatus(ctx context.Context) (map[domain.JobStatus]int, error) {
	rows, err := r.run.Query(ctx, sqlinline.QCountJobsByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.JobStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.JobStatus(status)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	var status string
	if err := row.Scan(
		&job.ID,
		&job.ProjectID,
		&job.OwnerID,
		&status,
		&job.Model,
		&job.InputFileIDs,
		&job.SystemPrompt,
		&job.UserPrompt,
		&job.Locale,
		&job.RetryCount,
		&job.MaxRetries,
		&job.ErrorMessage,
		&job.ResultDeckID,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}
