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

// ProjectRepositoryPG implements domain.ProjectRepository. Projects are
// managed by another service; only reads happen here.
type ProjectRepositoryPG struct {
	run infra.SQLExecutor
}

// NewProjectRepository creates a new project repository backed by PostgreSQL.
func NewProjectRepository(run infra.SQLExecutor) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{run: run}
}

// GetByID fetches a project regardless of owner.
func (r *ProjectRepositoryPG) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return scanProject(r.run.QueryRow(ctx, sqlinline.QSelectProjectByID, id))
}

// GetForOwner fetches a project only when it belongs to the given owner.
func (r *ProjectRepositoryPG) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Project, error) {
	return scanProject(r.run.QueryRow(ctx, sqlinline.QSelectProjectForOwner, id, ownerID))
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Description,
		&p.Industry,
		&p.TargetAudience,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
