package repo

import (
	"context"

	"github.com/google/uuid"

	"deckserver/internal/domain"
	"deckserver/internal/infra"
	"deckserver/internal/sqlinline"
)

// UploadRepositoryPG implements domain.UploadRepository.
type UploadRepositoryPG struct {
	run infra.SQLExecutor
}

// NewUploadRepository creates a new upload repository backed by PostgreSQL.
func NewUploadRepository(run infra.SQLExecutor) *UploadRepositoryPG {
	return &UploadRepositoryPG{run: run}
}

// ListByIDs resolves upload records for the given ids. Missing ids simply
// produce no row; the caller decides how to treat them.
func (r *UploadRepositoryPG) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.FileUpload, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.run.Query(ctx, sqlinline.QSelectUploadsByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FileUpload
	for rows.Next() {
		var f domain.FileUpload
		var status string
		if err := rows.Scan(
			&f.ID,
			&f.ProjectID,
			&f.OwnerID,
			&f.Filename,
			&f.StorageKey,
			&status,
			&f.CreatedAt,
		); err != nil {
			return nil, err
		}
		f.Status = domain.UploadStatus(status)
		out = append(out, f)
	}
	return out, rows.Err()
}
