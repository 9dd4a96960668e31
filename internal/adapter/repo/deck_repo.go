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

// DeckRepositoryPG implements domain.DeckRepository. Writes happen only
// inside the reconciler's transaction (see txScope).
type DeckRepositoryPG struct {
	run infra.SQLExecutor
}

// NewDeckRepository creates a new deck repository backed by PostgreSQL.
func NewDeckRepository(run infra.SQLExecutor) *DeckRepositoryPG {
	return &DeckRepositoryPG{run: run}
}

// GetForOwner fetches a deck only when it belongs to the given owner.
func (r *DeckRepositoryPG) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.PitchDeck, error) {
	return scanDeck(r.run.QueryRow(ctx, sqlinline.QSelectDeckForOwner, id, ownerID))
}

// CurrentByProject returns the project's current deck version.
func (r *DeckRepositoryPG) CurrentByProject(ctx context.Context, projectID uuid.UUID) (*domain.PitchDeck, error) {
	return scanDeck(r.run.QueryRow(ctx, sqlinline.QSelectCurrentDeck, projectID))
}

// ListVersions returns version summaries for a project, newest first.
func (r *DeckRepositoryPG) ListVersions(ctx context.Context, projectID uuid.UUID) ([]domain.PitchDeckSummary, error) {
	rows, err := r.run.Query(ctx, sqlinline.QListDeckVersions, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PitchDeckSummary
	for rows.Next() {
		var s domain.PitchDeckSummary
		if err := rows.Scan(
			&s.ID,
			&s.GenerationJobID,
			&s.Title,
			&s.Version,
			&s.SlideCount,
			&s.IsCurrentVersion,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByProject returns full decks for a project in ascending version order.
func (r *DeckRepositoryPG) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.PitchDeck, error) {
	rows, err := r.run.Query(ctx, sqlinline.QListDecksByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PitchDeck
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *deck)
	}
	return out, rows.Err()
}

func scanDeck(row rowScanner) (*domain.PitchDeck, error) {
	var deck domain.PitchDeck
	if err := row.Scan(
		&deck.ID,
		&deck.ProjectID,
		&deck.OwnerID,
		&deck.GenerationJobID,
		&deck.Title,
		&deck.Version,
		&deck.Content,
		&deck.SlideCount,
		&deck.IsCurrentVersion,
		&deck.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &deck, nil
}
