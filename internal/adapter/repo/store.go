package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"deckserver/internal/domain"
	"deckserver/internal/infra"
)

// Store bundles the PostgreSQL repositories and provides transactional
// access for the reconciler's atomic unit.
type Store struct {
	pool     *pgxpool.Pool
	runner   *infra.SQLRunner
	jobs     *JobRepositoryPG
	decks    *DeckRepositoryPG
	projects *ProjectRepositoryPG
	uploads  *UploadRepositoryPG
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	runner := infra.NewSQLRunner(pool, logger)
	return &Store{
		pool:     pool,
		runner:   runner,
		jobs:     NewJobRepository(runner),
		decks:    NewDeckRepository(runner),
		projects: NewProjectRepository(runner),
		uploads:  NewUploadRepository(runner),
	}
}

func (s *Store) Jobs() domain.JobRepository         { return s.jobs }
func (s *Store) Decks() domain.DeckRepository       { return s.decks }
func (s *Store) Projects() domain.ProjectRepository { return s.projects }
func (s *Store) Uploads() domain.UploadRepository   { return s.uploads }

// InTx runs fn inside a single database transaction. Row locks taken via
// Tx.LockJob serialize concurrent callback applications per job.
func (s *Store) InTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	pgtx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer pgtx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&txScope{run: s.runner.WithDB(pgtx)}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var _ domain.Store = (*Store)(nil)
