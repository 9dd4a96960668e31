package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/joho/godotenv"
)

// Skema dibuat idempotent (IF NOT EXISTS) supaya aman dijalankan berulang.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id              UUID PRIMARY KEY,
    owner_id        UUID NOT NULL,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    industry        TEXT NOT NULL DEFAULT '',
    target_audience TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects (owner_id);

CREATE TABLE IF NOT EXISTS file_uploads (
    id            UUID PRIMARY KEY,
    project_id    UUID NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
    owner_id      UUID NOT NULL,
    filename      TEXT NOT NULL,
    storage_key   TEXT NOT NULL,
    upload_status TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_file_uploads_project ON file_uploads (project_id);

CREATE TABLE IF NOT EXISTS generation_jobs (
    id             UUID PRIMARY KEY,
    project_id     UUID NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
    owner_id       UUID NOT NULL,
    status         TEXT NOT NULL,
    model          TEXT NOT NULL,
    input_file_ids UUID[] NOT NULL DEFAULT '{}',
    system_prompt  TEXT NOT NULL DEFAULT '',
    user_prompt    TEXT NOT NULL DEFAULT '',
    locale         TEXT NOT NULL DEFAULT 'en',
    retry_count    INT NOT NULL DEFAULT 0,
    max_retries    INT NOT NULL DEFAULT 3,
    error_message  TEXT NOT NULL DEFAULT '',
    result_deck_id UUID,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    started_at     TIMESTAMPTZ,
    completed_at   TIMESTAMPTZ,
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_generation_jobs_project ON generation_jobs (project_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_generation_jobs_status ON generation_jobs (status, started_at);

CREATE TABLE IF NOT EXISTS pitch_decks (
    id                 UUID PRIMARY KEY,
    project_id         UUID NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
    owner_id           UUID NOT NULL,
    generation_job_id  UUID REFERENCES generation_jobs (id) ON DELETE SET NULL,
    title              TEXT NOT NULL DEFAULT '',
    version            INT NOT NULL,
    content            JSONB NOT NULL,
    slide_count        INT NOT NULL DEFAULT 0,
    is_current_version BOOLEAN NOT NULL DEFAULT false,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (project_id, version)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_pitch_decks_current
    ON pitch_decks (project_id)
    WHERE is_current_version;
`

func main() {
	var dropFlag bool
	flag.BoolVar(&dropFlag, "drop", false, "drop all tables before creating the schema")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		exitWithError(fmt.Errorf("ping database: %w", err))
	}

	if dropFlag {
		drop := `DROP TABLE IF EXISTS pitch_decks, generation_jobs, file_uploads, projects CASCADE`
		if _, err := db.ExecContext(ctx, drop); err != nil {
			exitWithError(fmt.Errorf("drop tables: %w", err))
		}
		fmt.Println("dropped existing tables")
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		exitWithError(fmt.Errorf("apply schema: %w", err))
	}

	fmt.Println("schema applied")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "migrate:", err)
	os.Exit(1)
}
