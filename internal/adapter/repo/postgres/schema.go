package postgres

import (
	"fmt"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// EnsureSchema creates the tables and indexes used by the repositories if
// they do not exist yet. Idempotent, so it runs at every server start.
func EnsureSchema(ctx domain.Context, pool PgxPool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			position_type TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			interviewer_style TEXT NOT NULL DEFAULT '',
			question_count INT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			question TEXT NOT NULL,
			answer TEXT,
			eval_text TEXT,
			position INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_session_position
			ON questions (session_id, position)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			question_id TEXT NOT NULL REFERENCES questions(id),
			video JSONB,
			audio JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (session_id, question_id)
		)`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			overall_score INT NOT NULL,
			content_score INT NOT NULL,
			delivery_score INT NOT NULL,
			non_verbal_score INT NOT NULL,
			strengths JSONB,
			improvements JSONB,
			recommendations TEXT,
			question_scores JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (session_id)
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			media_path TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status_updated
			ON jobs (status, updated_at)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("op=schema.ensure: %w", err)
		}
	}
	return nil
}
