package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// SessionRepo persists interview sessions.
type SessionRepo struct{ Pool PgxPool }

func NewSessionRepo(p PgxPool) *SessionRepo { return &SessionRepo{Pool: p} }

// Create inserts a new session and returns its id.
func (r *SessionRepo) Create(ctx domain.Context, s domain.InterviewSession) (string, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Create")
	defer span.End()
	id := s.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO sessions (id, position_type, difficulty, interviewer_style, question_count, status, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.Pool.Exec(ctx, q, id, s.PositionType, s.Difficulty, s.InterviewerStyle, s.QuestionCount, s.Status, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=session.create: %w", err)
	}
	return id, nil
}

// Get loads a session by id.
func (r *SessionRepo) Get(ctx domain.Context, id string) (domain.InterviewSession, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Get")
	defer span.End()
	q := `SELECT id, position_type, difficulty, interviewer_style, question_count, status, created_at, completed_at
	      FROM sessions WHERE id=$1`
	var s domain.InterviewSession
	err := r.Pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.PositionType, &s.Difficulty, &s.InterviewerStyle,
		&s.QuestionCount, &s.Status, &s.CreatedAt, &s.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.InterviewSession{}, fmt.Errorf("op=session.get: %w", domain.ErrNotFound)
		}
		return domain.InterviewSession{}, fmt.Errorf("op=session.get: %w", err)
	}
	return s, nil
}

// UpdateStatus transitions a session and stamps completion when provided.
func (r *SessionRepo) UpdateStatus(ctx domain.Context, id string, status domain.SessionStatus, completedAt *time.Time) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.UpdateStatus")
	defer span.End()
	q := `UPDATE sessions SET status=$2, completed_at=$3 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, status, completedAt)
	if err != nil {
		return fmt.Errorf("op=session.update_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=session.update_status: %w", domain.ErrNotFound)
	}
	return nil
}
