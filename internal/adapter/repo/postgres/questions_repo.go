package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// QuestionRepo persists interview questions and answers.
type QuestionRepo struct{ Pool PgxPool }

func NewQuestionRepo(p PgxPool) *QuestionRepo { return &QuestionRepo{Pool: p} }

// Create inserts a new question and returns its id.
func (r *QuestionRepo) Create(ctx domain.Context, q domain.InterviewQuestion) (string, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Create")
	defer span.End()
	id := q.ID
	if id == "" {
		id = uuid.New().String()
	}
	sql := `INSERT INTO questions (id, session_id, question, answer, eval_text, position, created_at)
	        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.Pool.Exec(ctx, sql, id, q.SessionID, q.Question, q.Answer, q.EvalText, q.Position, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=question.create: %w", err)
	}
	return id, nil
}

// UpdateAnswer records the candidate's answer plus the raw evaluation text.
func (r *QuestionRepo) UpdateAnswer(ctx domain.Context, id, answer, evalText string) error {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.UpdateAnswer")
	defer span.End()
	sql := `UPDATE questions SET answer=$2, eval_text=$3 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, sql, id, answer, evalText)
	if err != nil {
		return fmt.Errorf("op=question.update_answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=question.update_answer: %w", domain.ErrNotFound)
	}
	return nil
}

const questionColumns = `id, session_id, question, COALESCE(answer,''), COALESCE(eval_text,''), position, created_at`

// LatestForSession returns the highest-position question of a session.
func (r *QuestionRepo) LatestForSession(ctx domain.Context, sessionID string) (domain.InterviewQuestion, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.LatestForSession")
	defer span.End()
	sql := `SELECT ` + questionColumns + ` FROM questions WHERE session_id=$1 ORDER BY position DESC LIMIT 1`
	var q domain.InterviewQuestion
	err := r.Pool.QueryRow(ctx, sql, sessionID).Scan(&q.ID, &q.SessionID, &q.Question, &q.Answer, &q.EvalText, &q.Position, &q.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.InterviewQuestion{}, fmt.Errorf("op=question.latest: %w", domain.ErrNotFound)
		}
		return domain.InterviewQuestion{}, fmt.Errorf("op=question.latest: %w", err)
	}
	return q, nil
}

// AllForSession returns a session's questions in asked order.
func (r *QuestionRepo) AllForSession(ctx domain.Context, sessionID string) ([]domain.InterviewQuestion, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.AllForSession")
	defer span.End()
	sql := `SELECT ` + questionColumns + ` FROM questions WHERE session_id=$1 ORDER BY position ASC`
	rows, err := r.Pool.Query(ctx, sql, sessionID)
	if err != nil {
		return nil, fmt.Errorf("op=question.all: %w", err)
	}
	defer rows.Close()
	var out []domain.InterviewQuestion
	for rows.Next() {
		var q domain.InterviewQuestion
		if err := rows.Scan(&q.ID, &q.SessionID, &q.Question, &q.Answer, &q.EvalText, &q.Position, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=question.all: scan: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=question.all: rows: %w", err)
	}
	return out, nil
}

// CountForSession counts answered questions.
func (r *QuestionRepo) CountForSession(ctx domain.Context, sessionID string) (int, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.CountForSession")
	defer span.End()
	sql := `SELECT COUNT(*) FROM questions WHERE session_id=$1 AND COALESCE(answer,'') <> ''`
	var n int
	if err := r.Pool.QueryRow(ctx, sql, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=question.count: %w", err)
	}
	return n, nil
}
