package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// EvaluationRepo persists final session evaluations. One row per session;
// scores are columns for queryability, list fields are JSONB.
type EvaluationRepo struct{ Pool PgxPool }

func NewEvaluationRepo(p PgxPool) *EvaluationRepo { return &EvaluationRepo{Pool: p} }

// Create inserts the final evaluation of a session.
func (r *EvaluationRepo) Create(ctx domain.Context, e domain.FinalEvaluation) error {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.Create")
	defer span.End()

	strengths, err := json.Marshal(e.Strengths)
	if err != nil {
		return fmt.Errorf("op=evaluation.create: strengths: %w", err)
	}
	improvements, err := json.Marshal(e.Improvements)
	if err != nil {
		return fmt.Errorf("op=evaluation.create: improvements: %w", err)
	}
	questionScores, err := json.Marshal(e.QuestionScores)
	if err != nil {
		return fmt.Errorf("op=evaluation.create: question scores: %w", err)
	}

	q := `INSERT INTO evaluations
	      (id, session_id, overall_score, content_score, delivery_score, non_verbal_score,
	       strengths, improvements, recommendations, question_scores, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err = r.Pool.Exec(ctx, q, uuid.New().String(), e.SessionID,
		e.OverallScore, e.ContentScore, e.DeliveryScore, e.NonVerbalScore,
		strengths, improvements, e.Recommendations, questionScores, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("op=evaluation.create: %w", err)
	}
	return nil
}

// GetForSession loads the final evaluation of a session.
func (r *EvaluationRepo) GetForSession(ctx domain.Context, sessionID string) (domain.FinalEvaluation, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.GetForSession")
	defer span.End()

	q := `SELECT session_id, overall_score, content_score, delivery_score, non_verbal_score,
	             strengths, improvements, recommendations, question_scores, created_at
	      FROM evaluations WHERE session_id=$1`
	var e domain.FinalEvaluation
	var strengths, improvements, questionScores []byte
	err := r.Pool.QueryRow(ctx, q, sessionID).Scan(&e.SessionID,
		&e.OverallScore, &e.ContentScore, &e.DeliveryScore, &e.NonVerbalScore,
		&strengths, &improvements, &e.Recommendations, &questionScores, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.FinalEvaluation{}, fmt.Errorf("op=evaluation.get: %w", domain.ErrNotFound)
		}
		return domain.FinalEvaluation{}, fmt.Errorf("op=evaluation.get: %w", err)
	}
	if err := json.Unmarshal(strengths, &e.Strengths); err != nil {
		return domain.FinalEvaluation{}, fmt.Errorf("op=evaluation.get: strengths: %w", err)
	}
	if err := json.Unmarshal(improvements, &e.Improvements); err != nil {
		return domain.FinalEvaluation{}, fmt.Errorf("op=evaluation.get: improvements: %w", err)
	}
	if len(questionScores) > 0 {
		if err := json.Unmarshal(questionScores, &e.QuestionScores); err != nil {
			return domain.FinalEvaluation{}, fmt.Errorf("op=evaluation.get: question scores: %w", err)
		}
	}
	return e, nil
}
