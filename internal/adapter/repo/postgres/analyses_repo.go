package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// AnalysisRepo persists per-question multimodal samples. The analyses are
// stored as JSONB documents; their shape is owned by the domain structs and
// queried only whole.
type AnalysisRepo struct{ Pool PgxPool }

func NewAnalysisRepo(p PgxPool) *AnalysisRepo { return &AnalysisRepo{Pool: p} }

// CreateOrUpdate upserts on (session_id, question_id) so redelivered jobs
// overwrite rather than duplicate.
func (r *AnalysisRepo) CreateOrUpdate(ctx domain.Context, sessionID, questionID string, video *domain.VideoAnalysis, audio *domain.AudioAnalysis) error {
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.CreateOrUpdate")
	defer span.End()

	videoJSON, err := marshalNullable(video)
	if err != nil {
		return fmt.Errorf("op=analysis.upsert: video: %w", err)
	}
	audioJSON, err := marshalNullable(audio)
	if err != nil {
		return fmt.Errorf("op=analysis.upsert: audio: %w", err)
	}

	q := `INSERT INTO analyses (id, session_id, question_id, video, audio, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6)
	      ON CONFLICT (session_id, question_id)
	      DO UPDATE SET video=COALESCE(EXCLUDED.video, analyses.video),
	                    audio=COALESCE(EXCLUDED.audio, analyses.audio)`
	_, err = r.Pool.Exec(ctx, q, uuid.New().String(), sessionID, questionID, videoJSON, audioJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=analysis.upsert: %w", err)
	}
	return nil
}

// AllForSession loads every sample of a session.
func (r *AnalysisRepo) AllForSession(ctx domain.Context, sessionID string) ([]domain.MultimodalSample, error) {
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.AllForSession")
	defer span.End()

	q := `SELECT session_id, question_id, video, audio, created_at
	      FROM analyses WHERE session_id=$1 ORDER BY created_at ASC`
	rows, err := r.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("op=analysis.all: %w", err)
	}
	defer rows.Close()

	var out []domain.MultimodalSample
	for rows.Next() {
		var s domain.MultimodalSample
		var videoJSON, audioJSON []byte
		if err := rows.Scan(&s.SessionID, &s.QuestionID, &videoJSON, &audioJSON, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=analysis.all: scan: %w", err)
		}
		if len(videoJSON) > 0 {
			var v domain.VideoAnalysis
			if err := json.Unmarshal(videoJSON, &v); err != nil {
				return nil, fmt.Errorf("op=analysis.all: video decode: %w", err)
			}
			s.Video = &v
		}
		if len(audioJSON) > 0 {
			var a domain.AudioAnalysis
			if err := json.Unmarshal(audioJSON, &a); err != nil {
				return nil, fmt.Errorf("op=analysis.all: audio decode: %w", err)
			}
			s.Audio = &a
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=analysis.all: rows: %w", err)
	}
	return out, nil
}

// marshalNullable keeps SQL NULL for absent analyses instead of the JSON
// literal null.
func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case *domain.VideoAnalysis:
		if t == nil {
			return nil, nil
		}
	case *domain.AudioAnalysis:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
