package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// JobRepo persists analysis jobs.
type JobRepo struct{ Pool PgxPool }

func NewJobRepo(p PgxPool) *JobRepo { return &JobRepo{Pool: p} }

// Create inserts a new job and returns its id.
func (r *JobRepo) Create(ctx domain.Context, j domain.AnalysisJob) (string, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Create")
	defer span.End()
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO jobs (id, session_id, question_id, kind, media_path, status, error, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	now := time.Now().UTC()
	_, err := r.Pool.Exec(ctx, q, id, j.SessionID, j.QuestionID, j.Kind, j.MediaPath, j.Status, j.Error, now, now)
	if err != nil {
		return "", fmt.Errorf("op=job.create: %w", err)
	}
	return id, nil
}

// UpdateStatus updates a job's status and optional error message.
func (r *JobRepo) UpdateStatus(ctx domain.Context, id string, status domain.JobStatus, errMsg *string) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.UpdateStatus")
	defer span.End()
	q := `UPDATE jobs SET status=$2, error=$3, updated_at=$4 WHERE id=$1`
	errVal := ""
	if errMsg != nil {
		errVal = *errMsg
	}
	tag, err := r.Pool.Exec(ctx, q, id, status, errVal, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=job.update_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=job.update_status: %w", domain.ErrNotFound)
	}
	return nil
}

// FailStuckProcessing marks processing jobs not touched since cutoff as
// failed. Used by the sweeper to recover jobs whose worker died mid-flight.
func (r *JobRepo) FailStuckProcessing(ctx domain.Context, cutoff time.Time, errMsg string) (int64, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.FailStuckProcessing")
	defer span.End()
	q := `UPDATE jobs SET status=$1, error=$2, updated_at=$3
	      WHERE status=$4 AND updated_at < $5`
	tag, err := r.Pool.Exec(ctx, q, domain.JobFailed, errMsg, time.Now().UTC(), domain.JobProcessing, cutoff)
	if err != nil {
		return 0, fmt.Errorf("op=job.fail_stuck: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Get loads a job by id.
func (r *JobRepo) Get(ctx domain.Context, id string) (domain.AnalysisJob, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Get")
	defer span.End()
	q := `SELECT id, session_id, question_id, kind, media_path, status, COALESCE(error,''), created_at, updated_at
	      FROM jobs WHERE id=$1`
	var j domain.AnalysisJob
	err := r.Pool.QueryRow(ctx, q, id).Scan(&j.ID, &j.SessionID, &j.QuestionID, &j.Kind, &j.MediaPath,
		&j.Status, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.AnalysisJob{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
		}
		return domain.AnalysisJob{}, fmt.Errorf("op=job.get: %w", err)
	}
	return j, nil
}
