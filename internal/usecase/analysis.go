package usecase

import (
	"fmt"
	"time"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// AnalysisService creates analysis jobs for uploaded clips and reports their
// progress.
type AnalysisService struct {
	Jobs     domain.JobRepository
	Queue    domain.Queue
	Sessions domain.SessionRepository
}

func NewAnalysisService(j domain.JobRepository, q domain.Queue, s domain.SessionRepository) AnalysisService {
	return AnalysisService{Jobs: j, Queue: q, Sessions: s}
}

// EnqueueClip registers a job for a spooled clip and hands it to the queue.
// The clip stays in the spool until the worker finishes with it.
func (s AnalysisService) EnqueueClip(ctx domain.Context, sessionID, questionID string, kind domain.MediaKind, mediaPath string) (string, error) {
	if sessionID == "" || questionID == "" {
		return "", fmt.Errorf("%w: session and question ids required", domain.ErrInvalidArgument)
	}
	if kind != domain.MediaVideo && kind != domain.MediaAudio {
		return "", fmt.Errorf("%w: unknown media kind %q", domain.ErrInvalidArgument, kind)
	}
	if _, err := s.Sessions.Get(ctx, sessionID); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	jobID, err := s.Jobs.Create(ctx, domain.AnalysisJob{
		SessionID:  sessionID,
		QuestionID: questionID,
		Kind:       kind,
		MediaPath:  mediaPath,
		Status:     domain.JobQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return "", err
	}

	payload := domain.AnalyzeTaskPayload{
		JobID:      jobID,
		SessionID:  sessionID,
		QuestionID: questionID,
		Kind:       kind,
		MediaPath:  mediaPath,
	}
	if _, err := s.Queue.EnqueueAnalyze(ctx, payload); err != nil {
		msg := "enqueue failed"
		_ = s.Jobs.UpdateStatus(ctx, jobID, domain.JobFailed, &msg)
		return "", err
	}
	return jobID, nil
}

// JobStatus returns the current state of one analysis job.
func (s AnalysisService) JobStatus(ctx domain.Context, jobID string) (domain.AnalysisJob, error) {
	if jobID == "" {
		return domain.AnalysisJob{}, fmt.Errorf("%w: job id required", domain.ErrInvalidArgument)
	}
	return s.Jobs.Get(ctx, jobID)
}
