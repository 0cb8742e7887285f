package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/config"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/usecase"
)

// InterviewAPI is the slice of the interview usecase the handlers need.
type InterviewAPI interface {
	Start(ctx domain.Context, positionType, difficulty, style string, questionCount int) (usecase.StartOutcome, error)
	Answer(ctx domain.Context, sessionID, answer string) (usecase.AnswerOutcome, error)
}

// AnalysisAPI enqueues clip analysis jobs and reports their status.
type AnalysisAPI interface {
	EnqueueClip(ctx domain.Context, sessionID, questionID string, kind domain.MediaKind, mediaPath string) (string, error)
	JobStatus(ctx domain.Context, jobID string) (domain.AnalysisJob, error)
}

// ResultsAPI assembles completed-interview reports.
type ResultsAPI interface {
	Results(ctx domain.Context, sessionID string) (usecase.InterviewResults, error)
}

// MediaStore spools uploaded clips for the worker. Save sniffs the content
// and rejects anything that is not audio or video.
type MediaStore interface {
	Save(r io.Reader) (string, domain.MediaKind, error)
	Remove(paths ...string)
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Interviews InterviewAPI
	Analysis   AnalysisAPI
	Results    ResultsAPI
	Media      MediaStore
	DBCheck    func(ctx context.Context) error
	QueueCheck func(ctx context.Context) error
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, interviews InterviewAPI, analysis AnalysisAPI, results ResultsAPI, media MediaStore, dbCheck, queueCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Interviews: interviews, Analysis: analysis, Results: results, Media: media, DBCheck: dbCheck, QueueCheck: queueCheck}
}

func decodeValidated(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

// StartInterviewHandler creates a session and returns its first question.
func (s *Server) StartInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PositionType     string `json:"position_type" validate:"required,max=200"`
			Difficulty       string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
			InterviewerStyle string `json:"interviewer_style" validate:"omitempty,max=100"`
			QuestionCount    int    `json:"question_count" validate:"omitempty,min=1,max=20"`
		}
		if !decodeValidated(w, r, &req) {
			return
		}
		out, err := s.Interviews.Start(r.Context(), req.PositionType, req.Difficulty, req.InterviewerStyle, req.QuestionCount)
		if err != nil {
			writeError(w, r, fmt.Errorf("start interview: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"session_id":  out.SessionID,
			"question_id": out.QuestionID,
			"question":    out.Question,
		})
	}
}

// AnswerHandler records an answer and returns either the next question or
// the final evaluation.
func (s *Server) AnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		if sessionID == "" {
			writeError(w, r, fmt.Errorf("%w: session id missing", domain.ErrInvalidArgument), nil)
			return
		}
		var req struct {
			Answer string `json:"answer" validate:"required,max=20000"`
		}
		if !decodeValidated(w, r, &req) {
			return
		}
		out, err := s.Interviews.Answer(r.Context(), sessionID, req.Answer)
		if err != nil {
			writeError(w, r, fmt.Errorf("answer: %w", err), nil)
			return
		}
		resp := map[string]any{
			"evaluation": out.Evaluation,
			"completed":  out.Completed,
		}
		if out.Completed {
			resp["final_evaluation"] = out.Final
		} else {
			resp["next_question_id"] = out.NextQuestionID
			resp["next_question"] = out.NextQuestion
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// MediaUploadHandler spools an uploaded clip and enqueues its analysis job.
func (s *Server) MediaUploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		if sessionID == "" {
			writeError(w, r, fmt.Errorf("%w: session id missing", domain.ErrInvalidArgument), nil)
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}

		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code:    "INVALID_ARGUMENT",
					Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		questionID := r.FormValue("question_id")
		if questionID == "" {
			writeError(w, r, fmt.Errorf("%w: question_id required", domain.ErrInvalidArgument), map[string]string{"field": "question_id"})
			return
		}
		file, _, err := r.FormFile("media")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: media file required", domain.ErrInvalidArgument), map[string]string{"field": "media"})
			return
		}
		defer func() { _ = file.Close() }()

		path, kind, err := s.Media.Save(file)
		if err != nil {
			// Content sniffing rejected the clip.
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code:    "INVALID_ARGUMENT",
				Message: "unsupported media type",
				Details: map[string]string{"error": err.Error()},
			}})
			return
		}

		jobID, err := s.Analysis.EnqueueClip(r.Context(), sessionID, questionID, kind, path)
		if err != nil {
			s.Media.Remove(path)
			writeError(w, r, fmt.Errorf("enqueue clip: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"job_id": jobID,
			"kind":   string(kind),
			"status": string(domain.JobQueued),
		})
	}
}

// JobStatusHandler returns the state of one analysis job.
func (s *Server) JobStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		if jobID == "" {
			writeError(w, r, fmt.Errorf("%w: job id missing", domain.ErrInvalidArgument), nil)
			return
		}
		job, err := s.Analysis.JobStatus(r.Context(), jobID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		resp := map[string]any{
			"id":          job.ID,
			"session_id":  job.SessionID,
			"question_id": job.QuestionID,
			"kind":        string(job.Kind),
			"status":      string(job.Status),
		}
		if job.Error != "" {
			resp["error"] = job.Error
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ResultsHandler returns the full report of a completed interview.
func (s *Server) ResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		if sessionID == "" {
			writeError(w, r, fmt.Errorf("%w: session id missing", domain.ErrInvalidArgument), nil)
			return
		}
		res, err := s.Results.Results(r.Context(), sessionID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, buildResultsEnvelope(res))
	}
}

func buildResultsEnvelope(res usecase.InterviewResults) map[string]any {
	sess := map[string]any{
		"id":             res.Session.ID,
		"position_type":  res.Session.PositionType,
		"difficulty":     res.Session.Difficulty,
		"question_count": res.Session.QuestionCount,
		"status":         string(res.Session.Status),
		"created_at":     res.Session.CreatedAt,
	}
	if res.Session.CompletedAt != nil {
		sess["completed_at"] = res.Session.CompletedAt
	}
	return map[string]any{
		"session":        sess,
		"evaluation":     res.Final,
		"questions":      res.Questions,
		"video_analysis": res.Video,
		"audio_analysis": res.Audio,
	}
}

// HealthzHandler is a trivial liveness probe.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the DB and the queue.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.QueueCheck != nil {
			if err := s.QueueCheck(ctx); err != nil {
				checks = append(checks, check{Name: "queue", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "queue", OK: true})
			}
		}
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

// OpenAPIServe serves api/openapi.yaml if present.
func (s *Server) OpenAPIServe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile("api/openapi.yaml")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
