package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/config"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/usecase"
)

type stubInterviews struct {
	startOut  usecase.StartOutcome
	startErr  error
	answerOut usecase.AnswerOutcome
	answerErr error
	gotAnswer string
}

func (s *stubInterviews) Start(_ domain.Context, _, _, _ string, _ int) (usecase.StartOutcome, error) {
	return s.startOut, s.startErr
}

func (s *stubInterviews) Answer(_ domain.Context, _, answer string) (usecase.AnswerOutcome, error) {
	s.gotAnswer = answer
	return s.answerOut, s.answerErr
}

type stubAnalysis struct {
	jobID      string
	enqueueErr error
	job        domain.AnalysisJob
	jobErr     error
	gotKind    domain.MediaKind
	gotPath    string
}

func (s *stubAnalysis) EnqueueClip(_ domain.Context, _, _ string, kind domain.MediaKind, path string) (string, error) {
	s.gotKind = kind
	s.gotPath = path
	return s.jobID, s.enqueueErr
}

func (s *stubAnalysis) JobStatus(_ domain.Context, _ string) (domain.AnalysisJob, error) {
	return s.job, s.jobErr
}

type stubResults struct {
	res usecase.InterviewResults
	err error
}

func (s *stubResults) Results(_ domain.Context, _ string) (usecase.InterviewResults, error) {
	return s.res, s.err
}

type stubMedia struct {
	path    string
	kind    domain.MediaKind
	saveErr error
	removed []string
}

func (s *stubMedia) Save(r io.Reader) (string, domain.MediaKind, error) {
	_, _ = io.Copy(io.Discard, r)
	return s.path, s.kind, s.saveErr
}

func (s *stubMedia) Remove(paths ...string) { s.removed = append(s.removed, paths...) }

func testRouter(srv *Server) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/v1/interviews", srv.StartInterviewHandler())
	r.Post("/v1/interviews/{id}/answers", srv.AnswerHandler())
	r.Post("/v1/interviews/{id}/media", srv.MediaUploadHandler())
	r.Get("/v1/analysis/{jobID}", srv.JobStatusHandler())
	r.Get("/v1/interviews/{id}/results", srv.ResultsHandler())
	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	return r
}

func newTestServer(iv InterviewAPI, an AnalysisAPI, rs ResultsAPI, md MediaStore) *Server {
	return NewServer(config.Config{MaxUploadMB: 10}, iv, an, rs, md, nil, nil)
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStartInterview(t *testing.T) {
	iv := &stubInterviews{startOut: usecase.StartOutcome{SessionID: "sess-1", QuestionID: "q-1", Question: "Tell me about yourself."}}
	router := testRouter(newTestServer(iv, &stubAnalysis{}, &stubResults{}, &stubMedia{}))

	rec := postJSON(t, router, "/v1/interviews", `{"position_type":"backend engineer","question_count":5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp["session_id"])
	assert.Equal(t, "Tell me about yourself.", resp["question"])
}

func TestStartInterviewValidation(t *testing.T) {
	router := testRouter(newTestServer(&stubInterviews{}, &stubAnalysis{}, &stubResults{}, &stubMedia{}))

	rec := postJSON(t, router, "/v1/interviews", `{"difficulty":"medium"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "positiontype")

	rec = postJSON(t, router, "/v1/interviews", `{"position_type":"x","difficulty":"impossible"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/v1/interviews", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswerReturnsNextQuestion(t *testing.T) {
	iv := &stubInterviews{answerOut: usecase.AnswerOutcome{
		Evaluation:     domain.EvaluationReport{Score: 8, Feedback: "solid"},
		NextQuestionID: "q-2",
		NextQuestion:   "What about concurrency?",
	}}
	router := testRouter(newTestServer(iv, &stubAnalysis{}, &stubResults{}, &stubMedia{}))

	rec := postJSON(t, router, "/v1/interviews/sess-1/answers", `{"answer":"I built queues."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "I built queues.", iv.gotAnswer)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["completed"])
	assert.Equal(t, "q-2", resp["next_question_id"])
	assert.NotContains(t, resp, "final_evaluation")
}

func TestAnswerCompletedCarriesFinal(t *testing.T) {
	iv := &stubInterviews{answerOut: usecase.AnswerOutcome{
		Completed: true,
		Final:     &domain.FinalEvaluation{OverallScore: 82, Strengths: []string{"clear"}},
	}}
	router := testRouter(newTestServer(iv, &stubAnalysis{}, &stubResults{}, &stubMedia{}))

	rec := postJSON(t, router, "/v1/interviews/sess-1/answers", `{"answer":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Completed bool `json:"completed"`
		Final     *struct {
			OverallScore int `json:"overallScore"`
		} `json:"final_evaluation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Completed)
	require.NotNil(t, resp.Final)
	assert.Equal(t, 82, resp.Final.OverallScore)
}

func TestAnswerConflictOnCompletedSession(t *testing.T) {
	iv := &stubInterviews{answerErr: fmt.Errorf("op=interview.answer: %w", domain.ErrConflict)}
	router := testRouter(newTestServer(iv, &stubAnalysis{}, &stubResults{}, &stubMedia{}))

	rec := postJSON(t, router, "/v1/interviews/sess-1/answers", `{"answer":"late"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFLICT")
}

func multipartBody(t *testing.T, questionID string, media []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if questionID != "" {
		require.NoError(t, mw.WriteField("question_id", questionID))
	}
	fw, err := mw.CreateFormFile("media", "clip.webm")
	require.NoError(t, err)
	_, err = fw.Write(media)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestMediaUploadEnqueues(t *testing.T) {
	an := &stubAnalysis{jobID: "job-1"}
	md := &stubMedia{path: "/spool/clip.webm", kind: domain.MediaVideo}
	router := testRouter(newTestServer(&stubInterviews{}, an, &stubResults{}, md))

	body, contentType := multipartBody(t, "q-1", []byte("fake media bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess-1/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.MediaVideo, an.gotKind)
	assert.Equal(t, "/spool/clip.webm", an.gotPath)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp["job_id"])
	assert.Equal(t, "queued", resp["status"])
}

func TestMediaUploadRejectsUnknownContent(t *testing.T) {
	md := &stubMedia{saveErr: fmt.Errorf("op=spool.save: %w: unsupported content type", domain.ErrInvalidArgument)}
	router := testRouter(newTestServer(&stubInterviews{}, &stubAnalysis{}, &stubResults{}, md))

	body, contentType := multipartBody(t, "q-1", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess-1/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestMediaUploadRequiresQuestionID(t *testing.T) {
	router := testRouter(newTestServer(&stubInterviews{}, &stubAnalysis{}, &stubResults{}, &stubMedia{}))

	body, contentType := multipartBody(t, "", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess-1/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question_id")
}

func TestMediaUploadEnqueueFailureCleansSpool(t *testing.T) {
	an := &stubAnalysis{enqueueErr: fmt.Errorf("enqueue failed: %w", domain.ErrInternal)}
	md := &stubMedia{path: "/spool/clip.webm", kind: domain.MediaVideo}
	router := testRouter(newTestServer(&stubInterviews{}, an, &stubResults{}, md))

	body, contentType := multipartBody(t, "q-1", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess-1/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []string{"/spool/clip.webm"}, md.removed)
}

func TestMediaUploadRequiresMultipart(t *testing.T) {
	router := testRouter(newTestServer(&stubInterviews{}, &stubAnalysis{}, &stubResults{}, &stubMedia{}))
	rec := postJSON(t, router, "/v1/interviews/sess-1/media", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobStatus(t *testing.T) {
	an := &stubAnalysis{job: domain.AnalysisJob{
		ID: "job-1", SessionID: "sess-1", QuestionID: "q-1",
		Kind: domain.MediaAudio, Status: domain.JobFailed, Error: "decode failed",
	}}
	router := testRouter(newTestServer(&stubInterviews{}, an, &stubResults{}, &stubMedia{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/analysis/job-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp["status"])
	assert.Equal(t, "decode failed", resp["error"])
}

func TestJobStatusNotFound(t *testing.T) {
	an := &stubAnalysis{jobErr: fmt.Errorf("op=job.get: %w", domain.ErrNotFound)}
	router := testRouter(newTestServer(&stubInterviews{}, an, &stubResults{}, &stubMedia{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/analysis/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultsEnvelope(t *testing.T) {
	rs := &stubResults{res: usecase.InterviewResults{
		Session: domain.InterviewSession{ID: "sess-1", PositionType: "backend engineer", Status: domain.SessionCompleted, QuestionCount: 5},
		Final:   domain.FinalEvaluation{OverallScore: 82, Strengths: []string{"a"}, Improvements: []string{"b"}},
		Questions: []usecase.QuestionResult{
			{Question: "Q1", Answer: "A1", Score: 80, Feedback: "good"},
		},
		Video: domain.VideoAnalysis{EyeContact: 8, Confidence: 7.9},
		Audio: domain.AudioAnalysis{Clarity: 7, FillerWordsCount: 3},
	}}
	router := testRouter(newTestServer(&stubInterviews{}, &stubAnalysis{}, rs, &stubMedia{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/interviews/sess-1/results", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Session struct {
			Status string `json:"status"`
		} `json:"session"`
		Evaluation struct {
			OverallScore int `json:"overallScore"`
		} `json:"evaluation"`
		Questions []usecase.QuestionResult `json:"questions"`
		Video     domain.VideoAnalysis     `json:"video_analysis"`
		Audio     domain.AudioAnalysis     `json:"audio_analysis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Session.Status)
	assert.Equal(t, 82, resp.Evaluation.OverallScore)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, 8.0, resp.Video.EyeContact)
	assert.Equal(t, 3, resp.Audio.FillerWordsCount)
}

func TestResultsConflictWhileActive(t *testing.T) {
	rs := &stubResults{err: fmt.Errorf("op=results: %w", domain.ErrConflict)}
	router := testRouter(newTestServer(&stubInterviews{}, &stubAnalysis{}, rs, &stubMedia{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/interviews/sess-1/results", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealthz(t *testing.T) {
	router := testRouter(newTestServer(&stubInterviews{}, &stubAnalysis{}, &stubResults{}, &stubMedia{}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzDegraded(t *testing.T) {
	srv := newTestServer(&stubInterviews{}, &stubAnalysis{}, &stubResults{}, &stubMedia{})
	srv.DBCheck = func(context.Context) error { return nil }
	srv.QueueCheck = func(context.Context) error { return errors.New("brokers unreachable") }
	router := testRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "brokers unreachable")
}

func TestRequestIDMiddleware(t *testing.T) {
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, LoggerFrom(r))
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRecovererTurnsPanicInto500(t *testing.T) {
	h := Recoverer()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
