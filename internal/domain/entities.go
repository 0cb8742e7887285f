package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrInternal        = errors.New("internal error")
)

// SessionStatus enumerates interview session states.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// InterviewSession is one end-to-end interview: an ordered sequence of
// questions plus, once completed, exactly one FinalEvaluation.
type InterviewSession struct {
	ID               string
	PositionType     string
	Difficulty       string
	InterviewerStyle string
	QuestionCount    int
	Status           SessionStatus
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// InterviewQuestion is one question in a session. Answer and the raw LLM
// evaluation text are filled in when the candidate answers; EvalText is kept
// verbatim and re-parsed at read time (the structured per-answer report is
// transient by design).
type InterviewQuestion struct {
	ID        string
	SessionID string
	Question  string
	Answer    string
	EvalText  string
	Position  int
	CreatedAt time.Time
}

// BodyLanguageDetails are the optional sub-scores behind the body language
// composite. All in [0,10].
type BodyLanguageDetails struct {
	Stability float64 `json:"stability"`
	HeadPose  float64 `json:"headPose"`
	UpperBody float64 `json:"upperBody"`
	Motion    float64 `json:"motion"`
}

// VideoAnalysis holds behavioral scores derived from one recorded clip.
// Immutable after creation; owned by the question it analyzes.
// Degraded marks the designed fallback emitted when the clip had no usable
// frames, so consumers can tell neutral defaults from real signal.
type VideoAnalysis struct {
	EyeContact          float64              `json:"eyeContact"`
	FacialExpressions   float64              `json:"facialExpressions"`
	BodyLanguage        float64              `json:"bodyLanguage"`
	Confidence          float64              `json:"confidence"`
	BodyLanguageDetails *BodyLanguageDetails `json:"bodyLanguageDetails,omitempty"`
	Recommendations     string               `json:"recommendations"`
	Degraded            bool                 `json:"degraded,omitempty"`
}

// AudioAnalysis holds vocal-delivery scores for one clip's audio track.
type AudioAnalysis struct {
	Clarity          float64 `json:"clarity"`
	Pace             float64 `json:"pace"`
	Tone             float64 `json:"tone"`
	FillerWordsCount int     `json:"fillerWordsCount"`
	SpeechRate       float64 `json:"speechRate,omitempty"`
	PitchMean        float64 `json:"pitchMean,omitempty"`
	Duration         float64 `json:"duration,omitempty"`
	Recommendations  string  `json:"recommendations"`
	Degraded         bool    `json:"degraded,omitempty"`
}

// MultimodalSample is the per-question analysis record: either side may be
// absent when only one medium was uploaded for that answer.
type MultimodalSample struct {
	SessionID  string
	QuestionID string
	Video      *VideoAnalysis
	Audio      *AudioAnalysis
	CreatedAt  time.Time
}

// EvaluationReport is the structured form the LLM emits for a single answer.
// Transient: extracted from the stored raw text at read time.
type EvaluationReport struct {
	Score       float64  `json:"score"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions string   `json:"suggestions"`
	Feedback    string   `json:"feedback"`
}

// QuestionScore is one entry of a FinalEvaluation's per-question breakdown.
type QuestionScore struct {
	Question string `json:"question"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// FinalEvaluation is the session-level report produced once per completed
// session from the LLM's final-evaluation text after validation/repair.
// Invariants: scores in [0,100]; Strengths and Improvements never empty.
type FinalEvaluation struct {
	SessionID       string          `json:"-"`
	OverallScore    int             `json:"overallScore"`
	ContentScore    int             `json:"contentScore"`
	DeliveryScore   int             `json:"deliveryScore"`
	NonVerbalScore  int             `json:"nonVerbalScore"`
	Strengths       []string        `json:"strengths"`
	Improvements    []string        `json:"improvements"`
	Recommendations string          `json:"recommendations"`
	QuestionScores  []QuestionScore `json:"questionScores,omitempty"`
	CreatedAt       time.Time       `json:"-"`
}

// JobStatus enumerates analysis job states.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// MediaKind tells the worker which pipelines a clip feeds.
type MediaKind string

const (
	MediaVideo MediaKind = "video" // video container; audio track extracted from it
	MediaAudio MediaKind = "audio" // standalone audio clip
)

// AnalysisJob tracks one enqueued clip analysis.
type AnalysisJob struct {
	ID         string
	SessionID  string
	QuestionID string
	Kind       MediaKind
	MediaPath  string
	Status     JobStatus
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AnalyzeTaskPayload is the queue message for one analysis job.
type AnalyzeTaskPayload struct {
	JobID      string    `json:"job_id"`
	SessionID  string    `json:"session_id"`
	QuestionID string    `json:"question_id"`
	Kind       MediaKind `json:"kind"`
	MediaPath  string    `json:"media_path"`
}

// ChatMessage is one turn of LLM conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Repositories (ports)

type SessionRepository interface {
	Create(ctx Context, s InterviewSession) (string, error)
	Get(ctx Context, id string) (InterviewSession, error)
	UpdateStatus(ctx Context, id string, status SessionStatus, completedAt *time.Time) error
}

type QuestionRepository interface {
	Create(ctx Context, q InterviewQuestion) (string, error)
	UpdateAnswer(ctx Context, id, answer, evalText string) error
	LatestForSession(ctx Context, sessionID string) (InterviewQuestion, error)
	AllForSession(ctx Context, sessionID string) ([]InterviewQuestion, error)
	CountForSession(ctx Context, sessionID string) (int, error)
}

// AnalysisRepository stores per-question multimodal samples. CreateOrUpdate
// upserts on (session, question) so re-delivered jobs never double-write.
type AnalysisRepository interface {
	CreateOrUpdate(ctx Context, sessionID, questionID string, video *VideoAnalysis, audio *AudioAnalysis) error
	AllForSession(ctx Context, sessionID string) ([]MultimodalSample, error)
}

type EvaluationRepository interface {
	Create(ctx Context, e FinalEvaluation) error
	GetForSession(ctx Context, sessionID string) (FinalEvaluation, error)
}

type JobRepository interface {
	Create(ctx Context, j AnalysisJob) (string, error)
	UpdateStatus(ctx Context, id string, status JobStatus, errMsg *string) error
	Get(ctx Context, id string) (AnalysisJob, error)
}

// Queue (port)

type Queue interface {
	EnqueueAnalyze(ctx Context, payload AnalyzeTaskPayload) (string, error)
}

// LLMClient is the chat contract with the language model service. The
// response is free text; callers never assume it is well-formed structured
// data (that is what evaljson exists for). Implementations are injected,
// never process-wide singletons.
type LLMClient interface {
	Chat(ctx Context, prompt string, history []ChatMessage, temperature float64, maxTokens int) (string, error)
}

// Transcriber converts one bounded audio segment into a transcript. A
// failure means the segment contributes nothing; it never aborts the caller.
type Transcriber interface {
	Transcribe(ctx Context, segmentPath string) (string, error)
}

// Context is an alias to keep the domain package decoupled from adapters;
// callers pass context.Context straight through.
type Context = context.Context

// ClampFloat bounds v to [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
