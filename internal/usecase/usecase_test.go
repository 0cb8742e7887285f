package usecase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// In-memory fakes shared by the service tests.

type fakeSessions struct {
	mu     sync.Mutex
	seq    int
	items  map[string]domain.InterviewSession
	getErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{items: map[string]domain.InterviewSession{}}
}

func (f *fakeSessions) Create(_ domain.Context, s domain.InterviewSession) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	s.ID = fmt.Sprintf("sess-%d", f.seq)
	f.items[s.ID] = s
	return s.ID, nil
}

func (f *fakeSessions) Get(_ domain.Context, id string) (domain.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.InterviewSession{}, f.getErr
	}
	s, ok := f.items[id]
	if !ok {
		return domain.InterviewSession{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessions) UpdateStatus(_ domain.Context, id string, status domain.SessionStatus, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	s.CompletedAt = completedAt
	f.items[id] = s
	return nil
}

type fakeQuestions struct {
	mu    sync.Mutex
	seq   int
	items []domain.InterviewQuestion
}

func (f *fakeQuestions) Create(_ domain.Context, q domain.InterviewQuestion) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	q.ID = fmt.Sprintf("q-%d", f.seq)
	f.items = append(f.items, q)
	return q.ID, nil
}

func (f *fakeQuestions) UpdateAnswer(_ domain.Context, id, answer, evalText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Answer = answer
			f.items[i].EvalText = evalText
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeQuestions) LatestForSession(_ domain.Context, sessionID string) (domain.InterviewQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].SessionID == sessionID {
			return f.items[i], nil
		}
	}
	return domain.InterviewQuestion{}, domain.ErrNotFound
}

func (f *fakeQuestions) AllForSession(_ domain.Context, sessionID string) ([]domain.InterviewQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.InterviewQuestion
	for _, q := range f.items {
		if q.SessionID == sessionID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) CountForSession(_ domain.Context, sessionID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.items {
		if q.SessionID == sessionID && q.Answer != "" {
			n++
		}
	}
	return n, nil
}

type analysisKey struct{ sessionID, questionID string }

type fakeAnalyses struct {
	mu        sync.Mutex
	items     map[analysisKey]domain.MultimodalSample
	upsertErr error
}

func newFakeAnalyses() *fakeAnalyses {
	return &fakeAnalyses{items: map[analysisKey]domain.MultimodalSample{}}
}

func (f *fakeAnalyses) CreateOrUpdate(_ domain.Context, sessionID, questionID string, video *domain.VideoAnalysis, audio *domain.AudioAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.items[analysisKey{sessionID, questionID}] = domain.MultimodalSample{
		SessionID:  sessionID,
		QuestionID: questionID,
		Video:      video,
		Audio:      audio,
	}
	return nil
}

func (f *fakeAnalyses) AllForSession(_ domain.Context, sessionID string) ([]domain.MultimodalSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MultimodalSample
	for k, v := range f.items {
		if k.sessionID == sessionID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeEvaluations struct {
	mu    sync.Mutex
	items map[string]domain.FinalEvaluation
}

func newFakeEvaluations() *fakeEvaluations {
	return &fakeEvaluations{items: map[string]domain.FinalEvaluation{}}
}

func (f *fakeEvaluations) Create(_ domain.Context, e domain.FinalEvaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[e.SessionID] = e
	return nil
}

func (f *fakeEvaluations) GetForSession(_ domain.Context, sessionID string) (domain.FinalEvaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[sessionID]
	if !ok {
		return domain.FinalEvaluation{}, domain.ErrNotFound
	}
	return e, nil
}

type fakeJobs struct {
	mu    sync.Mutex
	seq   int
	items map[string]domain.AnalysisJob
}

func newFakeJobs() *fakeJobs { return &fakeJobs{items: map[string]domain.AnalysisJob{}} }

func (f *fakeJobs) Create(_ domain.Context, j domain.AnalysisJob) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	j.ID = fmt.Sprintf("job-%d", f.seq)
	f.items[j.ID] = j
	return j.ID, nil
}

func (f *fakeJobs) UpdateStatus(_ domain.Context, id string, status domain.JobStatus, errMsg *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = status
	if errMsg != nil {
		j.Error = *errMsg
	}
	f.items[id] = j
	return nil
}

func (f *fakeJobs) Get(_ domain.Context, id string) (domain.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.items[id]
	if !ok {
		return domain.AnalysisJob{}, domain.ErrNotFound
	}
	return j, nil
}

type fakeQueue struct {
	mu       sync.Mutex
	payloads []domain.AnalyzeTaskPayload
	err      error
}

func (f *fakeQueue) EnqueueAnalyze(_ domain.Context, p domain.AnalyzeTaskPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, p)
	return p.JobID, nil
}

// scriptedLLM returns queued responses in order.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	prompts   []string
	err       error
}

func (f *scriptedLLM) Chat(_ domain.Context, prompt string, _ []domain.ChatMessage, _ float64, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("scripted llm exhausted")
	}
	out := f.responses[0]
	f.responses = f.responses[1:]
	return out, nil
}
