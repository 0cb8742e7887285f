package usecase

import (
	"fmt"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/analysis/aggregate"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/evaljson"
	"github.com/fairyhunter13/ai-interview-analyzer/pkg/numx"
)

// defaultAnswerScore stands in when a stored per-answer evaluation cannot be
// parsed; on the 0-100 result scale.
const defaultAnswerScore = 75.0

// QuestionResult is one answered question in the assembled results, scored
// on the 0-100 scale.
type QuestionResult struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// InterviewResults is the full post-interview report.
type InterviewResults struct {
	Session   domain.InterviewSession
	Final     domain.FinalEvaluation
	Questions []QuestionResult
	Video     domain.VideoAnalysis
	Audio     domain.AudioAnalysis
}

// ResultService assembles completed-session reports.
type ResultService struct {
	Sessions    domain.SessionRepository
	Questions   domain.QuestionRepository
	Analyses    domain.AnalysisRepository
	Evaluations domain.EvaluationRepository
}

func NewResultService(s domain.SessionRepository, q domain.QuestionRepository, a domain.AnalysisRepository, e domain.EvaluationRepository) ResultService {
	return ResultService{Sessions: s, Questions: q, Analyses: a, Evaluations: e}
}

// Results returns the assembled report for a completed session. An active
// session is a conflict, not a missing resource.
func (s ResultService) Results(ctx domain.Context, sessionID string) (InterviewResults, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return InterviewResults{}, err
	}
	if sess.Status == domain.SessionActive {
		return InterviewResults{}, fmt.Errorf("%w: session still in progress", domain.ErrConflict)
	}

	final, err := s.Evaluations.GetForSession(ctx, sessionID)
	if err != nil {
		return InterviewResults{}, err
	}
	questions, err := s.Questions.AllForSession(ctx, sessionID)
	if err != nil {
		return InterviewResults{}, err
	}
	samples, err := s.Analyses.AllForSession(ctx, sessionID)
	if err != nil {
		return InterviewResults{}, err
	}

	out := InterviewResults{Session: sess, Final: final}
	for _, q := range questions {
		out.Questions = append(out.Questions, questionResult(q))
	}

	var videos []domain.VideoAnalysis
	var audios []domain.AudioAnalysis
	for _, sm := range samples {
		if sm.Video != nil {
			videos = append(videos, *sm.Video)
		}
		if sm.Audio != nil {
			audios = append(audios, *sm.Audio)
		}
	}
	if v := aggregate.Video(videos); v != nil {
		out.Video = *v
	} else {
		out.Video = aggregate.DefaultVideo()
	}
	if a := aggregate.Audio(audios); a != nil {
		out.Audio = *a
	} else {
		out.Audio = aggregate.DefaultAudio()
	}
	return out, nil
}

// questionResult re-parses the stored raw evaluation text at read time; the
// per-answer scale is 1-10 so it is lifted to 0-100 here.
func questionResult(q domain.InterviewQuestion) QuestionResult {
	r := QuestionResult{Question: q.Question, Answer: q.Answer, Score: defaultAnswerScore}
	if q.EvalText == "" {
		return r
	}
	report, err := evaljson.ParseAnswerReport(q.EvalText)
	if err != nil {
		return r
	}
	r.Score = numx.Round1(report.Score * 10)
	r.Feedback = report.Feedback
	return r
}
