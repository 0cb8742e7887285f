// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/analysis/aggregate"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/evaljson"
)

const (
	questionTemperature = 0.7
	questionMaxTokens   = 1024
	evalTemperature     = 0.5
	evalMaxTokens       = 2048
	finalEvalMaxTokens  = 4096

	defaultQuestionCount = 5
	maxQuestionCount     = 20
)

// InterviewService orchestrates sessions: question generation, per-answer
// evaluation and session completion.
type InterviewService struct {
	Sessions    domain.SessionRepository
	Questions   domain.QuestionRepository
	Analyses    domain.AnalysisRepository
	Evaluations domain.EvaluationRepository
	LLM         domain.LLMClient
}

func NewInterviewService(s domain.SessionRepository, q domain.QuestionRepository, a domain.AnalysisRepository, e domain.EvaluationRepository, llm domain.LLMClient) InterviewService {
	return InterviewService{Sessions: s, Questions: q, Analyses: a, Evaluations: e, LLM: llm}
}

// StartOutcome is what the caller gets back from Start.
type StartOutcome struct {
	SessionID  string
	QuestionID string
	Question   string
}

// Start creates a session and generates its first question. LLM failure here
// surfaces to the caller; a session without a first question is useless.
func (s InterviewService) Start(ctx domain.Context, positionType, difficulty, style string, questionCount int) (StartOutcome, error) {
	if strings.TrimSpace(positionType) == "" {
		return StartOutcome{}, fmt.Errorf("%w: position type required", domain.ErrInvalidArgument)
	}
	if difficulty == "" {
		difficulty = "medium"
	}
	if style == "" {
		style = "formal"
	}
	if questionCount <= 0 {
		questionCount = defaultQuestionCount
	}
	if questionCount > maxQuestionCount {
		return StartOutcome{}, fmt.Errorf("%w: question count above %d", domain.ErrInvalidArgument, maxQuestionCount)
	}

	sess := domain.InterviewSession{
		PositionType:     positionType,
		Difficulty:       difficulty,
		InterviewerStyle: style,
		QuestionCount:    questionCount,
		Status:           domain.SessionActive,
		CreatedAt:        time.Now().UTC(),
	}
	sessionID, err := s.Sessions.Create(ctx, sess)
	if err != nil {
		return StartOutcome{}, err
	}

	question, err := s.LLM.Chat(ctx, QuestionPrompt(positionType, difficulty, style, nil), nil, questionTemperature, questionMaxTokens)
	if err != nil {
		return StartOutcome{}, err
	}
	question = strings.TrimSpace(question)

	questionID, err := s.Questions.Create(ctx, domain.InterviewQuestion{
		SessionID: sessionID,
		Question:  question,
		Position:  1,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return StartOutcome{}, err
	}
	slog.Info("interview started",
		slog.String("session_id", sessionID),
		slog.String("position_type", positionType),
		slog.Int("question_count", questionCount))
	return StartOutcome{SessionID: sessionID, QuestionID: questionID, Question: question}, nil
}

// AnswerOutcome is what the caller gets back from Answer: the per-answer
// evaluation plus either the next question or the completed final report.
type AnswerOutcome struct {
	Evaluation     domain.EvaluationReport
	NextQuestionID string
	NextQuestion   string
	Completed      bool
	Final          *domain.FinalEvaluation
}

// Answer records the candidate's answer to the latest question, evaluates it
// and either asks the next question or completes the session.
func (s InterviewService) Answer(ctx domain.Context, sessionID, answer string) (AnswerOutcome, error) {
	if strings.TrimSpace(answer) == "" {
		return AnswerOutcome{}, fmt.Errorf("%w: answer required", domain.ErrInvalidArgument)
	}
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if sess.Status != domain.SessionActive {
		return AnswerOutcome{}, fmt.Errorf("%w: session is %s", domain.ErrConflict, sess.Status)
	}

	current, err := s.Questions.LatestForSession(ctx, sessionID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if current.Answer != "" {
		return AnswerOutcome{}, fmt.Errorf("%w: current question already answered", domain.ErrConflict)
	}

	evalText, err := s.LLM.Chat(ctx, AnswerEvalPrompt(current.Question, answer, sess.PositionType), nil, evalTemperature, evalMaxTokens)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if err := s.Questions.UpdateAnswer(ctx, current.ID, answer, evalText); err != nil {
		return AnswerOutcome{}, err
	}

	out := AnswerOutcome{}
	// A malformed per-answer report is tolerated: the raw text is stored and
	// the outcome carries a zero report rather than failing the answer.
	if report, perr := evaljson.ParseAnswerReport(evalText); perr == nil {
		out.Evaluation = report
	} else {
		slog.Warn("answer evaluation unparseable, keeping raw text",
			slog.String("session_id", sessionID),
			slog.String("question_id", current.ID),
			slog.Any("error", perr))
	}

	answered, err := s.Questions.CountForSession(ctx, sessionID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if answered >= sess.QuestionCount {
		final, err := s.complete(ctx, sess)
		if err != nil {
			return AnswerOutcome{}, err
		}
		out.Completed = true
		out.Final = &final
		return out, nil
	}

	asked, err := s.Questions.AllForSession(ctx, sessionID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	next, err := s.LLM.Chat(ctx, QuestionPrompt(sess.PositionType, sess.Difficulty, sess.InterviewerStyle, asked), nil, questionTemperature, questionMaxTokens)
	if err != nil {
		return AnswerOutcome{}, err
	}
	next = strings.TrimSpace(next)
	nextID, err := s.Questions.Create(ctx, domain.InterviewQuestion{
		SessionID: sessionID,
		Question:  next,
		Position:  answered + 1,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return AnswerOutcome{}, err
	}
	out.NextQuestionID = nextID
	out.NextQuestion = next
	return out, nil
}

// complete aggregates the multimodal samples, asks for the final report and
// persists its repaired form. The raw LLM text never reaches storage
// unrepaired.
func (s InterviewService) complete(ctx domain.Context, sess domain.InterviewSession) (domain.FinalEvaluation, error) {
	questions, err := s.Questions.AllForSession(ctx, sess.ID)
	if err != nil {
		return domain.FinalEvaluation{}, err
	}
	samples, err := s.Analyses.AllForSession(ctx, sess.ID)
	if err != nil {
		return domain.FinalEvaluation{}, err
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
	video := aggregate.Video(videos)
	audio := aggregate.Audio(audios)

	text, err := s.LLM.Chat(ctx, FinalEvalPrompt(sess.PositionType, questions, video, audio), nil, evalTemperature, finalEvalMaxTokens)
	if err != nil {
		return domain.FinalEvaluation{}, err
	}

	var final domain.FinalEvaluation
	if res := evaljson.Extract(text); !res.OK() {
		slog.Warn("final evaluation unparseable, using repaired defaults",
			slog.String("session_id", sess.ID),
			slog.Any("error", res.Err))
		final = evaljson.Repair(nil)
	} else if v := evaljson.Validate(res.Object); v.Valid() {
		final = evaljson.FromObject(res.Object)
	} else {
		slog.Warn("final evaluation violates contract, repairing",
			slog.String("session_id", sess.ID),
			slog.Any("violations", v.Violations))
		final = evaljson.Repair(res.Object)
	}
	final.SessionID = sess.ID
	final.CreatedAt = time.Now().UTC()

	if err := s.Evaluations.Create(ctx, final); err != nil {
		return domain.FinalEvaluation{}, err
	}
	now := time.Now().UTC()
	if err := s.Sessions.UpdateStatus(ctx, sess.ID, domain.SessionCompleted, &now); err != nil {
		return domain.FinalEvaluation{}, err
	}
	slog.Info("interview completed",
		slog.String("session_id", sess.ID),
		slog.Int("overall_score", final.OverallScore))
	return final, nil
}
