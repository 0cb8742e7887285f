// Package mock provides a deterministic LLM client for development and
// tests. It keys off the JSON template embedded in each prompt kind so the
// downstream extraction and validation paths are exercised for real.
package mock

import (
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// Client implements domain.LLMClient without any network dependency.
type Client struct {
	// Latency simulates provider delay; zero in tests.
	Latency time.Duration
}

func New() *Client { return &Client{} }

const finalEvaluationResponse = "```json\n" + `{
  "overallScore": 82,
  "contentScore": 85,
  "deliveryScore": 78,
  "nonVerbalScore": 80,
  "strengths": [
    "Answers were structured and easy to follow",
    "Good use of concrete examples from past projects",
    "Stayed calm and composed throughout the interview"
  ],
  "improvements": [
    "Quantify the impact of your work more often",
    "Shorten the lead-in before getting to the main point",
    "Maintain steadier eye contact with the camera"
  ],
  "recommendations": "Practice the STAR structure for behavioral questions and rehearse on camera to build comfort with the format.",
  "questionScores": [
    {
      "question": "Tell me about a challenging project you worked on.",
      "score": 84,
      "feedback": "Clear narrative with a concrete outcome; could emphasize your individual contribution more."
    }
  ]
}` + "\n```"

const answerEvaluationResponse = "```json\n" + `{
  "score": 8,
  "strengths": [
    "Clear structure with a concrete example",
    "Appropriate technical vocabulary",
    "Concise conclusion tying back to the question"
  ],
  "weaknesses": [
    "Impact was described without numbers",
    "The role of teammates versus your own was unclear"
  ],
  "suggestions": "Use the STAR structure and quantify the outcome of your actions.",
  "feedback": "A solid answer that demonstrates relevant experience and communicates it well."
}` + "\n```"

const interviewQuestionResponse = "Tell me about a challenging project you worked on recently. What was your role, and how did you handle the hardest technical problem in it?"

// Chat returns a canned response matching the prompt kind.
func (c *Client) Chat(ctx domain.Context, prompt string, _ []domain.ChatMessage, _ float64, _ int) (string, error) {
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	switch {
	case strings.Contains(prompt, "overallScore"):
		return finalEvaluationResponse, nil
	case strings.Contains(prompt, "weaknesses"):
		return answerEvaluationResponse, nil
	default:
		return interviewQuestionResponse, nil
	}
}
