package usecase

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// Token budget for candidate-supplied text inside prompts; keeps the request
// under the model context window regardless of how long an answer rambles.
const maxAnswerTokens = 1500

const tokenEncoding = "cl100k_base"

// TruncateTokens cuts text down to maxTokens using the model tokenizer. When
// the tokenizer cannot load (offline environments), a conservative rune cut
// stands in.
func TruncateTokens(text string, maxTokens int) string {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		if len([]rune(text)) > maxTokens*4 {
			return string([]rune(text)[:maxTokens*4])
		}
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}

// QuestionPrompt asks for the next interview question, feeding back what was
// already asked and answered so follow-ups build on the conversation.
func QuestionPrompt(positionType, difficulty, style string, asked []domain.InterviewQuestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional interviewer conducting a %s interview for a %s position.\n",
		style, positionType)
	if len(asked) > 0 {
		b.WriteString("\nQuestions already asked and the candidate's answers:\n")
		for i, q := range asked {
			fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, q.Question, i+1, TruncateTokens(q.Answer, maxAnswerTokens))
		}
		fmt.Fprintf(&b, "\nBased on the candidate's answers so far, ask one %s-difficulty follow-up question that probes deeper into their professional competence.\n", difficulty)
	} else {
		fmt.Fprintf(&b, "\nAsk the first interview question at %s difficulty. It should be professional and targeted.\n", difficulty)
	}
	b.WriteString("\nReply with the question text only, no explanation.")
	return b.String()
}

// AnswerEvalPrompt asks for a structured per-answer evaluation. The JSON
// template mirrors what evaljson.ParseAnswerReport expects.
func AnswerEvalPrompt(question, answer, positionType string) string {
	return fmt.Sprintf(`You are a senior interviewer evaluating a candidate for a %s position.

Question: %s

Candidate answer: %s

Evaluate the answer strictly in the following JSON format, with no other text:

`+"```json"+`
{
  "score": <number 1-10>,
  "strengths": ["...", "...", "..."],
  "weaknesses": ["...", "..."],
  "suggestions": "specific advice for improvement",
  "feedback": "overall assessment"
}
`+"```"+`
Make sure the output is valid JSON that can be parsed directly.`,
		positionType, question, TruncateTokens(answer, maxAnswerTokens))
}

// FinalEvalPrompt asks for the session-level report, combining the full
// transcript with the aggregated multimodal scores when present.
func FinalEvalPrompt(positionType string, questions []domain.InterviewQuestion, video *domain.VideoAnalysis, audio *domain.AudioAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an interview assessment expert. Evaluate the full interview of a candidate for a %s position and produce a detailed report.\n\nInterview transcript:\n", positionType)
	for i, q := range questions {
		fmt.Fprintf(&b, "\nQuestion %d: %s\nAnswer %d: %s\n", i+1, q.Question, i+1, TruncateTokens(q.Answer, maxAnswerTokens))
	}
	if video != nil {
		b.WriteString("\nVideo behavior analysis:\n")
		fmt.Fprintf(&b, "Eye contact: %.1f/10\n", video.EyeContact)
		fmt.Fprintf(&b, "Facial expressions: %.1f/10\n", video.FacialExpressions)
		fmt.Fprintf(&b, "Body language: %.1f/10\n", video.BodyLanguage)
		fmt.Fprintf(&b, "Confidence: %.1f/10\n", video.Confidence)
	}
	if audio != nil {
		b.WriteString("\nVocal delivery analysis:\n")
		fmt.Fprintf(&b, "Clarity: %.1f/10\n", audio.Clarity)
		fmt.Fprintf(&b, "Pace: %.1f/10\n", audio.Pace)
		fmt.Fprintf(&b, "Tone: %.1f/10\n", audio.Tone)
		fmt.Fprintf(&b, "Filler words used: %d\n", audio.FillerWordsCount)
	}
	b.WriteString(`
Provide the report strictly in the following JSON format, with no extra explanation or text:

` + "```json" + `
{
  "overallScore": <number 1-100>,
  "contentScore": <number 1-100>,
  "deliveryScore": <number 1-100>,
  "nonVerbalScore": <number 1-100>,
  "strengths": ["...", "...", "..."],
  "improvements": ["...", "...", "..."],
  "recommendations": "specific advice and overall assessment",
  "questionScores": [
    {"question": "...", "score": <number 1-100>, "feedback": "..."}
  ]
}
` + "```" + `

Every score field must be an integer between 1 and 100. strengths and improvements must each contain at least 3 concrete items.`)
	return b.String()
}
