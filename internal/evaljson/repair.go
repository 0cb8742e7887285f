package evaljson

import (
	"math"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// Per-field numeric defaults. Deliberately distinct so a fully-repaired
// report does not show four suspiciously identical scores.
const (
	defaultOverallScore   = 75
	defaultContentScore   = 70
	defaultDeliveryScore  = 65
	defaultNonVerbalScore = 60
)

var defaultStrengths = []string{
	"Answers were structured and easy to follow",
	"Demonstrated solid domain knowledge",
	"Used concrete examples to support points",
}

var defaultImprovements = []string{
	"Keep answers more concise",
	"Back claims with more specific cases",
	"Pay attention to non-verbal communication",
}

const defaultRecommendations = "Aim for concise, well-structured answers, " +
	"maintain eye contact and open body language, and support your points " +
	"with concrete examples from past work."

// Repair forces an extracted object into a contract-compliant
// FinalEvaluation. It is total: any input, including nil, yields a valid
// result. Missing or non-numeric scores get their per-field default;
// out-of-range scores are clamped into [0,100]; empty or missing lists get
// the canned defaults; a missing recommendations string gets the canned
// sentence. Present questionScores entries are kept with scores clamped.
func Repair(obj map[string]any) domain.FinalEvaluation {
	if obj == nil {
		obj = map[string]any{}
	}

	out := domain.FinalEvaluation{
		OverallScore:   repairScore(obj["overallScore"], defaultOverallScore),
		ContentScore:   repairScore(obj["contentScore"], defaultContentScore),
		DeliveryScore:  repairScore(obj["deliveryScore"], defaultDeliveryScore),
		NonVerbalScore: repairScore(obj["nonVerbalScore"], defaultNonVerbalScore),
	}

	out.Strengths = repairList(obj["strengths"], defaultStrengths)
	out.Improvements = repairList(obj["improvements"], defaultImprovements)

	if s, ok := obj["recommendations"].(string); ok && s != "" {
		out.Recommendations = s
	} else {
		out.Recommendations = defaultRecommendations
	}

	if raw, ok := obj["questionScores"].([]any); ok {
		for _, e := range raw {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			q, _ := m["question"].(string)
			if q == "" {
				continue
			}
			score := defaultContentScore
			if n, ok := asNumber(m["score"]); ok {
				score = domain.ClampInt(int(math.Round(n)), scoreMin, scoreMax)
			}
			fb, _ := m["feedback"].(string)
			out.QuestionScores = append(out.QuestionScores, domain.QuestionScore{
				Question: q, Score: score, Feedback: fb,
			})
		}
	}

	return out
}

// FromObject maps an already-validated object into a FinalEvaluation.
// Callers run Validate first; as a belt-and-braces measure scores are still
// clamped (identical values for in-range input, so validated objects round-trip
// unchanged).
func FromObject(obj map[string]any) domain.FinalEvaluation {
	return Repair(obj)
}

func repairScore(v any, fallback int) int {
	n, ok := asNumber(v)
	if !ok {
		return fallback
	}
	return domain.ClampInt(int(math.Round(n)), scoreMin, scoreMax)
}

func repairList(v any, fallback []string) []string {
	items, ok := asStringList(v)
	if !ok || len(items) == 0 {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out
	}
	return items
}
