package evaljson

import (
	"fmt"
)

// Contract bounds for a FinalEvaluation.
const (
	scoreMin = 0
	scoreMax = 100
)

var numericFields = []string{"overallScore", "contentScore", "deliveryScore", "nonVerbalScore"}
var listFields = []string{"strengths", "improvements"}

// ValidationResult is the typed outcome of the EXTRACTED -> VALIDATED step.
// Violations are collected exhaustively rather than failing on the first.
type ValidationResult struct {
	Violations []string
}

// Valid reports whether the object satisfied the whole contract.
func (v ValidationResult) Valid() bool { return len(v.Violations) == 0 }

// Validate checks an extracted object against the FinalEvaluation contract:
// four numeric fields in [0,100], strengths/improvements as non-empty string
// lists, recommendations as a string. questionScores, when present, must be
// a list of {question,score,feedback} objects.
func Validate(obj map[string]any) ValidationResult {
	var res ValidationResult

	for _, f := range numericFields {
		v, ok := obj[f]
		if !ok {
			res.Violations = append(res.Violations, fmt.Sprintf("%s: missing", f))
			continue
		}
		n, ok := asNumber(v)
		if !ok {
			res.Violations = append(res.Violations, fmt.Sprintf("%s: not a number", f))
			continue
		}
		if n < scoreMin || n > scoreMax {
			res.Violations = append(res.Violations, fmt.Sprintf("%s: %v out of [0,100]", f, n))
		}
	}

	for _, f := range listFields {
		items, ok := asStringList(obj[f])
		if !ok {
			res.Violations = append(res.Violations, fmt.Sprintf("%s: not a string list", f))
			continue
		}
		if len(items) == 0 {
			res.Violations = append(res.Violations, fmt.Sprintf("%s: empty", f))
		}
	}

	if v, ok := obj["recommendations"]; !ok {
		res.Violations = append(res.Violations, "recommendations: missing")
	} else if s, ok := v.(string); !ok || s == "" {
		res.Violations = append(res.Violations, "recommendations: not a non-empty string")
	}

	if raw, ok := obj["questionScores"]; ok {
		if entries, ok := raw.([]any); ok {
			for i, e := range entries {
				m, ok := e.(map[string]any)
				if !ok {
					res.Violations = append(res.Violations, fmt.Sprintf("questionScores[%d]: not an object", i))
					continue
				}
				if _, ok := m["question"].(string); !ok {
					res.Violations = append(res.Violations, fmt.Sprintf("questionScores[%d].question: not a string", i))
				}
				if _, ok := asNumber(m["score"]); !ok {
					res.Violations = append(res.Violations, fmt.Sprintf("questionScores[%d].score: not a number", i))
				}
			}
		} else {
			res.Violations = append(res.Violations, "questionScores: not a list")
		}
	}

	return res
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case interface{ Float64() (float64, error) }: // json.Number
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func asStringList(v any) ([]string, bool) {
	if v == nil {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		s, ok := e.(string)
		if !ok || s == "" {
			continue
		}
		out = append(out, s)
	}
	return out, true
}
