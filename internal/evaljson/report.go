package evaljson

import (
	"fmt"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// ParseAnswerReport extracts the per-answer EvaluationReport from raw LLM
// text. Unlike the session-level path there is no repair step: the report is
// transient, re-derived from the stored raw text at read time, and a broken
// one just falls back to defaults at the call site.
func ParseAnswerReport(text string) (domain.EvaluationReport, error) {
	ext := Extract(text)
	if !ext.OK() {
		return domain.EvaluationReport{}, fmt.Errorf("op=evaljson.ParseAnswerReport: %w", ext.Err)
	}

	var rep domain.EvaluationReport
	if n, ok := asNumber(ext.Object["score"]); ok {
		rep.Score = domain.ClampFloat(n, 1, 10)
	} else {
		return domain.EvaluationReport{}, fmt.Errorf("op=evaljson.ParseAnswerReport: %w: score missing", domain.ErrSchemaInvalid)
	}
	if items, ok := asStringList(ext.Object["strengths"]); ok {
		rep.Strengths = items
	}
	if items, ok := asStringList(ext.Object["weaknesses"]); ok {
		rep.Weaknesses = items
	}
	rep.Suggestions, _ = ext.Object["suggestions"].(string)
	rep.Feedback, _ = ext.Object["feedback"].(string)
	return rep, nil
}
