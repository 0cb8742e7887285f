// Package evaljson turns a language model's free-text evaluation output into
// contract-compliant structures. The flow is a three-state machine:
// RAW_TEXT -> EXTRACTED (some JSON object was found and parsed) ->
// VALIDATED (it satisfied the contract) or REPAIRED (deterministic defaults
// and clamping forced it into compliance). Extraction can fail; validation
// and repair cannot lose data integrity: repair is total.
package evaljson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractionResult is the typed outcome of the RAW_TEXT -> EXTRACTED step.
type ExtractionResult struct {
	// Object is the parsed JSON object; nil when extraction failed.
	Object map[string]any
	// Source tells which strategy succeeded: "whole", "fenced", "braces".
	Source string
	// Err is non-nil when no strategy produced a JSON object. Callers must
	// treat the evaluation as unusable and must not persist anything.
	Err error
}

// OK reports whether extraction produced an object.
func (r ExtractionResult) OK() bool { return r.Err == nil && r.Object != nil }

// Extract finds a JSON object inside raw LLM text. Strategies, in order:
// parse the whole text; parse the first fenced code block containing an
// object; parse the first-'{'-to-last-'}' substring. First success wins.
func Extract(text string) ExtractionResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return ExtractionResult{Err: fmt.Errorf("%w: empty evaluation text", domain.ErrSchemaInvalid)}
	}

	if obj, ok := parseObject(text); ok {
		return ExtractionResult{Object: obj, Source: "whole"}
	}

	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		if obj, ok := parseObject(m[1]); ok {
			return ExtractionResult{Object: obj, Source: "fenced"}
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if obj, ok := parseObject(text[start : end+1]); ok {
			return ExtractionResult{Object: obj, Source: "braces"}
		}
	}

	return ExtractionResult{Err: fmt.Errorf("%w: no parseable JSON object in evaluation text", domain.ErrSchemaInvalid)}
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, obj != nil
}
