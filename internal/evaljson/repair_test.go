package evaljson_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/evaljson"
)

func validObject() map[string]any {
	return map[string]any{
		"overallScore":    85.0,
		"contentScore":    80.0,
		"deliveryScore":   78.0,
		"nonVerbalScore":  70.0,
		"strengths":       []any{"clear structure", "good examples"},
		"improvements":    []any{"slow down"},
		"recommendations": "keep practicing",
	}
}

func TestValidateAccepts(t *testing.T) {
	res := evaljson.Validate(validObject())
	assert.True(t, res.Valid(), "violations: %v", res.Violations)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	obj := map[string]any{
		"overallScore":   "high",   // not a number
		"contentScore":   150.0,    // out of range
		"deliveryScore":  70.0,     // fine
		"strengths":      []any{},  // empty
		"improvements":   "faster", // not a list
		"questionScores": []any{map[string]any{"score": 50.0}},
	}
	res := evaljson.Validate(obj)
	require.False(t, res.Valid())
	// missing nonVerbalScore, bad overall, out-of-range content, empty
	// strengths, bad improvements, missing recommendations, bad question
	assert.GreaterOrEqual(t, len(res.Violations), 6)
}

func TestRepairTotality(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{},
		{"overallScore": "eighty"},
		{"overallScore": -5.0, "contentScore": 400.0},
		{"strengths": "not a list", "improvements": []any{1.0, 2.0}},
		{"recommendations": 42.0},
		{"questionScores": []any{"junk", map[string]any{"question": "Q1", "score": 900.0}}},
	}
	for i, in := range inputs {
		out := evaljson.Repair(in)
		valid := evaljson.Validate(toObject(t, out))
		assert.True(t, valid.Valid(), "input %d left violations: %v", i, valid.Violations)
		assert.GreaterOrEqual(t, len(out.Strengths), 1, "input %d", i)
		assert.GreaterOrEqual(t, len(out.Improvements), 1, "input %d", i)
		assert.NotEmpty(t, out.Recommendations, "input %d", i)
		for _, s := range []int{out.OverallScore, out.ContentScore, out.DeliveryScore, out.NonVerbalScore} {
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, 100)
		}
	}
}

func TestRepairPerFieldDefaults(t *testing.T) {
	out := evaljson.Repair(map[string]any{})
	assert.Equal(t, 75, out.OverallScore)
	assert.Equal(t, 70, out.ContentScore)
	assert.Equal(t, 65, out.DeliveryScore)
	assert.Equal(t, 60, out.NonVerbalScore)
	// distinct fallbacks, not one shared default
	assert.NotEqual(t, out.OverallScore, out.NonVerbalScore)
	assert.GreaterOrEqual(t, len(out.Strengths), 3)
	assert.GreaterOrEqual(t, len(out.Improvements), 3)
}

func TestRepairScenarioMissingNonVerbalAndEmptyStrengths(t *testing.T) {
	obj := validObject()
	delete(obj, "nonVerbalScore")
	obj["strengths"] = []any{}
	out := evaljson.Repair(obj)
	assert.Equal(t, 60, out.NonVerbalScore)
	assert.GreaterOrEqual(t, len(out.Strengths), 3)
	// untouched fields survive repair
	assert.Equal(t, 85, out.OverallScore)
	assert.Equal(t, []string{"slow down"}, out.Improvements)
}

func TestRepairClampsOutOfRange(t *testing.T) {
	obj := validObject()
	obj["overallScore"] = 130.0
	obj["deliveryScore"] = -12.0
	out := evaljson.Repair(obj)
	assert.Equal(t, 100, out.OverallScore)
	assert.Equal(t, 0, out.DeliveryScore)
}

func TestRepairIdempotentOnValidObject(t *testing.T) {
	first := evaljson.Repair(validObject())
	second := evaljson.Repair(toObject(t, first))
	assert.Equal(t, first, second)
}

func TestRepairKeepsQuestionScores(t *testing.T) {
	obj := validObject()
	obj["questionScores"] = []any{
		map[string]any{"question": "Tell me about X", "score": 88.0, "feedback": "solid"},
		map[string]any{"question": "", "score": 50.0}, // dropped: no question text
	}
	out := evaljson.Repair(obj)
	require.Len(t, out.QuestionScores, 1)
	assert.Equal(t, 88, out.QuestionScores[0].Score)
	assert.Equal(t, "solid", out.QuestionScores[0].Feedback)
}

// toObject round-trips a FinalEvaluation through its JSON form back into the
// generic object shape Validate/Repair consume.
func toObject(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	ext := evaljson.Extract(string(b))
	require.True(t, ext.OK())
	return ext.Object
}
