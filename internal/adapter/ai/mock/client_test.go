package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/evaljson"
)

func TestChatFinalEvaluationParses(t *testing.T) {
	c := New()
	out, err := c.Chat(context.Background(), `report with "overallScore": ...`, nil, 0.7, 4096)
	require.NoError(t, err)

	res := evaljson.Extract(out)
	require.NoError(t, res.Err)
	v := evaljson.Validate(res.Object)
	assert.True(t, v.Valid(), "canned final evaluation must pass validation: %v", v.Violations)
}

func TestChatAnswerEvaluationParses(t *testing.T) {
	c := New()
	out, err := c.Chat(context.Background(), `respond with "weaknesses" per the format`, nil, 0.7, 2048)
	require.NoError(t, err)

	report, err := evaljson.ParseAnswerReport(out)
	require.NoError(t, err)
	assert.InDelta(t, 8, report.Score, 0.001)
	assert.NotEmpty(t, report.Strengths)
}

func TestChatDefaultsToQuestion(t *testing.T) {
	c := New()
	out, err := c.Chat(context.Background(), "ask the next interview question", nil, 0.7, 1024)
	require.NoError(t, err)
	assert.Contains(t, out, "?")
}

func TestChatHonorsCancelledContext(t *testing.T) {
	c := New()
	c.Latency = 100 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Chat(ctx, "anything", nil, 0.7, 64)
	assert.Error(t, err)
}
