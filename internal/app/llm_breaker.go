package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// BreakerLLM wraps an LLM client with a circuit breaker so a Spark outage
// fails interviews fast instead of stacking up long timeouts. Bad requests
// are the caller's fault and don't count against the breaker.
type BreakerLLM struct {
	inner   domain.LLMClient
	breaker *observability.CircuitBreaker
}

// NewBreakerLLM wraps inner; the breaker opens after maxFailures consecutive
// upstream failures and probes again after timeout.
func NewBreakerLLM(inner domain.LLMClient, maxFailures int, timeout time.Duration) *BreakerLLM {
	return &BreakerLLM{
		inner:   inner,
		breaker: observability.NewCircuitBreaker("llm", maxFailures, timeout),
	}
}

func (b *BreakerLLM) Chat(ctx domain.Context, prompt string, history []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	var out string
	var badReq error
	err := b.breaker.Call(func() error {
		resp, err := b.inner.Chat(ctx, prompt, history, temperature, maxTokens)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				badReq = err
				return nil
			}
			return err
		}
		out = resp
		return nil
	})
	if badReq != nil {
		return "", badReq
	}
	if err != nil {
		var open observability.ErrCircuitOpen
		if errors.As(err, &open) {
			return "", fmt.Errorf("op=llm.breaker: %w: %v", domain.ErrUpstreamFailure, err)
		}
		return "", err
	}
	return out, nil
}
