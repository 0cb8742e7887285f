package spark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/config"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

const (
	chatDomain = "generalv3.5"
	// statusDone marks the final chunk of a streamed response.
	statusDone  = 2
	readTimeout = 30 * time.Second
)

// Client implements domain.LLMClient over the Spark websocket protocol.
type Client struct {
	cfg    config.Config
	dialer *websocket.Dialer
	now    func() time.Time
}

// New constructs a websocket chat client.
func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

type chatRequest struct {
	Header struct {
		AppID string `json:"app_id"`
		UID   string `json:"uid"`
	} `json:"header"`
	Parameter struct {
		Chat struct {
			Domain      string  `json:"domain"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Auditing    string  `json:"auditing"`
		} `json:"chat"`
	} `json:"parameter"`
	Payload struct {
		Message struct {
			Text []domain.ChatMessage `json:"text"`
		} `json:"message"`
	} `json:"payload"`
}

type chatChunk struct {
	Header struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		SID     string `json:"sid"`
	} `json:"header"`
	Payload struct {
		Choices struct {
			Status int `json:"status"`
			Text   []struct {
				Content string `json:"content"`
			} `json:"text"`
		} `json:"choices"`
	} `json:"payload"`
}

// Chat opens a signed websocket, sends one request and concatenates streamed
// chunks until the service marks the response done. Transient failures are
// retried with exponential backoff; the whole call, retries included, runs
// under the configured LLM timeout.
func (c *Client) Chat(ctx domain.Context, prompt string, history []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	if c.cfg.LLMTimeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, c.cfg.LLMTimeout)
		defer cancel()
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.cfg.LLMBackoffInitial
	expo.MaxInterval = c.cfg.LLMBackoffMax
	expo.MaxElapsedTime = c.cfg.LLMBackoffMaxElapsed

	var out string
	op := func() error {
		var err error
		out, err = c.chatOnce(ctx, prompt, history, temperature, maxTokens)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) chatOnce(ctx domain.Context, prompt string, history []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	signedURL, err := SignURL(c.cfg.SparkWSURL, c.cfg.SparkAPIKey, c.cfg.SparkAPISecret, c.now())
	if err != nil {
		return "", err
	}

	conn, resp, err := c.dialer.DialContext(ctx, signedURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		slog.Warn("spark dial failed", slog.Int("status", status), slog.Any("error", err))
		return "", fmt.Errorf("op=spark.Chat dial: %w: %v", domain.ErrUpstreamFailure, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetReadDeadline(c.now().Add(readTimeout))
	}

	req := buildRequest(c.cfg.SparkAppID, prompt, history, temperature, maxTokens)
	if err := conn.WriteJSON(req); err != nil {
		return "", fmt.Errorf("op=spark.Chat write: %w: %v", domain.ErrUpstreamFailure, err)
	}

	var b strings.Builder
	for {
		var chunk chatChunk
		if err := conn.ReadJSON(&chunk); err != nil {
			return "", fmt.Errorf("op=spark.Chat read: %w: %v", domain.ErrUpstreamFailure, err)
		}
		if chunk.Header.Code != 0 {
			return "", fmt.Errorf("op=spark.Chat: %w: code=%d message=%s",
				classifyCode(chunk.Header.Code), chunk.Header.Code, chunk.Header.Message)
		}
		for _, t := range chunk.Payload.Choices.Text {
			b.WriteString(t.Content)
		}
		if chunk.Payload.Choices.Status == statusDone {
			slog.Debug("spark chat complete",
				slog.String("sid", chunk.Header.SID),
				slog.Int("response_len", b.Len()))
			return b.String(), nil
		}
	}
}

func buildRequest(appID, prompt string, history []domain.ChatMessage, temperature float64, maxTokens int) chatRequest {
	var req chatRequest
	req.Header.AppID = appID
	req.Header.UID = uuid.NewString()
	req.Parameter.Chat.Domain = chatDomain
	req.Parameter.Chat.Temperature = temperature
	req.Parameter.Chat.MaxTokens = maxTokens
	req.Parameter.Chat.Auditing = "default"
	req.Payload.Message.Text = append(append([]domain.ChatMessage{}, history...),
		domain.ChatMessage{Role: "user", Content: prompt})
	return req
}

// Service error codes 10013/10014 are content-audit rejections and 11200 is
// auth; retrying those wastes the backoff budget.
func classifyCode(code int) error {
	switch code {
	case 10013, 10014, 11200:
		return domain.ErrInvalidArgument
	case 10019:
		return domain.ErrRateLimited
	default:
		return domain.ErrUpstreamFailure
	}
}

func retryable(err error) bool {
	return !errors.Is(err, domain.ErrInvalidArgument)
}
