// Package stt implements the speech-to-text websocket dictation protocol
// used for filler-word transcription. Audio is streamed in paced PCM frames;
// partial results arrive until the service reports the final status.
package stt

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/gorilla/websocket"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/ai/spark"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/config"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

const (
	// frameSize is the PCM byte count per streamed frame.
	frameSize = 8000
	// frameInterval paces the upload the way a live microphone would.
	frameInterval = 40 * time.Millisecond

	statusFirst = 0
	statusCont  = 1
	statusLast  = 2
)

// Client implements domain.Transcriber against the dictation service.
type Client struct {
	cfg    config.Config
	dialer *websocket.Dialer
	now    func() time.Time
}

func New(cfg config.Config) *Client {
	return &Client{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		now:    time.Now,
	}
}

type audioFrame struct {
	Common *struct {
		AppID string `json:"app_id"`
	} `json:"common,omitempty"`
	Business *struct {
		Domain   string `json:"domain"`
		Language string `json:"language"`
		Accent   string `json:"accent"`
		VadEOS   int    `json:"vad_eos"`
	} `json:"business,omitempty"`
	Data struct {
		Status   int    `json:"status"`
		Format   string `json:"format"`
		Audio    string `json:"audio"`
		Encoding string `json:"encoding"`
	} `json:"data"`
}

type recognitionResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
		Result struct {
			WS []struct {
				CW []struct {
					W string `json:"w"`
				} `json:"cw"`
			} `json:"ws"`
		} `json:"result"`
	} `json:"data"`
}

// Transcribe streams one WAV segment and returns the concatenated transcript.
func (c *Client) Transcribe(ctx domain.Context, segmentPath string) (string, error) {
	pcm, err := readPCM(segmentPath)
	if err != nil {
		return "", err
	}

	signedURL, err := spark.SignURL(c.cfg.STTWSURL, c.cfg.STTAPIKey, c.cfg.STTAPISecret, c.now())
	if err != nil {
		return "", err
	}
	conn, _, err := c.dialer.DialContext(ctx, signedURL, nil)
	if err != nil {
		return "", fmt.Errorf("op=stt.Transcribe dial: %w: %v", domain.ErrUpstreamFailure, err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	done := make(chan struct{})
	var transcript strings.Builder
	var readErr error
	go func() {
		defer close(done)
		for {
			var res recognitionResult
			if err := conn.ReadJSON(&res); err != nil {
				readErr = fmt.Errorf("op=stt.Transcribe read: %w: %v", domain.ErrUpstreamFailure, err)
				return
			}
			if res.Code != 0 {
				readErr = fmt.Errorf("op=stt.Transcribe: %w: code=%d message=%s",
					domain.ErrUpstreamFailure, res.Code, res.Message)
				return
			}
			for _, w := range res.Data.Result.WS {
				if len(w.CW) > 0 {
					transcript.WriteString(w.CW[0].W)
				}
			}
			if res.Data.Status == statusLast {
				return
			}
		}
	}()

	if err := c.streamFrames(ctx, conn, pcm); err != nil {
		return "", err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return "", fmt.Errorf("op=stt.Transcribe: %w: %v", domain.ErrUpstreamTimeout, ctx.Err())
	}
	if readErr != nil {
		return "", readErr
	}
	slog.Debug("segment transcribed",
		slog.String("segment", segmentPath),
		slog.Int("transcript_len", transcript.Len()))
	return transcript.String(), nil
}

func (c *Client) streamFrames(ctx domain.Context, conn *websocket.Conn, pcm []byte) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	status := statusFirst
	for off := 0; ; off += frameSize {
		end := off + frameSize
		if end >= len(pcm) {
			end = len(pcm)
			status = statusLast
		}

		var frame audioFrame
		if status == statusFirst {
			frame.Common = &struct {
				AppID string `json:"app_id"`
			}{AppID: c.cfg.STTAppID}
			frame.Business = &struct {
				Domain   string `json:"domain"`
				Language string `json:"language"`
				Accent   string `json:"accent"`
				VadEOS   int    `json:"vad_eos"`
			}{Domain: "iat", Language: "zh_cn", Accent: "mandarin", VadEOS: 10000}
		}
		frame.Data.Status = status
		frame.Data.Format = "audio/L16;rate=16000"
		frame.Data.Encoding = "raw"
		frame.Data.Audio = base64.StdEncoding.EncodeToString(pcm[off:end])

		if err := conn.WriteJSON(frame); err != nil {
			return fmt.Errorf("op=stt.Transcribe write frame: %w: %v", domain.ErrUpstreamFailure, err)
		}
		if status == statusLast {
			return nil
		}
		if status == statusFirst {
			status = statusCont
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("op=stt.Transcribe: %w: %v", domain.ErrUpstreamTimeout, ctx.Err())
		}
	}
}

// readPCM decodes a WAV segment into raw 16-bit little-endian PCM bytes.
func readPCM(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("op=stt.readPCM open: %w", err)
	}
	defer f.Close()

	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("op=stt.readPCM decode: %w", err)
	}
	out := make([]byte, 0, len(buf.Data)*2)
	for _, s := range buf.Data {
		out = append(out, byte(s), byte(s>>8))
	}
	return out, nil
}

// Noop is the Transcriber used when no dictation credentials are configured;
// every segment transcribes to the empty string, so filler counts are zero.
type Noop struct{}

func (Noop) Transcribe(domain.Context, string) (string, error) { return "", nil }
