// Package filler counts filler words in an answer recording by transcribing
// bounded audio segments. Transcription providers cap utterance length, so
// long recordings are split before being sent.
package filler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/pkg/textx"
)

// DefaultSegmentSeconds is the provider utterance cap.
const DefaultSegmentSeconds = 60

// SplitWAV splits a PCM WAV file into segments of at most maxSeconds each,
// written next to the source. A recording that already fits is returned
// as-is without rewriting.
func SplitWAV(path string, maxSeconds int) ([]string, error) {
	if maxSeconds <= 0 {
		maxSeconds = DefaultSegmentSeconds
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("op=filler.SplitWAV open: %w", err)
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("op=filler.SplitWAV decode: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("op=filler.SplitWAV: missing format: %w", domain.ErrInvalidArgument)
	}

	chunk := maxSeconds * buf.Format.SampleRate * buf.Format.NumChannels
	if len(buf.Data) <= chunk {
		return []string{path}, nil
	}

	base := strings.TrimSuffix(path, ".wav")
	var segments []string
	for i, off := 0, 0; off < len(buf.Data); i, off = i+1, off+chunk {
		end := off + chunk
		if end > len(buf.Data) {
			end = len(buf.Data)
		}
		segPath := fmt.Sprintf("%s.seg%03d.wav", base, i)
		seg := &audio.IntBuffer{
			Format:         buf.Format,
			Data:           buf.Data[off:end],
			SourceBitDepth: buf.SourceBitDepth,
		}
		if err := writeWAV(segPath, seg); err != nil {
			return nil, err
		}
		segments = append(segments, segPath)
	}
	return segments, nil
}

func writeWAV(path string, buf *audio.IntBuffer) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("op=filler.writeWAV create: %w", err)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	enc := wav.NewEncoder(out, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)
	if err := enc.Write(buf); err != nil {
		out.Close()
		return fmt.Errorf("op=filler.writeWAV encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("op=filler.writeWAV close encoder: %w", err)
	}
	return out.Close()
}

// CountFillers transcribes each segment in order and sums occurrences of the
// vocabulary phrases. A segment that fails or times out contributes zero;
// the remaining segments are still processed, so the count is a lower bound
// under partial provider failure.
func CountFillers(ctx context.Context, segments []string, t domain.Transcriber, vocab []string, perSegmentTimeout time.Duration) int {
	total := 0
	for _, seg := range segments {
		segCtx, cancel := context.WithTimeout(ctx, perSegmentTimeout)
		text, err := t.Transcribe(segCtx, seg)
		cancel()
		if err != nil {
			slog.Warn("segment transcription failed", slog.String("segment", seg), slog.Any("error", err))
			continue
		}
		total += textx.CountOccurrences(text, vocab)
	}
	return total
}
