// Package media shells out to ffmpeg for container decoding and manages the
// on-disk spool shared between the HTTP server and the worker. ffmpeg is the
// one external binary this service depends on; everything it produces is
// consumed as raw PCM or raw greyscale frames so no codec logic lives here.
package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/go-audio/wav"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

const (
	// FrameWidth and FrameHeight are the analysis resolution; detection
	// cascades are scale invariant, so small frames keep the worker cheap.
	FrameWidth  = 320
	FrameHeight = 240
	// AudioSampleRate matches what both the feature extractor and the
	// dictation service expect.
	AudioSampleRate = 16000
)

// FFmpeg wraps the external binary.
type FFmpeg struct {
	Bin string
}

func NewFFmpeg(bin string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpeg{Bin: bin}
}

// ExtractAudioWAV transcodes the audio track of src into a 16kHz mono
// 16-bit WAV at dst. A source without a decodable audio track is an
// ErrInvalidArgument.
func (f *FFmpeg) ExtractAudioWAV(ctx domain.Context, src, dst string) error {
	args := []string{
		"-y", "-i", src,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(AudioSampleRate),
		"-ac", "1",
		dst,
	}
	return f.run(ctx, "ExtractAudioWAV", args, nil)
}

// DecodeGrayFrames decodes up to maxFrames greyscale frames at the analysis
// resolution. The rawvideo stream is sliced into fixed-size frames; a
// truncated trailing frame is dropped.
func (f *FFmpeg) DecodeGrayFrames(ctx domain.Context, src string, maxFrames int) ([]*image.Gray, error) {
	args := []string{
		"-i", src,
		"-vf", fmt.Sprintf("scale=%d:%d", FrameWidth, FrameHeight),
		"-frames:v", fmt.Sprint(maxFrames),
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-",
	}
	var stdout bytes.Buffer
	if err := f.run(ctx, "DecodeGrayFrames", args, &stdout); err != nil {
		return nil, err
	}

	frameBytes := FrameWidth * FrameHeight
	raw := stdout.Bytes()
	n := len(raw) / frameBytes
	if n == 0 {
		return nil, fmt.Errorf("op=media.DecodeGrayFrames: no decodable frames: %w", domain.ErrInvalidArgument)
	}
	frames := make([]*image.Gray, n)
	for i := 0; i < n; i++ {
		img := image.NewGray(image.Rect(0, 0, FrameWidth, FrameHeight))
		copy(img.Pix, raw[i*frameBytes:(i+1)*frameBytes])
		frames[i] = img
	}
	return frames, nil
}

func (f *FFmpeg) run(ctx domain.Context, op string, args []string, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, f.Bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if stdout != nil {
		cmd.Stdout = stdout
	}
	slog.Debug("ffmpeg invocation", slog.String("op", op), slog.String("args", strings.Join(args, " ")))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("op=media.%s: %w: %v", op, domain.ErrUpstreamTimeout, ctx.Err())
		}
		return fmt.Errorf("op=media.%s: %w: %v: %s", op, domain.ErrInvalidArgument, err, stderrTail(&stderr))
	}
	return nil
}

// stderrTail keeps error payloads bounded; ffmpeg is chatty.
func stderrTail(b *bytes.Buffer) string {
	s := strings.TrimSpace(b.String())
	const max = 400
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}

// LoadWAV decodes a PCM WAV file into normalized mono float samples in
// [-1, 1] plus the sample rate. Multi-channel audio is averaged down.
func LoadWAV(path string) ([]float64, int, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("op=media.LoadWAV open: %w", err)
	}
	defer fp.Close()

	buf, err := wav.NewDecoder(fp).FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("op=media.LoadWAV decode: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("op=media.LoadWAV: missing format: %w", domain.ErrInvalidArgument)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int(1) << (bitDepth - 1))

	ch := buf.Format.NumChannels
	if ch <= 0 {
		ch = 1
	}
	samples := make([]float64, 0, len(buf.Data)/ch)
	for i := 0; i+ch <= len(buf.Data); i += ch {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i+c])
		}
		samples = append(samples, sum/float64(ch)/scale)
	}
	return samples, buf.Format.SampleRate, nil
}
