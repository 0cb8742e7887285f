package filler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, dir string, seconds int) string {
	t.Helper()
	const rate = 8000
	data := make([]int, rate*seconds)
	for i := range data {
		data[i] = (i % 64) * 100
	}
	path := filepath.Join(dir, "answer.wav")
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, writeWAV(path, buf))
	return path
}

func TestSplitWAVShortFileIsPassedThrough(t *testing.T) {
	path := writeTestWAV(t, t.TempDir(), 2)
	segs, err := SplitWAV(path, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, segs)
}

func TestSplitWAVSplitsLongFile(t *testing.T) {
	path := writeTestWAV(t, t.TempDir(), 5)
	segs, err := SplitWAV(path, 2)
	require.NoError(t, err)
	require.Len(t, segs, 3)
	for _, seg := range segs {
		assert.FileExists(t, seg)
	}

	// Segments must round-trip as standalone recordings.
	sub, err := SplitWAV(segs[0], 60)
	require.NoError(t, err)
	assert.Equal(t, []string{segs[0]}, sub)
}

func TestSplitWAVMissingFile(t *testing.T) {
	_, err := SplitWAV(filepath.Join(t.TempDir(), "nope.wav"), 60)
	assert.Error(t, err)
}

type fakeTranscriber struct {
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.calls = append(f.calls, path)
	if err := f.errs[path]; err != nil {
		return "", err
	}
	return f.texts[path], nil
}

func TestCountFillersSumsAcrossSegments(t *testing.T) {
	ft := &fakeTranscriber{texts: map[string]string{
		"a.wav": "um so I think, um, basically it works",
		"b.wav": "you know the Actually hard part",
	}}
	vocab := []string{"um", "you know", "basically", "actually"}
	n := CountFillers(context.Background(), []string{"a.wav", "b.wav"}, ft, vocab, time.Second)
	assert.Equal(t, 5, n)
	assert.Equal(t, []string{"a.wav", "b.wav"}, ft.calls)
}

func TestCountFillersToleratesFailedSegment(t *testing.T) {
	ft := &fakeTranscriber{
		texts: map[string]string{"a.wav": "um um", "c.wav": "um"},
		errs:  map[string]error{"b.wav": errors.New("provider unavailable")},
	}
	n := CountFillers(context.Background(), []string{"a.wav", "b.wav", "c.wav"}, ft, []string{"um"}, time.Second)
	assert.Equal(t, 3, n, "failed segment contributes zero, the rest still count")
	assert.Len(t, ft.calls, 3)
}

func TestCountFillersEmptySegments(t *testing.T) {
	assert.Zero(t, CountFillers(context.Background(), nil, &fakeTranscriber{}, []string{"um"}, time.Second))
}
