package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.SparkEnabled())
	assert.False(t, cfg.STTEnabled())
	assert.Equal(t, []string{"localhost:19092"}, cfg.KafkaBrokers)
}

func TestSparkEnabledNeedsAllThree(t *testing.T) {
	t.Setenv("SPARK_APP_ID", "app")
	t.Setenv("SPARK_API_KEY", "key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.SparkEnabled())

	t.Setenv("SPARK_API_SECRET", "secret")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.SparkEnabled())
}

func TestLoadAnalysisConfigMissingFile(t *testing.T) {
	cfg, err := LoadAnalysisConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.IdealSpeechRate)
	assert.Equal(t, 60, cfg.SegmentSeconds)
	assert.Equal(t, 300, cfg.MaxFrames)
	assert.NotEmpty(t, cfg.FillerWords)
}

func TestLoadAnalysisConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analysis.yaml")
	body := "filler_words: [\"donc\", \"euh\"]\nideal_speech_rate: 3.5\nsegment_seconds: 30\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadAnalysisConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"donc", "euh"}, cfg.FillerWords)
	assert.Equal(t, 3.5, cfg.IdealSpeechRate)
	assert.Equal(t, 30, cfg.SegmentSeconds)
	// untouched fields keep defaults
	assert.Equal(t, 300, cfg.MaxFrames)
}

func TestLoadAnalysisConfigBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filler_words: ["), 0o600))
	_, err := LoadAnalysisConfig(path)
	assert.Error(t, err)
}
