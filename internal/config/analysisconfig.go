package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AnalysisConfig holds the tunables of the analysis pipeline. Everything has
// a compiled-in default so a missing file is not an error; a present but
// unparsable file is.
type AnalysisConfig struct {
	// FillerWords is the discourse-marker vocabulary counted against the
	// transcript. Language-specific, so it ships in config rather than code.
	FillerWords []string `yaml:"filler_words"`
	// IdealSpeechRate is the syllables/sec the pace score centers on.
	IdealSpeechRate float64 `yaml:"ideal_speech_rate"`
	// SegmentSeconds bounds each transcription segment.
	SegmentSeconds int `yaml:"segment_seconds"`
	// MaxFrames caps how many video frames are sampled per clip.
	MaxFrames int `yaml:"max_frames"`
	// FaceCascadePath and PuplocCascadePath point at the pigo cascade files.
	FaceCascadePath   string `yaml:"face_cascade_path"`
	PuplocCascadePath string `yaml:"puploc_cascade_path"`
}

// DefaultAnalysisConfig returns the compiled-in analysis tunables.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		FillerWords: []string{
			"um", "uh", "er", "ah", "like", "you know", "so", "actually",
			"basically", "i mean", "kind of", "sort of", "right", "well",
		},
		IdealSpeechRate:   2.5,
		SegmentSeconds:    60,
		MaxFrames:         300,
		FaceCascadePath:   "cascade/facefinder",
		PuplocCascadePath: "cascade/puploc",
	}
}

// LoadAnalysisConfig reads the YAML analysis config at path, overlaying it on
// the defaults. A missing file yields the defaults.
func LoadAnalysisConfig(path string) (AnalysisConfig, error) {
	cfg := DefaultAnalysisConfig()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(path) // #nosec G304 -- operator-provided config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("op=config.LoadAnalysis: %w", err)
	}
	var overlay AnalysisConfig
	if err := yaml.Unmarshal(content, &overlay); err != nil {
		return cfg, fmt.Errorf("op=config.LoadAnalysis: parse: %w", err)
	}
	if len(overlay.FillerWords) > 0 {
		cfg.FillerWords = overlay.FillerWords
	}
	if overlay.IdealSpeechRate > 0 {
		cfg.IdealSpeechRate = overlay.IdealSpeechRate
	}
	if overlay.SegmentSeconds > 0 {
		cfg.SegmentSeconds = overlay.SegmentSeconds
	}
	if overlay.MaxFrames > 0 {
		cfg.MaxFrames = overlay.MaxFrames
	}
	if overlay.FaceCascadePath != "" {
		cfg.FaceCascadePath = overlay.FaceCascadePath
	}
	if overlay.PuplocCascadePath != "" {
		cfg.PuplocCascadePath = overlay.PuplocCascadePath
	}
	return cfg, nil
}
