package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

func TestVideoAveragesSubScores(t *testing.T) {
	got := Video([]domain.VideoAnalysis{
		{EyeContact: 8, FacialExpressions: 6, BodyLanguage: 7, Confidence: 7.5},
		{EyeContact: 6, FacialExpressions: 5, BodyLanguage: 9, Confidence: 6.5},
	})
	require.NotNil(t, got)
	assert.InDelta(t, 7.0, got.EyeContact, 0.001)
	assert.InDelta(t, 5.5, got.FacialExpressions, 0.001)
	assert.InDelta(t, 8.0, got.BodyLanguage, 0.001)
	assert.InDelta(t, 7.0, got.Confidence, 0.001)
}

func TestVideoNoSamples(t *testing.T) {
	assert.Nil(t, Video(nil))
}

func TestVideoAveragesDetailsOverCarryingSubset(t *testing.T) {
	got := Video([]domain.VideoAnalysis{
		{EyeContact: 8, BodyLanguageDetails: &domain.BodyLanguageDetails{
			Stability: 8, HeadPose: 6, UpperBody: 7, Motion: 9,
		}},
		{EyeContact: 6, BodyLanguageDetails: &domain.BodyLanguageDetails{
			Stability: 6, HeadPose: 8, UpperBody: 5, Motion: 7,
		}},
		{EyeContact: 7, Degraded: true}, // fallback sample carries no details
	})
	require.NotNil(t, got)
	require.NotNil(t, got.BodyLanguageDetails)
	assert.InDelta(t, 7.0, got.BodyLanguageDetails.Stability, 0.001)
	assert.InDelta(t, 7.0, got.BodyLanguageDetails.HeadPose, 0.001)
	assert.InDelta(t, 6.0, got.BodyLanguageDetails.UpperBody, 0.001)
	assert.InDelta(t, 8.0, got.BodyLanguageDetails.Motion, 0.001)
	assert.InDelta(t, 7.0, got.EyeContact, 0.001, "top-level scores still average over all samples")
}

func TestVideoNoDetailsStaysAbsent(t *testing.T) {
	got := Video([]domain.VideoAnalysis{{EyeContact: 7, Degraded: true}})
	require.NotNil(t, got)
	assert.Nil(t, got.BodyLanguageDetails)
}

func TestAudioAveragesScoresAndSumsFillers(t *testing.T) {
	got := Audio([]domain.AudioAnalysis{
		{Clarity: 8, Pace: 7, Tone: 4, FillerWordsCount: 3},
		{Clarity: 6, Pace: 9, Tone: 6, FillerWordsCount: 5},
		{Clarity: 7, Pace: 8, Tone: 5, FillerWordsCount: 0},
	})
	require.NotNil(t, got)
	assert.InDelta(t, 7.0, got.Clarity, 0.001)
	assert.InDelta(t, 8.0, got.Pace, 0.001)
	assert.InDelta(t, 5.0, got.Tone, 0.001)
	assert.Equal(t, 8, got.FillerWordsCount, "filler counts sum rather than average")
}

func TestAudioCarriesSecondaryFields(t *testing.T) {
	got := Audio([]domain.AudioAnalysis{
		{Clarity: 7, SpeechRate: 2.4, PitchMean: 180, Duration: 30},
		{Clarity: 8, SpeechRate: 2.8, PitchMean: 200, Duration: 50},
	})
	require.NotNil(t, got)
	assert.InDelta(t, 2.6, got.SpeechRate, 0.001)
	assert.InDelta(t, 190.0, got.PitchMean, 0.001)
	assert.InDelta(t, 40.0, got.Duration, 0.001)
}

func TestAudioNoSamples(t *testing.T) {
	assert.Nil(t, Audio(nil))
}

func TestAudioRoundsToOneDecimal(t *testing.T) {
	got := Audio([]domain.AudioAnalysis{
		{Clarity: 7, Pace: 7, Tone: 7},
		{Clarity: 8, Pace: 8, Tone: 8},
		{Clarity: 8, Pace: 8, Tone: 8},
	})
	require.NotNil(t, got)
	assert.InDelta(t, 7.7, got.Clarity, 0.001)
}

func TestDefaults(t *testing.T) {
	v := DefaultVideo()
	assert.Equal(t, 7.5, v.EyeContact)
	assert.Equal(t, 7.2, v.FacialExpressions)
	assert.Equal(t, 6.8, v.BodyLanguage)
	assert.Equal(t, 7.5, v.Confidence)
	assert.NotEmpty(t, v.Recommendations)

	a := DefaultAudio()
	assert.Equal(t, 5.0, a.Clarity)
	assert.Equal(t, 5.0, a.Pace)
	assert.Equal(t, 5.0, a.Tone)
	assert.Zero(t, a.FillerWordsCount)
}
