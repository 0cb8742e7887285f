// Package aggregate folds per-answer multimodal analyses into session-level
// report sections. Scores average across contributing samples; the filler
// count sums, since it is a tally rather than a rating.
package aggregate

import (
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/pkg/numx"
)

// Video averages each sub-score over the given analyses. Returns nil when no
// samples contributed, so the caller can substitute the neutral defaults.
func Video(samples []domain.VideoAnalysis) *domain.VideoAnalysis {
	if len(samples) == 0 {
		return nil
	}
	var out domain.VideoAnalysis
	var details domain.BodyLanguageDetails
	detailed := 0
	for _, s := range samples {
		out.EyeContact += s.EyeContact
		out.FacialExpressions += s.FacialExpressions
		out.BodyLanguage += s.BodyLanguage
		out.Confidence += s.Confidence
		if s.BodyLanguageDetails != nil {
			details.Stability += s.BodyLanguageDetails.Stability
			details.HeadPose += s.BodyLanguageDetails.HeadPose
			details.UpperBody += s.BodyLanguageDetails.UpperBody
			details.Motion += s.BodyLanguageDetails.Motion
			detailed++
		}
	}
	n := float64(len(samples))
	out.EyeContact = numx.Round1(out.EyeContact / n)
	out.FacialExpressions = numx.Round1(out.FacialExpressions / n)
	out.BodyLanguage = numx.Round1(out.BodyLanguage / n)
	out.Confidence = numx.Round1(out.Confidence / n)
	// The details average only over the subset carrying them; degraded
	// fallbacks do not dilute real signal.
	if detailed > 0 {
		d := float64(detailed)
		out.BodyLanguageDetails = &domain.BodyLanguageDetails{
			Stability: numx.Round1(details.Stability / d),
			HeadPose:  numx.Round1(details.HeadPose / d),
			UpperBody: numx.Round1(details.UpperBody / d),
			Motion:    numx.Round1(details.Motion / d),
		}
	}
	return &out
}

// Audio averages clarity, pace and tone and sums the filler-word count.
// Returns nil when no samples contributed.
func Audio(samples []domain.AudioAnalysis) *domain.AudioAnalysis {
	if len(samples) == 0 {
		return nil
	}
	var out domain.AudioAnalysis
	for _, s := range samples {
		out.Clarity += s.Clarity
		out.Pace += s.Pace
		out.Tone += s.Tone
		out.FillerWordsCount += s.FillerWordsCount
		out.SpeechRate += s.SpeechRate
		out.PitchMean += s.PitchMean
		out.Duration += s.Duration
	}
	n := float64(len(samples))
	out.Clarity = numx.Round1(out.Clarity / n)
	out.Pace = numx.Round1(out.Pace / n)
	out.Tone = numx.Round1(out.Tone / n)
	out.SpeechRate = numx.Round2(out.SpeechRate / n)
	out.PitchMean = numx.Round2(out.PitchMean / n)
	out.Duration = numx.Round1(out.Duration / n)
	return &out
}

// DefaultVideo is the neutral section shown when no answer produced a video
// analysis.
func DefaultVideo() domain.VideoAnalysis {
	return domain.VideoAnalysis{
		EyeContact:        7.5,
		FacialExpressions: 7.2,
		BodyLanguage:      6.8,
		Confidence:        7.5,
		Recommendations:   "No video was recorded for this interview, so on-camera presence could not be assessed.",
	}
}

// DefaultAudio is the neutral section shown when no answer produced an audio
// analysis.
func DefaultAudio() domain.AudioAnalysis {
	return domain.AudioAnalysis{
		Clarity:         5.0,
		Pace:            5.0,
		Tone:            5.0,
		Recommendations: "No audio was recorded for this interview, so vocal delivery could not be assessed.",
	}
}
