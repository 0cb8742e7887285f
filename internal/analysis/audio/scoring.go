package audio

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/pkg/numx"
)

const (
	// degradedScore is reported when extraction fails outright.
	degradedScore = 7.0
	// noSpeechScore is reported when no voiced frames were found.
	noSpeechScore = 5.0
)

// Score maps extracted features and a filler-word count to a bounded
// AudioAnalysis. idealSpeechRate is in syllables per second.
func Score(f Features, fillerCount int, idealSpeechRate float64) domain.AudioAnalysis {
	if f.NoSpeech {
		return NoSpeechAnalysis(f.Duration)
	}

	clarity := domain.ClampFloat(f.ClarityProxy*5, 1, 10)
	pace := domain.ClampFloat(10-absF(f.SpeechRate-idealSpeechRate)*2, 1, 10)
	tone := domain.ClampFloat(f.PitchStd/10, 1, 10)

	a := domain.AudioAnalysis{
		Clarity:          numx.Round1(clarity),
		Pace:             numx.Round1(pace),
		Tone:             numx.Round1(tone),
		FillerWordsCount: fillerCount,
		SpeechRate:       numx.Round2(f.SpeechRate),
		PitchMean:        numx.Round2(f.PitchMean),
		Duration:         numx.Round1(f.Duration),
	}
	a.Recommendations = recommendations(a, f, idealSpeechRate)
	return a
}

// NoSpeechAnalysis is the neutral result for clips where the energy gate
// found no voiced frames.
func NoSpeechAnalysis(duration float64) domain.AudioAnalysis {
	return domain.AudioAnalysis{
		Clarity:         noSpeechScore,
		Pace:            noSpeechScore,
		Tone:            noSpeechScore,
		Duration:        numx.Round1(duration),
		Recommendations: "No speech was detected in this recording. Check your microphone and try to speak clearly into it.",
	}
}

// DegradedAnalysis is the neutral result used when audio decoding or feature
// extraction fails; the cause is carried in the recommendations text so it
// still reaches the candidate-facing report.
func DegradedAnalysis(err error) domain.AudioAnalysis {
	return domain.AudioAnalysis{
		Clarity:         degradedScore,
		Pace:            degradedScore,
		Tone:            degradedScore,
		Degraded:        true,
		Recommendations: fmt.Sprintf("Audio analysis was unavailable for this answer (%v). Scores shown are neutral placeholders.", err),
	}
}

func recommendations(a domain.AudioAnalysis, f Features, idealRate float64) string {
	var recs []string
	if a.Clarity < 7 {
		recs = append(recs, "Work on articulation so each word comes through clearly")
	}
	if a.Pace < 6 {
		if f.SpeechRate < idealRate {
			recs = append(recs, "Try to pick up your speaking pace slightly")
		} else {
			recs = append(recs, "Slow down a little so the interviewer can follow you")
		}
	}
	if a.Tone < 6 {
		recs = append(recs, "Vary your intonation to sound more engaged")
	}
	if a.FillerWordsCount > 5 {
		recs = append(recs, "Reduce filler words such as \"um\" and \"uh\"")
	}
	if len(recs) == 0 {
		return "Your vocal delivery was clear and well paced. Keep it up."
	}
	return strings.Join(recs, ". ") + "."
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
