// Package audio extracts vocal-delivery features from a decoded waveform and
// maps them to bounded sub-scores. Everything here is pure: the input is a
// 16kHz mono sample slice, the output is a value. Decoding and transcription
// live in adapters.
package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

const (
	frameLength = 1024
	hopLength   = 512
	// energyThresholdRatio classifies a frame as voiced when its short-time
	// energy exceeds this fraction of the mean energy.
	energyThresholdRatio = 0.01
	// syllableFactor scales the zero-crossing syllable estimate.
	syllableFactor = 1.5
	// clarityNormalizer converts mean spectral centroid (Hz) into the
	// clarity proxy.
	clarityNormalizer = 1000.0
	// pitch search band for the autocorrelation tracker.
	pitchMinHz = 50.0
	pitchMaxHz = 400.0
	// voicingCorr is the minimum normalized autocorrelation for a frame to
	// contribute a pitch estimate.
	voicingCorr = 0.3
)

// Features holds the raw numeric features extracted from one waveform.
type Features struct {
	Duration     float64 // seconds
	TotalFrames  int
	VoicedFrames int
	PitchMean    float64 // Hz, voiced frames only
	PitchStd     float64
	SpeechRate   float64 // estimated syllables/sec
	ClarityProxy float64 // mean spectral centroid / clarityNormalizer
	NoSpeech     bool    // no frame cleared the energy threshold
}

// ExtractFeatures computes delivery features from 16kHz mono samples.
// A waveform with no voiced frames yields Features{NoSpeech: true} rather
// than an error; the caller maps that to the documented fallback analysis.
func ExtractFeatures(samples []float64, sampleRate int) Features {
	if len(samples) == 0 || sampleRate <= 0 {
		return Features{NoSpeech: true}
	}
	f := Features{Duration: float64(len(samples)) / float64(sampleRate)}

	energies := shortTimeEnergy(samples)
	f.TotalFrames = len(energies)
	meanEnergy := stat.Mean(energies, nil)
	threshold := energyThresholdRatio * meanEnergy

	voiced := make([]int, 0, len(energies))
	for i, e := range energies {
		if e > threshold && e > 0 {
			voiced = append(voiced, i)
		}
	}
	f.VoicedFrames = len(voiced)
	if f.VoicedFrames == 0 {
		f.NoSpeech = true
		return f
	}

	pitches := make([]float64, 0, len(voiced))
	for _, idx := range voiced {
		start := idx * hopLength
		end := start + frameLength
		if end > len(samples) {
			end = len(samples)
		}
		if p, ok := detectPitch(samples[start:end], sampleRate); ok {
			pitches = append(pitches, p)
		}
	}
	if len(pitches) > 0 {
		f.PitchMean, f.PitchStd = stat.MeanStdDev(pitches, nil)
		if math.IsNaN(f.PitchStd) { // single estimate
			f.PitchStd = 0
		}
	}

	zcr := zeroCrossingRate(samples)
	syllables := zcr * f.Duration * syllableFactor
	if f.Duration > 0 {
		f.SpeechRate = syllables / f.Duration
	}

	f.ClarityProxy = meanSpectralCentroid(samples, sampleRate) / clarityNormalizer
	return f
}

func shortTimeEnergy(samples []float64) []float64 {
	n := (len(samples) + hopLength - 1) / hopLength
	energies := make([]float64, 0, n)
	for start := 0; start < len(samples); start += hopLength {
		end := start + frameLength
		if end > len(samples) {
			end = len(samples)
		}
		var e float64
		for _, s := range samples[start:end] {
			e += s * s
		}
		energies = append(energies, e)
	}
	return energies
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples))
}

// detectPitch estimates the fundamental frequency of one frame by normalized
// autocorrelation over the [pitchMinHz, pitchMaxHz] lag band. It picks the
// smallest lag within 85% of the best correlation, which avoids octave-down
// errors on strongly periodic frames.
func detectPitch(frame []float64, sampleRate int) (float64, bool) {
	minLag := int(float64(sampleRate) / pitchMaxHz)
	maxLag := int(float64(sampleRate) / pitchMinHz)
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0, false
	}

	var r0 float64
	for _, s := range frame {
		r0 += s * s
	}
	if r0 == 0 {
		return 0, false
	}

	corrs := make([]float64, maxLag+1)
	best := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var r float64
		for i := 0; i+lag < len(frame); i++ {
			r += frame[i] * frame[i+lag]
		}
		corrs[lag] = r / r0
		if corrs[lag] > best {
			best = corrs[lag]
		}
	}
	if best < voicingCorr {
		return 0, false
	}
	for lag := minLag; lag <= maxLag; lag++ {
		if corrs[lag] >= 0.85*best {
			return float64(sampleRate) / float64(lag), true
		}
	}
	return 0, false
}

// meanSpectralCentroid averages the spectral centroid (Hz) over all frames
// with nonzero magnitude.
func meanSpectralCentroid(samples []float64, sampleRate int) float64 {
	fft := fourier.NewFFT(frameLength)
	frame := make([]float64, frameLength)
	var sum float64
	var frames int
	for start := 0; start+frameLength <= len(samples); start += hopLength {
		copy(frame, samples[start:start+frameLength])
		coeffs := fft.Coefficients(nil, frame)
		var num, den float64
		for k, c := range coeffs {
			mag := cmplxAbs(c)
			freq := float64(k) * float64(sampleRate) / frameLength
			num += freq * mag
			den += mag
		}
		if den > 0 {
			sum += num / den
			frames++
		}
	}
	if frames == 0 {
		return 0
	}
	return sum / float64(frames)
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
