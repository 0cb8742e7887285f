package video

import (
	"fmt"
	"math"
	"strings"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/pkg/numx"
)

// degradedScore is reported when frame decoding or extraction fails.
const degradedScore = 7.0

// Score maps extracted features to a bounded VideoAnalysis. A clip where no
// face was found still scores; the eye-contact rate is simply zero.
func Score(f Features) domain.VideoAnalysis {
	var eyeRate float64
	if f.FaceFrames > 0 {
		eyeRate = float64(f.EyeFrames) / float64(f.FaceFrames)
	}
	eyeContact := math.Min(10, eyeRate*10)
	expressions := domain.ClampFloat(f.ExprVariance/100, 1, 10)

	stability := domain.ClampFloat(10-f.MeanDisplacement*0.5, 1, 10)
	headPose := 1.0
	if f.FrameWidth > 0 {
		headPose = domain.ClampFloat(10-f.MeanOffsetX/float64(f.FrameWidth)*40, 1, 10)
	}
	motion := domain.ClampFloat(10-f.MeanAbsDiff*0.3, 1, 10)
	upperBody := domain.ClampFloat(f.LumaVariance/100, 1, 10)

	bodyLanguage := stability*0.4 + motion*0.3 + headPose*0.2 + upperBody*0.1
	confidence := eyeContact*0.5 + bodyLanguage*0.3 + expressions*0.2

	a := domain.VideoAnalysis{
		EyeContact:        numx.Round1(eyeContact),
		FacialExpressions: numx.Round1(expressions),
		BodyLanguage:      numx.Round1(bodyLanguage),
		Confidence:        numx.Round1(confidence),
		BodyLanguageDetails: &domain.BodyLanguageDetails{
			Stability: numx.Round1(stability),
			HeadPose:  numx.Round1(headPose),
			UpperBody: numx.Round1(upperBody),
			Motion:    numx.Round1(motion),
		},
	}
	a.Recommendations = recommendations(a, f)
	return a
}

// DegradedAnalysis is the neutral result used when the clip could not be
// analyzed; the reason is carried in the recommendations text.
func DegradedAnalysis(reason string) domain.VideoAnalysis {
	return domain.VideoAnalysis{
		EyeContact:        degradedScore,
		FacialExpressions: degradedScore,
		BodyLanguage:      degradedScore,
		Confidence:        degradedScore,
		Degraded:          true,
		Recommendations:   fmt.Sprintf("Video analysis was unavailable for this answer (%s). Scores shown are neutral placeholders.", reason),
	}
}

func recommendations(a domain.VideoAnalysis, f Features) string {
	var recs []string
	if f.FaceFrames == 0 {
		recs = append(recs, "Make sure your face is visible to the camera throughout your answer")
	} else if a.EyeContact < 6 {
		recs = append(recs, "Look at the camera more often to maintain eye contact")
	}
	if a.FacialExpressions < 5 {
		recs = append(recs, "Use more facial expression to come across as engaged")
	}
	if a.BodyLanguage < 6 {
		recs = append(recs, "Sit steadily and keep your posture open")
	}
	if len(recs) == 0 {
		return "Your on-camera presence was strong. Keep it up."
	}
	return strings.Join(recs, ". ") + "."
}
