package video

import (
	"image"
	"math"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// DefaultMaxFrames bounds the work done on long clips.
const DefaultMaxFrames = 300

// Features holds the raw numeric features extracted from one clip.
type Features struct {
	TotalFrames int
	FaceFrames  int
	EyeFrames   int
	// ExprVariance is the mean grey-level variance inside the face box.
	ExprVariance float64
	// MeanDisplacement is the mean face-center movement between consecutive
	// face frames, in pixels.
	MeanDisplacement float64
	// MeanOffsetX is the mean horizontal distance of the face center from
	// the frame center, in pixels.
	MeanOffsetX float64
	// FrameWidth is the width of the analyzed frames.
	FrameWidth int
	// MeanAbsDiff is the mean absolute per-pixel difference between
	// consecutive frames.
	MeanAbsDiff float64
	// LumaVariance is the mean grey-level variance in the region below the
	// face box.
	LumaVariance float64
}

// Extractor runs per-frame face analysis over a decoded clip.
type Extractor struct {
	Finder    FaceFinder
	MaxFrames int
}

func NewExtractor(finder FaceFinder) *Extractor {
	return &Extractor{Finder: finder, MaxFrames: DefaultMaxFrames}
}

// ExtractFeatures analyzes up to MaxFrames frames. A clip with zero frames
// is an error; the caller degrades the analysis instead of failing the job.
func (e *Extractor) ExtractFeatures(frames []*image.Gray) (Features, error) {
	if len(frames) == 0 {
		return Features{}, domain.ErrInvalidArgument
	}
	maxFrames := e.MaxFrames
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	if len(frames) > maxFrames {
		frames = frames[:maxFrames]
	}

	f := Features{
		TotalFrames: len(frames),
		FrameWidth:  frames[0].Bounds().Dx(),
	}

	var (
		exprSum, dispSum, offsetSum, diffSum, lumaSum float64
		dispCount, diffCount, lumaCount               int
		prevCenter                                    [2]float64
		havePrevCenter                                bool
		prevFrame                                     *image.Gray
	)

	for _, frame := range frames {
		if prevFrame != nil {
			if d, ok := frameAbsDiff(prevFrame, frame); ok {
				diffSum += d
				diffCount++
			}
		}
		prevFrame = frame

		det, ok := e.Finder.Detect(frame)
		if !ok {
			continue
		}
		f.FaceFrames++
		if det.EyesVisible {
			f.EyeFrames++
		}

		exprSum += regionVariance(frame, faceBox(frame, det))

		center := [2]float64{float64(det.Col), float64(det.Row)}
		if havePrevCenter {
			dispSum += math.Hypot(center[0]-prevCenter[0], center[1]-prevCenter[1])
			dispCount++
		}
		prevCenter = center
		havePrevCenter = true

		offsetSum += math.Abs(center[0] - float64(f.FrameWidth)/2)

		if below := belowFaceBox(frame, det); !below.Empty() {
			lumaSum += regionVariance(frame, below)
			lumaCount++
		}
	}

	if f.FaceFrames > 0 {
		f.ExprVariance = exprSum / float64(f.FaceFrames)
		f.MeanOffsetX = offsetSum / float64(f.FaceFrames)
	}
	if dispCount > 0 {
		f.MeanDisplacement = dispSum / float64(dispCount)
	}
	if diffCount > 0 {
		f.MeanAbsDiff = diffSum / float64(diffCount)
	}
	if lumaCount > 0 {
		f.LumaVariance = lumaSum / float64(lumaCount)
	}
	return f, nil
}

func faceBox(frame *image.Gray, det Detection) image.Rectangle {
	half := det.Scale / 2
	return image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).
		Intersect(frame.Bounds())
}

func belowFaceBox(frame *image.Gray, det Detection) image.Rectangle {
	b := frame.Bounds()
	top := det.Row + det.Scale/2
	return image.Rect(b.Min.X, top, b.Max.X, b.Max.Y).Intersect(b)
}

func regionVariance(frame *image.Gray, r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	var sum, sumSq float64
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := frame.Pix[(y-frame.Rect.Min.Y)*frame.Stride:]
		for x := r.Min.X; x < r.Max.X; x++ {
			v := float64(row[x-frame.Rect.Min.X])
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

func frameAbsDiff(a, b *image.Gray) (float64, bool) {
	if len(a.Pix) != len(b.Pix) || len(a.Pix) == 0 {
		return 0, false
	}
	var sum float64
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		sum += float64(d)
	}
	return sum / float64(len(a.Pix)), true
}
