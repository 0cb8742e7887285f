// Package video extracts non-verbal delivery features from decoded greyscale
// frames and maps them to bounded sub-scores. Frame decoding lives in the
// media adapter; detection cascades are loaded once per process.
package video

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

const (
	detShiftFactor = 0.1
	detScaleFactor = 1.1
	detMinSize     = 60
	detMaxSize     = 600
	// qThresh filters low-confidence face clusters.
	qThresh = 5.0
	// puplocPerturbs trades accuracy for speed in pupil localization.
	puplocPerturbs = 30
)

// Detection is one located face within a frame, with pupil visibility.
type Detection struct {
	Row, Col, Scale int
	EyesVisible     bool
}

// FaceFinder locates the most confident face in a greyscale frame.
type FaceFinder interface {
	Detect(img *image.Gray) (Detection, bool)
}

// Detector wraps the pigo face and pupil cascades.
type Detector struct {
	classifier *pigo.Pigo
	puploc     *pigo.PuplocCascade
}

// NewDetector loads both cascade files. The pupil cascade path may be empty,
// in which case eye visibility is always reported false.
func NewDetector(faceCascadePath, puplocCascadePath string) (*Detector, error) {
	faceBin, err := os.ReadFile(faceCascadePath)
	if err != nil {
		return nil, fmt.Errorf("op=video.NewDetector read face cascade: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(faceBin)
	if err != nil {
		return nil, fmt.Errorf("op=video.NewDetector unpack face cascade: %w", err)
	}
	d := &Detector{classifier: classifier}
	if puplocCascadePath != "" {
		plBin, err := os.ReadFile(puplocCascadePath)
		if err != nil {
			return nil, fmt.Errorf("op=video.NewDetector read puploc cascade: %w", err)
		}
		plc, err := pigo.NewPuplocCascade().UnpackCascade(plBin)
		if err != nil {
			return nil, fmt.Errorf("op=video.NewDetector unpack puploc cascade: %w", err)
		}
		d.puploc = plc
	}
	return d, nil
}

// Detect runs the face cascade and, on a hit, localizes both pupils inside
// the face region. Eye visibility requires both pupils.
func (d *Detector) Detect(img *image.Gray) (Detection, bool) {
	bounds := img.Bounds()
	params := pigo.CascadeParams{
		MinSize:     detMinSize,
		MaxSize:     detMaxSize,
		ShiftFactor: detShiftFactor,
		ScaleFactor: detScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: img.Pix,
			Rows:   bounds.Dy(),
			Cols:   bounds.Dx(),
			Dim:    img.Stride,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	best := pigo.Detection{}
	found := false
	for _, det := range dets {
		if det.Q >= qThresh && (!found || det.Q > best.Q) {
			best = det
			found = true
		}
	}
	if !found {
		return Detection{}, false
	}

	out := Detection{Row: best.Row, Col: best.Col, Scale: best.Scale}
	if d.puploc != nil {
		left := d.locatePupil(best, params.ImageParams, -0.175)
		right := d.locatePupil(best, params.ImageParams, 0.175)
		out.EyesVisible = left && right
	}
	return out, true
}

func (d *Detector) locatePupil(face pigo.Detection, img pigo.ImageParams, colOffset float32) bool {
	seed := pigo.Puploc{
		Row:      face.Row - int(0.075*float32(face.Scale)),
		Col:      face.Col + int(colOffset*float32(face.Scale)),
		Scale:    float32(face.Scale) * 0.25,
		Perturbs: puplocPerturbs,
	}
	eye := d.puploc.RunDetector(seed, img, 0.0, false)
	return eye != nil && eye.Row > 0 && eye.Col > 0
}
