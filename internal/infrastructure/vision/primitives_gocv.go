//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// Primitives OpenCV-backed segmentation primitives.
type Primitives struct{}

// NewPrimitives creates the OpenCV backend.
func NewPrimitives() *Primitives {
	return &Primitives{}
}

// Backend names the implementation for startup logs.
func (p *Primitives) Backend() string {
	return "gocv " + gocv.OpenCVVersion()
}

// Check reports whether the backend can process frames.
func (p *Primitives) Check() error {
	return nil
}

// ToHSV wraps the BGRA frame and converts it to 8-bit HSV.
func (p *Primitives) ToHSV(frame *entity.Frame) (port.Raster, error) {
	bgra, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC4, frame.Pix)
	if err != nil {
		return nil, fmt.Errorf("wrap frame: %w", err)
	}
	defer bgra.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(bgra, &bgr, gocv.ColorBGRAToBGR)

	hsv := gocv.NewMat()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)
	return &hsv, nil
}

// RangeThreshold keeps pixels inside r.
func (p *Primitives) RangeThreshold(hsv port.Raster, r entity.HSVRange) (port.Raster, error) {
	src, err := asMat(hsv)
	if err != nil {
		return nil, err
	}
	lower := gocv.NewScalar(float64(r.Low[0]), float64(r.Low[1]), float64(r.Low[2]), 0)
	upper := gocv.NewScalar(float64(r.High[0]), float64(r.High[1]), float64(r.High[2]), 0)

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(src, lower, upper, &mask)
	return &mask, nil
}

// MorphOpen removes noise smaller than the kernel.
func (p *Primitives) MorphOpen(mask port.Raster, kernelSize int) (port.Raster, error) {
	return morph(mask, gocv.MorphOpen, kernelSize)
}

// MorphClose merges nearby blobs of one cone.
func (p *Primitives) MorphClose(mask port.Raster, kernelSize int) (port.Raster, error) {
	return morph(mask, gocv.MorphClose, kernelSize)
}

// FindExternalContours returns the outer contours of the mask.
func (p *Primitives) FindExternalContours(mask port.Raster) ([]entity.Contour, error) {
	src, err := asMat(mask)
	if err != nil {
		return nil, err
	}

	pv := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer pv.Close()

	contours := make([]entity.Contour, 0, pv.Size())
	for i := 0; i < pv.Size(); i++ {
		contours = append(contours, entity.Contour(pv.At(i).ToPoints()))
	}
	return contours, nil
}

// BoundingBox returns the upright bounding rectangle.
func (p *Primitives) BoundingBox(c entity.Contour) image.Rectangle {
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	return gocv.BoundingRect(pv)
}

// Moments returns the contour moments as computed by OpenCV.
func (p *Primitives) Moments(c entity.Contour) entity.Moments {
	if len(c) == 0 {
		return entity.Moments{}
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	points := gocv.NewMatFromPointVector(pv, true)
	defer points.Close()

	m := gocv.Moments(points, false)
	return entity.Moments{M00: m["m00"], M10: m["m10"], M01: m["m01"]}
}

func morph(mask port.Raster, op gocv.MorphType, kernelSize int) (port.Raster, error) {
	src, err := asMat(mask)
	if err != nil {
		return nil, err
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kernelSize, kernelSize))
	defer kernel.Close()

	dst := gocv.NewMat()
	gocv.MorphologyEx(src, &dst, op, kernel)
	return &dst, nil
}

func asMat(r port.Raster) (gocv.Mat, error) {
	m, ok := r.(*gocv.Mat)
	if !ok {
		return gocv.Mat{}, errors.New("raster was not produced by the gocv backend")
	}
	if m.Empty() {
		return gocv.Mat{}, errors.New("empty raster")
	}
	return *m, nil
}

var _ port.VisionPrimitives = (*Primitives)(nil)
