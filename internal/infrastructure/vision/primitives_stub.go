//go:build !gocv
// +build !gocv

package vision

import (
	"errors"
	"image"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// ErrBackendUnavailable is returned by every primitive when the binary was
// built without OpenCV.
var ErrBackendUnavailable = errors.New("gocv build tag is not enabled")

// Primitives placeholder used when the gocv build tag is off.
type Primitives struct{}

// NewPrimitives creates the placeholder backend.
func NewPrimitives() *Primitives {
	return &Primitives{}
}

// Backend names the implementation for startup logs.
func (p *Primitives) Backend() string {
	return "none"
}

// Check reports whether the backend can process frames.
func (p *Primitives) Check() error {
	return ErrBackendUnavailable
}

func (p *Primitives) ToHSV(frame *entity.Frame) (port.Raster, error) {
	_ = frame
	return nil, ErrBackendUnavailable
}

func (p *Primitives) RangeThreshold(hsv port.Raster, r entity.HSVRange) (port.Raster, error) {
	_, _ = hsv, r
	return nil, ErrBackendUnavailable
}

func (p *Primitives) MorphOpen(mask port.Raster, kernelSize int) (port.Raster, error) {
	_, _ = mask, kernelSize
	return nil, ErrBackendUnavailable
}

func (p *Primitives) MorphClose(mask port.Raster, kernelSize int) (port.Raster, error) {
	_, _ = mask, kernelSize
	return nil, ErrBackendUnavailable
}

func (p *Primitives) FindExternalContours(mask port.Raster) ([]entity.Contour, error) {
	_ = mask
	return nil, ErrBackendUnavailable
}

func (p *Primitives) BoundingBox(c entity.Contour) image.Rectangle {
	_ = c
	return image.Rectangle{}
}

func (p *Primitives) Moments(c entity.Contour) entity.Moments {
	_ = c
	return entity.Moments{}
}

var _ port.VisionPrimitives = (*Primitives)(nil)
