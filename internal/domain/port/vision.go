package port

import (
	"image"

	"cone-steer/internal/domain/entity"
)

// Raster opaque image handle owned by a VisionPrimitives backend
type Raster interface {
	Close() error
}

// VisionPrimitives color segmentation and contour primitives
type VisionPrimitives interface {
	// ToHSV converts a BGRA frame into a 3-channel HSV raster
	ToHSV(frame *entity.Frame) (Raster, error)

	// RangeThreshold builds a binary mask of pixels inside r
	RangeThreshold(hsv Raster, r entity.HSVRange) (Raster, error)

	// MorphOpen removes speckles with a square kernel
	MorphOpen(mask Raster, kernelSize int) (Raster, error)

	// MorphClose fills gaps with a square kernel
	MorphClose(mask Raster, kernelSize int) (Raster, error)

	// FindExternalContours returns outer contours of the mask
	FindExternalContours(mask Raster) ([]entity.Contour, error)

	// BoundingBox returns the upright bounding rectangle of a contour
	BoundingBox(c entity.Contour) image.Rectangle

	// Moments returns the spatial moments of a contour
	Moments(c entity.Contour) entity.Moments
}
