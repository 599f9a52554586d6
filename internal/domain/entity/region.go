package entity

import (
	"image"
	"math"
)

// ColorTag identifies a tracked cone color.
type ColorTag int

const (
	ColorNone   ColorTag = iota // no cone
	ColorBlue                   // blue boundary cones
	ColorYellow                 // yellow boundary cones
)

func (c ColorTag) String() string {
	switch c {
	case ColorBlue:
		return "blue"
	case ColorYellow:
		return "yellow"
	default:
		return "none"
	}
}

// HSVRange inclusive threshold in OpenCV 8-bit HSV units (H 0..180, S and V 0..255).
type HSVRange struct {
	Low  [3]uint8
	High [3]uint8
}

// Contains reports whether an HSV triple lies inside the range.
func (r HSVRange) Contains(h, s, v uint8) bool {
	return h >= r.Low[0] && h <= r.High[0] &&
		s >= r.Low[1] && s <= r.High[1] &&
		v >= r.Low[2] && v <= r.High[2]
}

// ColorProfile binds a cone color to its threshold range.
type ColorProfile struct {
	Color ColorTag
	Range HSVRange
}

// Contour is an outer boundary polygon as returned by contour extraction.
type Contour []image.Point

// Moments spatial moments of a contour up to first order.
type Moments struct {
	M00 float64
	M10 float64
	M01 float64
}

// Centroid returns the integer centroid. ok is false for zero-area contours.
func (m Moments) Centroid() (image.Point, bool) {
	if m.M00 == 0 || math.IsNaN(m.M00) {
		return image.Point{}, false
	}
	return image.Pt(int(m.M10/m.M00), int(m.M01/m.M00)), true
}

// CandidateRegion one detected cone candidate.
type CandidateRegion struct {
	Box      image.Rectangle // bounding box
	Centroid image.Point     // centroid from contour moments
	Color    ColorTag        // color channel that produced it
}
