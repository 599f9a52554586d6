package config

import (
	"errors"
	"fmt"
	"image"

	"cone-steer/internal/domain/entity"
)

// Tuning constants fitted to the test vehicle camera (640x480 field of view).
type Tuning struct {
	MaskZones   []image.Rectangle // painted black before segmentation
	Blue        entity.HSVRange
	Yellow      entity.HSVRange
	OpenKernel  int
	CloseKernel int
	LeftROI     image.Rectangle
	RightROI    image.Rectangle
	Exclusivity entity.ExclusivityRule
	Calibration entity.Calibration
	Tolerance   float64 // relative tolerance of the accuracy evaluation
}

// DefaultTuning returns the values used on the test tracks.
func DefaultTuning() Tuning {
	return Tuning{
		MaskZones: []image.Rectangle{
			image.Rect(0, 0, 651, 251),   // background above the cones
			image.Rect(0, 375, 651, 501), // vehicle wiring
			image.Rect(0, 0, 101, 501),   // far left
			image.Rect(550, 0, 651, 501), // far right
		},
		Blue:        entity.HSVRange{Low: [3]uint8{78, 50, 50}, High: [3]uint8{134, 255, 255}},
		Yellow:      entity.HSVRange{Low: [3]uint8{9, 0, 147}, High: [3]uint8{76, 255, 255}},
		OpenKernel:  5,
		CloseKernel: 9,
		LeftROI:     image.Rect(0, 0, 325, 500),
		RightROI:    image.Rect(325, 0, 650, 500),
		Exclusivity: entity.ExclusiveSameColor,
		Calibration: DefaultCalibration(),
		Tolerance:   0.25,
	}
}

// DefaultCalibration hand-tuned steering table.
func DefaultCalibration() entity.Calibration {
	return entity.Calibration{
		Positive: entity.Gains{KP1: 0.002879, KP2: 0.00097},
		Negative: entity.Gains{KP1: 0.001879, KP2: 0.00091},
		Offset:   0.04,
		Upper: entity.Ladder{Bands: []entity.Band{
			{Threshold: 0.23, Output: 0.23},
			{Threshold: 0.19, Output: 0.22},
			{Threshold: 0.18, Output: 0.19},
			{Threshold: 0.16, Output: 0.17},
			{Threshold: 0.12, Output: 0.086},
			{Threshold: 0.07, Output: 0.07},
			{Threshold: 0.05, Output: 0.06},
			{Threshold: 0.02, Output: 0.03},
		}},
		Lower: entity.Ladder{AtMost: true, Bands: []entity.Band{
			{Threshold: -0.23, Output: -0.26},
			{Threshold: -0.19, Output: -0.23},
			{Threshold: -0.18, Output: -0.222},
			{Threshold: -0.16, Output: -0.209},
			{Threshold: -0.12, Output: -0.17},
			{Threshold: -0.07, Output: -0.11},
		}},
	}
}

// Profiles returns the segmentation profiles in processing order.
func (t Tuning) Profiles() []entity.ColorProfile {
	return []entity.ColorProfile{
		{Color: entity.ColorBlue, Range: t.Blue},
		{Color: entity.ColorYellow, Range: t.Yellow},
	}
}

// Validate checks internal consistency.
func (t Tuning) Validate() error {
	if t.OpenKernel <= 0 || t.CloseKernel <= 0 {
		return fmt.Errorf("kernel sizes must be positive, got %d/%d", t.OpenKernel, t.CloseKernel)
	}
	if t.LeftROI.Empty() || t.RightROI.Empty() {
		return errors.New("side ROIs must not be empty")
	}
	if t.LeftROI.Overlaps(t.RightROI) {
		return errors.New("side ROIs overlap")
	}
	for _, r := range []entity.HSVRange{t.Blue, t.Yellow} {
		for i := range r.Low {
			if r.Low[i] > r.High[i] {
				return fmt.Errorf("hsv range %v inverted on channel %d", r, i)
			}
		}
	}
	if t.Tolerance < 0 {
		return fmt.Errorf("negative tolerance %.2f", t.Tolerance)
	}
	return t.Calibration.Validate()
}
