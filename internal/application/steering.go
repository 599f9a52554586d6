package app

import "cone-steer/internal/domain/entity"

// Calibrator maps yaw rate and cone presence to a bounded steering command
// through a hand-tuned lookup table.
type Calibrator struct {
	cal entity.Calibration
}

// NewCalibrator creates a calibrator over a validated table.
func NewCalibrator(cal entity.Calibration) *Calibrator {
	return &Calibrator{cal: cal}
}

// Steer computes the command for an active direction.
//
// The sign of the first pass (positive gains) picks the branch. A negative
// first pass with cones on both sides means the car is centered and yields 0.
func (c *Calibrator) Steer(dir entity.Direction, angularVelocityZ, derivative float64) float64 {
	raw := c.cal.Positive.Raw(angularVelocityZ, derivative)
	if raw >= 0 {
		return c.cal.Upper.Quantize(raw + c.cal.Offset)
	}
	if dir == entity.DirectionCentered {
		return 0
	}

	raw = c.cal.Negative.Raw(angularVelocityZ, derivative) - c.cal.Offset
	return c.cal.Lower.Quantize(raw)
}

// Next returns the command for a frame. With no cone on either side the
// previous command is kept and Steer is not evaluated.
func (c *Calibrator) Next(a entity.SideAssignment, m entity.MotionState, previous float64) (float64, entity.Direction) {
	dir := a.Direction()
	if dir == entity.DirectionHold {
		return previous, dir
	}
	return c.Steer(dir, m.AngularVelocityZ, m.AngularVelocityZDerivative), dir
}
