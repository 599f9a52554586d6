package entity

import (
	"errors"
	"fmt"
)

// Gains weights of the yaw rate and its derivative in the raw angle.
type Gains struct {
	KP1 float64 // yaw rate
	KP2 float64 // yaw rate derivative
}

// Raw returns z*KP1 + dz*KP2.
func (g Gains) Raw(z, dz float64) float64 {
	return z*g.KP1 + dz*g.KP2
}

// Band one entry of a calibration ladder.
type Band struct {
	Threshold float64
	Output    float64
}

// Ladder ordered calibration bands, steepest threshold first. The first
// matching band wins: value >= Threshold, or value <= Threshold when AtMost is set.
type Ladder struct {
	Bands  []Band
	AtMost bool
}

// Quantize maps value through the ladder. Values matching no band pass through.
func (l Ladder) Quantize(value float64) float64 {
	for _, b := range l.Bands {
		if l.AtMost {
			if value <= b.Threshold {
				return b.Output
			}
			continue
		}
		if value >= b.Threshold {
			return b.Output
		}
	}
	return value
}

// Validate checks that the bands are ordered from the steepest threshold inward.
func (l Ladder) Validate() error {
	if len(l.Bands) == 0 {
		return errors.New("ladder has no bands")
	}
	for i := 1; i < len(l.Bands); i++ {
		prev, cur := l.Bands[i-1].Threshold, l.Bands[i].Threshold
		if l.AtMost && cur <= prev {
			return fmt.Errorf("band %d threshold %.4f must be above %.4f", i, cur, prev)
		}
		if !l.AtMost && cur >= prev {
			return fmt.Errorf("band %d threshold %.4f must be below %.4f", i, cur, prev)
		}
	}
	return nil
}

// Calibration full hand-tuned steering table.
type Calibration struct {
	Positive Gains   // gains for the first pass and the non-negative branch
	Negative Gains   // gains for the negative branch recompute
	Offset   float64 // added on the non-negative branch, subtracted on the negative one
	Upper    Ladder  // non-negative branch
	Lower    Ladder  // negative branch
}

// Validate checks both ladders.
func (c Calibration) Validate() error {
	if c.Upper.AtMost {
		return errors.New("upper ladder must match with >=")
	}
	if !c.Lower.AtMost {
		return errors.New("lower ladder must match with <=")
	}
	if err := c.Upper.Validate(); err != nil {
		return fmt.Errorf("upper ladder: %w", err)
	}
	if err := c.Lower.Validate(); err != nil {
		return fmt.Errorf("lower ladder: %w", err)
	}
	return nil
}
