package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cone-steer/config"
	"cone-steer/internal/domain/entity"
)

func newTestCalibrator() *Calibrator {
	return NewCalibrator(config.DefaultCalibration())
}

func TestCalibrator_UpperLadderCeiling(t *testing.T) {
	upper := config.DefaultCalibration().Upper
	for r := 0.23; r < 3; r += 0.037 {
		require.Equal(t, 0.23, upper.Quantize(r), "r=%v", r)
	}
}

func TestCalibrator_LowerLadderFloor(t *testing.T) {
	lower := config.DefaultCalibration().Lower
	for r := -0.23; r > -3; r -= 0.041 {
		require.Equal(t, -0.26, lower.Quantize(r), "r=%v", r)
	}
}

func TestCalibrator_Steer(t *testing.T) {
	c := newTestCalibrator()

	tests := []struct {
		name  string
		dir   entity.Direction
		z, dz float64
		want  float64
	}{
		{"at rest, offset lands in the lowest band", entity.DirectionDriftLeft, 0, 0, 0.03},
		{"moderate turn", entity.DirectionDriftLeft, 20, 0, 0.07},
		{"derivative contributes", entity.DirectionDriftRight, 20, 30, 0.086},
		{"hard turn clamps to ceiling", entity.DirectionDriftRight, 100, 0, 0.23},
		{"negative while centered", entity.DirectionCentered, -10, 0, 0},
		{"hard negative clamps to floor", entity.DirectionDriftLeft, -200, 0, -0.26},
		{"negative band", entity.DirectionDriftRight, -50, 0, -0.17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, c.Steer(tt.dir, tt.z, tt.dz), 1e-12)
		})
	}
}

func TestCalibrator_NegativePassThrough(t *testing.T) {
	c := newTestCalibrator()
	got := c.Steer(entity.DirectionDriftLeft, -10, 0)
	require.InDelta(t, -10*0.001879-0.04, got, 1e-12)
}

func TestCalibrator_Deterministic(t *testing.T) {
	c := newTestCalibrator()
	for _, z := range []float64{-120, -33.3, 0, 12.5, 77} {
		for _, dir := range []entity.Direction{entity.DirectionCentered, entity.DirectionDriftLeft, entity.DirectionDriftRight} {
			require.Equal(t, c.Steer(dir, z, z/3), c.Steer(dir, z, z/3))
		}
	}
}

func TestCalibrator_NextHoldsWithoutCones(t *testing.T) {
	c := newTestCalibrator()
	m := entity.MotionState{AngularVelocityZ: 100}

	got, dir := c.Next(entity.SideAssignment{}, m, -0.11)
	require.Equal(t, entity.DirectionHold, dir)
	require.Equal(t, -0.11, got)

	got, dir = c.Next(entity.SideAssignment{LeftConeSeen: true, RightConeSeen: true}, m, -0.11)
	require.Equal(t, entity.DirectionCentered, dir)
	require.Equal(t, 0.23, got)
}
