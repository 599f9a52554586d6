package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLadderQuantize(t *testing.T) {
	up := Ladder{Bands: []Band{{0.2, 0.2}, {0.1, 0.15}}}
	require.Equal(t, 0.2, up.Quantize(0.5))
	require.Equal(t, 0.15, up.Quantize(0.1))
	require.Equal(t, 0.05, up.Quantize(0.05))

	down := Ladder{Bands: []Band{{-0.2, -0.3}, {-0.1, -0.12}}, AtMost: true}
	require.Equal(t, -0.3, down.Quantize(-0.2))
	require.Equal(t, -0.12, down.Quantize(-0.15))
	require.Equal(t, -0.05, down.Quantize(-0.05))
}

func TestLadderValidate(t *testing.T) {
	require.NoError(t, Ladder{Bands: []Band{{0.2, 0.2}, {0.1, 0.1}}}.Validate())
	require.Error(t, Ladder{Bands: []Band{{0.1, 0.1}, {0.2, 0.2}}}.Validate())
	require.Error(t, Ladder{}.Validate())
	require.Error(t, Ladder{Bands: []Band{{-0.1, 0}, {-0.2, 0}}, AtMost: true}.Validate())
}
