package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"cone-steer/internal/infrastructure/storage"
)

func TestMotionTracker_DerivativeFromDesignatedSender(t *testing.T) {
	m := &recordingMetrics{}
	tr := NewMotionTracker(storage.NewMemoryMotionStore(), 0, m)

	require.True(t, tr.HandleSample(0, 5.0))
	require.True(t, tr.HandleSample(0, 8.0))

	s := tr.Snapshot()
	require.Equal(t, 8.0, s.AngularVelocityZ)
	require.Equal(t, 3.0, s.AngularVelocityZDerivative)
	require.Equal(t, []bool{true, true}, m.yaw)
}

func TestMotionTracker_IgnoresOtherSenders(t *testing.T) {
	tr := NewMotionTracker(storage.NewMemoryMotionStore(), 0, nil)
	tr.HandleSample(0, 5.0)

	require.False(t, tr.HandleSample(2, 42.0))

	s := tr.Snapshot()
	require.Equal(t, 5.0, s.AngularVelocityZ)
	require.Equal(t, 5.0, s.AngularVelocityZDerivative)
}

func TestMotionTracker_ZeroBeforeFirstSample(t *testing.T) {
	tr := NewMotionTracker(storage.NewMemoryMotionStore(), 0, nil)
	s := tr.Snapshot()
	require.Zero(t, s.AngularVelocityZ)
	require.Zero(t, s.AngularVelocityZDerivative)
}

func TestMotionTracker_ConcurrentSamples(t *testing.T) {
	tr := NewMotionTracker(storage.NewMemoryMotionStore(), 0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.HandleSample(0, 1.0)
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := tr.Snapshot()
	require.Equal(t, 1.0, s.AngularVelocityZ)
	require.Equal(t, uint64(800), s.Samples)
}
