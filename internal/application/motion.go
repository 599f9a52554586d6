package app

import (
	"time"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// MotionTracker keeps the latest yaw rate of the designated sender and its first difference.
type MotionTracker struct {
	store   port.MotionStore
	source  uint32
	metrics port.PipelineMetrics
	now     func() time.Time
}

// NewMotionTracker creates a tracker accepting samples only from source.
func NewMotionTracker(store port.MotionStore, source uint32, metrics port.PipelineMetrics) *MotionTracker {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &MotionTracker{store: store, source: source, metrics: metrics, now: time.Now}
}

// HandleSample applies a yaw-rate sample. Samples from other senders are ignored.
// Runs on the bus delivery goroutine and never blocks beyond the store lock.
func (t *MotionTracker) HandleSample(sender uint32, angularVelocityZ float64) bool {
	if sender != t.source {
		t.metrics.YawSample(false, angularVelocityZ)
		return false
	}

	at := t.now()
	t.store.Update(func(s *entity.MotionState) {
		s.Apply(angularVelocityZ, at)
	})
	t.metrics.YawSample(true, angularVelocityZ)
	return true
}

// Snapshot returns a consistent copy of the motion state.
func (t *MotionTracker) Snapshot() entity.MotionState {
	return t.store.Snapshot()
}
