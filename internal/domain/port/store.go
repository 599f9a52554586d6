package port

import "cone-steer/internal/domain/entity"

// MotionStore lock-guarded yaw-rate state
type MotionStore interface {
	// Update runs fn on the state under the write lock
	Update(fn func(s *entity.MotionState))

	// Snapshot returns a consistent copy of the state
	Snapshot() entity.MotionState
}

// ReferenceStore lock-guarded cache of the last ground steering request
type ReferenceStore interface {
	// Set replaces the cached value
	Set(ref entity.GroundSteering)

	// Get returns the cached value; ok is false until the first request arrives
	Get() (ref entity.GroundSteering, ok bool)
}
