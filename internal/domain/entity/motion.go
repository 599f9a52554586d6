package entity

import "time"

// MotionState latest yaw rate and its first difference.
type MotionState struct {
	AngularVelocityZ           float64
	AngularVelocityZDerivative float64
	Samples                    uint64    // applied samples
	UpdatedAt                  time.Time // receive time of the last applied sample
}

// Apply folds a new yaw-rate sample into the state.
func (s *MotionState) Apply(z float64, at time.Time) {
	s.AngularVelocityZDerivative = z - s.AngularVelocityZ
	s.AngularVelocityZ = z
	s.Samples++
	s.UpdatedAt = at
}

// GroundSteering last ground steering request seen on the bus.
type GroundSteering struct {
	Value      float64
	SenderID   uint32
	SampleTime time.Time
}

// SteeringResult is what gets emitted for a frame.
type SteeringResult struct {
	Timestamp  time.Time      // capture time of the frame
	Steering   float64        // command in radians-equivalent units
	Direction  Direction      // mode used for this frame
	Assignment SideAssignment // classification behind the command
}

// TimestampMicros returns the frame capture time in microseconds, 0 when unset.
func (r SteeringResult) TimestampMicros() int64 {
	return unixMicros(r.Timestamp)
}

func unixMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}
