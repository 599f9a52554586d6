package port

import (
	"time"

	"cone-steer/internal/domain/entity"
)

// ResultEmitter publishes the steering command of a frame
type ResultEmitter interface {
	Emit(result entity.SteeringResult) error
}

// SessionState reports whether the messaging session is still alive
type SessionState interface {
	IsRunning() bool
}

// PipelineMetrics observer of the frame loop and the message handlers
type PipelineMetrics interface {
	FrameProcessed(elapsed time.Duration, result entity.SteeringResult)
	FrameSkipped()
	CandidatesFound(color entity.ColorTag, n int)
	DegenerateDropped(n int)
	YawSample(applied bool, z float64)
	ReferenceSample(value float64)
	Accuracy(percent float64)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) FrameProcessed(time.Duration, entity.SteeringResult) {}
func (NopMetrics) FrameSkipped()                                       {}
func (NopMetrics) CandidatesFound(entity.ColorTag, int)                {}
func (NopMetrics) DegenerateDropped(int)                               {}
func (NopMetrics) YawSample(bool, float64)                             {}
func (NopMetrics) ReferenceSample(float64)                             {}
func (NopMetrics) Accuracy(float64)                                    {}
