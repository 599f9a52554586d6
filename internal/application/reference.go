package app

import (
	"time"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// ReferenceTracker caches ground steering requests. It never feeds the calibrator.
type ReferenceTracker struct {
	store   port.ReferenceStore
	metrics port.PipelineMetrics
}

// NewReferenceTracker creates a tracker over store.
func NewReferenceTracker(store port.ReferenceStore, metrics port.PipelineMetrics) *ReferenceTracker {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &ReferenceTracker{store: store, metrics: metrics}
}

// HandleRequest stores the latest request.
func (t *ReferenceTracker) HandleRequest(sender uint32, value float64, sampleTime time.Time) {
	t.store.Set(entity.GroundSteering{Value: value, SenderID: sender, SampleTime: sampleTime})
	t.metrics.ReferenceSample(value)
}

// Latest returns the cached request.
func (t *ReferenceTracker) Latest() (entity.GroundSteering, bool) {
	return t.store.Get()
}

// AccuracyReport summary of the offline accuracy evaluation.
type AccuracyReport struct {
	Comparisons int
	Successful  int
	Percent     float64
}

// AccuracyTracker compares emitted commands with the cached ground steering.
// Only frames with a non-zero reference count. Owned by the frame loop.
type AccuracyTracker struct {
	refs       port.ReferenceStore
	tolerance  float64
	metrics    port.PipelineMetrics
	total      int
	successful int
}

// NewAccuracyTracker creates a tracker accepting commands within ±tolerance (relative) of the reference.
func NewAccuracyTracker(refs port.ReferenceStore, tolerance float64, metrics port.PipelineMetrics) *AccuracyTracker {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &AccuracyTracker{refs: refs, tolerance: tolerance, metrics: metrics}
}

// Observe records one emitted command. It reports whether a comparison was made.
func (a *AccuracyTracker) Observe(steering float64) bool {
	ref, ok := a.refs.Get()
	if !ok || ref.Value == 0 {
		return false
	}

	lower := ref.Value * (1 - a.tolerance)
	upper := ref.Value * (1 + a.tolerance)
	if lower > upper {
		lower, upper = upper, lower
	}

	a.total++
	if steering >= lower && steering <= upper {
		a.successful++
	}
	a.metrics.Accuracy(a.Report().Percent)
	return true
}

// Report returns the running totals.
func (a *AccuracyTracker) Report() AccuracyReport {
	r := AccuracyReport{Comparisons: a.total, Successful: a.successful}
	if a.total > 0 {
		r.Percent = float64(a.successful) / float64(a.total) * 100
	}
	return r
}
