package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// FrameLoop runs one perception-to-control iteration per frame:
// acquire, mask, segment, classify, steer, emit.
type FrameLoop struct {
	source     port.FrameSource
	session    port.SessionState
	masker     *RegionMasker
	segmenter  *Segmenter
	classifier *SideClassifier
	motion     *MotionTracker
	calibrator *Calibrator
	accuracy   *AccuracyTracker
	emitter    port.ResultEmitter
	metrics    port.PipelineMetrics
	logger     *zap.Logger

	frame    *entity.Frame
	steering float64
}

// FrameLoopDeps collaborators of the frame loop.
type FrameLoopDeps struct {
	Source     port.FrameSource
	Session    port.SessionState
	Masker     *RegionMasker
	Segmenter  *Segmenter
	Classifier *SideClassifier
	Motion     *MotionTracker
	Calibrator *Calibrator
	Accuracy   *AccuracyTracker // optional
	Emitter    port.ResultEmitter
	Metrics    port.PipelineMetrics // optional
	Logger     *zap.Logger          // optional
}

// NewFrameLoop creates a loop for frames of the given size.
func NewFrameLoop(deps FrameLoopDeps, width, height int) *FrameLoop {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameLoop{
		source:     deps.Source,
		session:    deps.Session,
		masker:     deps.Masker,
		segmenter:  deps.Segmenter,
		classifier: deps.Classifier,
		motion:     deps.Motion,
		calibrator: deps.Calibrator,
		accuracy:   deps.Accuracy,
		emitter:    deps.Emitter,
		metrics:    metrics,
		logger:     logger,
		frame:      entity.NewFrame(width, height),
	}
}

// Run waits for frames until ctx is cancelled or the session stops.
// Per-frame processing errors skip the frame; frame source errors end the loop.
func (l *FrameLoop) Run(ctx context.Context) error {
	for l.session.IsRunning() {
		if err := l.source.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, port.ErrFrameTimeout) {
				l.logger.Warn("no frame within timeout")
				continue
			}
			return fmt.Errorf("wait for frame: %w", err)
		}

		if err := l.acquire(); err != nil {
			return fmt.Errorf("acquire frame: %w", err)
		}

		if _, err := l.Process(l.frame); err != nil {
			l.metrics.FrameSkipped()
			l.logger.Warn("frame skipped", zap.Error(err))
		}
	}
	return nil
}

// Process runs masking, segmentation, classification and steering on a copied
// frame and emits the result synchronously.
func (l *FrameLoop) Process(frame *entity.Frame) (entity.SteeringResult, error) {
	started := time.Now()

	l.masker.Apply(frame)

	seg, err := l.segmenter.Segment(frame)
	if err != nil {
		return entity.SteeringResult{}, err
	}
	l.observeCandidates(seg)

	assignment := l.classifier.Classify(seg.Candidates)
	motion := l.motion.Snapshot()
	steering, dir := l.calibrator.Next(assignment, motion, l.steering)
	l.steering = steering

	result := entity.SteeringResult{
		Timestamp:  frame.Timestamp,
		Steering:   steering,
		Direction:  dir,
		Assignment: assignment,
	}
	if err := l.emitter.Emit(result); err != nil {
		return result, fmt.Errorf("emit: %w", err)
	}

	if l.accuracy != nil {
		l.accuracy.Observe(steering)
	}
	l.metrics.FrameProcessed(time.Since(started), result)

	if ce := l.logger.Check(zap.DebugLevel, "frame"); ce != nil {
		ce.Write(
			zap.Int64("ts", frame.TimestampMicros()),
			zap.Int("candidates", len(seg.Candidates)),
			zap.Stringer("left", assignment.LeftValue),
			zap.Stringer("right", assignment.RightValue),
			zap.Stringer("direction", dir),
			zap.Float64("yaw", motion.AngularVelocityZ),
			zap.Float64("yaw_d", motion.AngularVelocityZDerivative),
			zap.Float64("steering", steering),
		)
	}
	return result, nil
}

// Steering returns the last computed command.
func (l *FrameLoop) Steering() float64 {
	return l.steering
}

// acquire copies the shared frame out under the source lock. The lock is
// released even when the copy fails.
func (l *FrameLoop) acquire() (err error) {
	if err := l.source.Lock(); err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	defer func() {
		if uerr := l.source.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("unlock: %w", uerr)
		}
	}()

	if err := l.source.CopyInto(l.frame); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	ts, err := l.source.Timestamp()
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	l.frame.Timestamp = ts
	return nil
}

func (l *FrameLoop) observeCandidates(seg *Segmentation) {
	counts := make(map[entity.ColorTag]int, 2)
	for _, c := range seg.Candidates {
		counts[c.Color]++
	}
	for color, n := range counts {
		l.metrics.CandidatesFound(color, n)
	}
	if seg.Degenerate > 0 {
		l.metrics.DegenerateDropped(seg.Degenerate)
	}
}
