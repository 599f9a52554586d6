package container

import (
	"go.uber.org/zap"

	"cone-steer/config"
	app "cone-steer/internal/application"
	"cone-steer/internal/domain/port"
	"cone-steer/internal/infrastructure/storage"
)

// Container wired application services.
type Container struct {
	Motion    *app.MotionTracker
	Reference *app.ReferenceTracker
	Accuracy  *app.AccuracyTracker
	Loop      *app.FrameLoop
}

// Deps infrastructure adapters the services run on.
type Deps struct {
	Source  port.FrameSource
	Session port.SessionState
	Vision  port.VisionPrimitives
	Emitter port.ResultEmitter
	Metrics port.PipelineMetrics // optional
	Logger  *zap.Logger          // optional
}

func New(cfg *config.Config, deps Deps) *Container {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	t := cfg.Tuning

	motionStore := storage.NewMemoryMotionStore()
	referenceStore := storage.NewMemoryReferenceStore()

	motion := app.NewMotionTracker(motionStore, cfg.YawSender, deps.Metrics)
	reference := app.NewReferenceTracker(referenceStore, deps.Metrics)
	accuracy := app.NewAccuracyTracker(referenceStore, t.Tolerance, deps.Metrics)

	segmenter := app.NewSegmenter(deps.Vision, app.SegmentationConfig{
		Profiles:    t.Profiles(),
		OpenKernel:  t.OpenKernel,
		CloseKernel: t.CloseKernel,
	}, deps.Logger.Named("segmentation"))

	loop := app.NewFrameLoop(app.FrameLoopDeps{
		Source:     deps.Source,
		Session:    deps.Session,
		Masker:     app.NewRegionMasker(t.MaskZones),
		Segmenter:  segmenter,
		Classifier: app.NewSideClassifier(t.LeftROI, t.RightROI, t.Exclusivity),
		Motion:     motion,
		Calibrator: app.NewCalibrator(t.Calibration),
		Accuracy:   accuracy,
		Emitter:    deps.Emitter,
		Metrics:    deps.Metrics,
		Logger:     deps.Logger.Named("frame-loop"),
	}, cfg.Width, cfg.Height)

	return &Container{
		Motion:    motion,
		Reference: reference,
		Accuracy:  accuracy,
		Loop:      loop,
	}
}
