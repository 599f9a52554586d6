package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cone-steer/config"
	"cone-steer/internal/container"
	"cone-steer/internal/infrastructure/logging"
	"cone-steer/internal/infrastructure/metrics"
	"cone-steer/internal/infrastructure/od4"
	"cone-steer/internal/infrastructure/output"
	"cone-steer/internal/infrastructure/shm"
	"cone-steer/internal/infrastructure/vision"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args[1:])
	if err != nil {
		return fmt.Errorf("%w\n\n%s", err, config.Usage(args[0]))
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	primitives := vision.NewPrimitives()
	if err := primitives.Check(); err != nil {
		return fmt.Errorf("vision backend %s: %w", primitives.Backend(), err)
	}
	logger.Info("Vision backend", zap.String("backend", primitives.Backend()))

	m := metrics.New()

	source, err := shm.Open(shm.Config{
		Name:         cfg.Name,
		Width:        cfg.Width,
		Height:       cfg.Height,
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.FrameTimeout,
	})
	if err != nil {
		return fmt.Errorf("attach frame buffer %q: %w", cfg.Name, err)
	}
	defer source.Close()
	logger.Info("Attached to shared memory", zap.String("name", cfg.Name), zap.Int("width", cfg.Width), zap.Int("height", cfg.Height))

	session, err := od4.Open(od4.Config{CID: cfg.CID, Stats: m, Logger: logger.Named("od4")})
	if err != nil {
		return fmt.Errorf("join OD4 session %d: %w", cfg.CID, err)
	}
	defer session.Close()

	// wire application services
	app := container.New(cfg, container.Deps{
		Source:  source,
		Session: session,
		Vision:  primitives,
		Emitter: output.NewLineEmitter(os.Stdout, cfg.GroupID),
		Metrics: m,
		Logger:  logger,
	})

	od4.OnAngularVelocity(session, func(e od4.Envelope, r od4.AngularVelocityReading) {
		app.Motion.HandleSample(e.SenderStamp, float64(r.Z))
	})
	od4.OnGroundSteering(session, func(e od4.Envelope, r od4.GroundSteeringRequest) {
		app.Reference.HandleRequest(e.SenderStamp, float64(r.GroundSteering), e.SampleTimeStamp)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return session.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return app.Loop.Run(ctx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			logger.Info("Serving metrics", zap.String("addr", cfg.MetricsAddr))
			return m.Serve(ctx, cfg.MetricsAddr)
		})
	}

	logger.Info("Steering is running...", zap.Int("cid", cfg.CID), zap.String("group", cfg.GroupID))
	err = g.Wait()

	report := app.Accuracy.Report()
	if report.Comparisons == 0 {
		logger.Info("Accuracy: no valid comparisons")
	} else {
		logger.Info("Accuracy",
			zap.Int("comparisons", report.Comparisons),
			zap.Int("successful", report.Successful),
			zap.Float64("percent", report.Percent),
		)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
