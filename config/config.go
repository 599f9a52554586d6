package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfig returned when a required startup parameter is absent.
var ErrMissingConfig = errors.New("missing required configuration")

// Config startup parameters of the steering service.
type Config struct {
	CID          int           // OD4 session id (multicast group 225.0.0.<cid>)
	Name         string        // name of the shared memory frame buffer
	Width        int           // frame width
	Height       int           // frame height
	Verbose      bool          // per-frame debug records
	GroupID      string        // tag of the emitted lines, Group_<id>
	YawSender    uint32        // sender stamp of the yaw-rate source
	MetricsAddr  string        // prometheus listen address, empty disables
	LogLevel     string        // debug, info, warn, error
	FrameTimeout time.Duration // 0 waits forever
	PollInterval time.Duration // frame buffer poll period
	Tuning       Tuning
}

// Load reads .env (if present), the environment and then args.
// Flags take precedence over the environment.
func Load(args []string) (*Config, error) {
	// a missing .env file is fine
	_ = godotenv.Load()

	cfg := &Config{
		CID:          envInt("OD4_CID", 0),
		Name:         os.Getenv("SHM_NAME"),
		Width:        envInt("FRAME_WIDTH", 0),
		Height:       envInt("FRAME_HEIGHT", 0),
		Verbose:      envBool("VERBOSE"),
		GroupID:      envString("GROUP_ID", "15"),
		YawSender:    uint32(envInt("YAW_SENDER", 0)),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		LogLevel:     envString("LOG_LEVEL", "info"),
		FrameTimeout: envDuration("FRAME_TIMEOUT", 0),
		PollInterval: envDuration("FRAME_POLL_INTERVAL", 2*time.Millisecond),
		Tuning:       DefaultTuning(),
	}

	fs := flag.NewFlagSet("cone-steer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&cfg.CID, "cid", cfg.CID, "CID of the OD4Session to send and receive messages")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "name of the shared memory area to attach")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "width of the frame")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "height of the frame")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log every frame")
	fs.StringVar(&cfg.GroupID, "group", cfg.GroupID, "group id of the output lines")
	yawSender := fs.Uint("yaw-sender", uint(cfg.YawSender), "sender stamp of the angular velocity source")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "prometheus listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.DurationVar(&cfg.FrameTimeout, "frame-timeout", cfg.FrameTimeout, "warn when no frame arrives within this duration")
	fs.DurationVar(&cfg.PollInterval, "frame-poll", cfg.PollInterval, "frame buffer poll interval")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	cfg.YawSender = uint32(*yawSender)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required parameters and the tuning tables.
func (c *Config) Validate() error {
	var missing []string
	if c.CID == 0 {
		missing = append(missing, "cid")
	}
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Width == 0 {
		missing = append(missing, "width")
	}
	if c.Height == 0 {
		missing = append(missing, "height")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if c.CID < 1 || c.CID > 254 {
		return fmt.Errorf("cid must be within 1..254, got %d", c.CID)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("invalid frame size %dx%d", c.Width, c.Height)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("frame poll interval must be positive, got %s", c.PollInterval)
	}
	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	return nil
}

// Usage returns the help text printed on configuration errors.
func Usage(program string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s attaches to a shared memory area containing an ARGB image.\n", program)
	fmt.Fprintf(&b, "Usage:   %s --cid=<OD4 session> --name=<name of shared memory area> --width=<w> --height=<h> [--verbose]\n", program)
	b.WriteString("         --cid:    CID of the OD4Session to send and receive messages\n")
	b.WriteString("         --name:   name of the shared memory area to attach\n")
	b.WriteString("         --width:  width of the frame\n")
	b.WriteString("         --height: height of the frame\n")
	b.WriteString("Optional: --group --yaw-sender --metrics --log-level --frame-timeout --frame-poll\n")
	fmt.Fprintf(&b, "Example: %s --cid=253 --name=img --width=640 --height=480 --verbose\n", program)
	return b.String()
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
