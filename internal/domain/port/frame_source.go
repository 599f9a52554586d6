package port

import (
	"context"
	"errors"
	"time"

	"cone-steer/internal/domain/entity"
)

var (
	// ErrFrameTimeout returned by Wait when no frame arrived within the configured timeout.
	ErrFrameTimeout = errors.New("timed out waiting for frame")

	// ErrFrameSourceClosed returned once the source has been detached.
	ErrFrameSourceClosed = errors.New("frame source closed")
)

// FrameSource shared, notification-driven frame buffer
type FrameSource interface {
	// Wait blocks until the next frame is ready
	Wait(ctx context.Context) error

	// Lock acquires the shared buffer for reading
	Lock() error

	// CopyInto copies the current pixels into frame
	CopyInto(frame *entity.Frame) error

	// Timestamp returns the capture time of the current frame; call while locked
	Timestamp() (time.Time, error)

	// Unlock releases the shared buffer
	Unlock() error
}
