package shm

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// Header layout of the shared frame buffer, little endian.
const (
	HeaderSize = 32

	offMagic     = 0
	offVersion   = 4
	offSequence  = 8
	offTimestamp = 16
	offWidth     = 24
	offHeight    = 28
)

// Magic first four bytes of a frame buffer.
var Magic = [4]byte{'C', 'S', 'H', 'M'}

// DefaultDir where POSIX shared memory objects live on Linux.
const DefaultDir = "/dev/shm"

// Config describes the buffer to attach.
type Config struct {
	Dir          string        // directory holding the object, DefaultDir when empty
	Name         string        // shared memory name, a leading slash is ignored
	Width        int           // expected frame width
	Height       int           // expected frame height
	PollInterval time.Duration // how often Wait checks the sequence counter
	Timeout      time.Duration // Wait gives up with port.ErrFrameTimeout, zero waits forever
}

// FrameSource memory-mapped frame buffer written by the camera process.
type FrameSource struct {
	cfg  Config
	file *os.File
	data []byte

	mu      sync.Mutex
	closed  bool
	lastSeq uint64
}

// Open maps the named buffer read-only and checks its geometry.
func Open(cfg Config) (*FrameSource, error) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Millisecond
	}
	path := filepath.Join(cfg.Dir, strings.TrimPrefix(cfg.Name, "/"))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	want := int64(HeaderSize + cfg.Width*cfg.Height*entity.FrameChannels)
	if info.Size() != want {
		f.Close()
		return nil, fmt.Errorf("%s is %d bytes, want %d for %dx%d", path, info.Size(), want, cfg.Width, cfg.Height)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(want), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	s := &FrameSource{cfg: cfg, file: f, data: data}
	if err := s.checkHeader(); err != nil {
		s.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.lastSeq = s.sequence()
	return s, nil
}

func (s *FrameSource) checkHeader() error {
	if !bytes.Equal(s.data[offMagic:offMagic+4], Magic[:]) {
		return fmt.Errorf("bad magic %q", s.data[offMagic:offMagic+4])
	}
	w := int(binary.LittleEndian.Uint32(s.data[offWidth:]))
	h := int(binary.LittleEndian.Uint32(s.data[offHeight:]))
	if w != s.cfg.Width || h != s.cfg.Height {
		return fmt.Errorf("buffer holds %dx%d frames, want %dx%d", w, h, s.cfg.Width, s.cfg.Height)
	}
	return nil
}

func (s *FrameSource) sequence() uint64 {
	return binary.LittleEndian.Uint64(s.data[offSequence:])
}

// Wait polls the sequence counter until the writer publishes a new frame.
func (s *FrameSource) Wait(ctx context.Context) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, s.cfg.Timeout, port.ErrFrameTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return port.ErrFrameSourceClosed
		}
		seq := s.sequence()
		if seq != s.lastSeq {
			s.lastSeq = seq
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-ticker.C:
		}
	}
}

// Lock takes a shared flock on the buffer.
func (s *FrameSource) Lock() error {
	if err := s.flock(unix.LOCK_SH); err != nil {
		return fmt.Errorf("lock frame buffer: %w", err)
	}
	return nil
}

// Unlock releases the flock.
func (s *FrameSource) Unlock() error {
	if err := s.flock(unix.LOCK_UN); err != nil {
		return fmt.Errorf("unlock frame buffer: %w", err)
	}
	return nil
}

func (s *FrameSource) flock(how int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return port.ErrFrameSourceClosed
	}
	return unix.Flock(int(s.file.Fd()), how)
}

// CopyInto copies the pixel area into frame.
func (s *FrameSource) CopyInto(frame *entity.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return port.ErrFrameSourceClosed
	}
	if frame.Width != s.cfg.Width || frame.Height != s.cfg.Height {
		return fmt.Errorf("frame is %dx%d, buffer is %dx%d", frame.Width, frame.Height, s.cfg.Width, s.cfg.Height)
	}
	if n := len(s.data) - HeaderSize; len(frame.Pix) != n {
		frame.Pix = make([]byte, n)
	}
	copy(frame.Pix, s.data[HeaderSize:])
	return nil
}

// Timestamp returns the capture time stored in the header, zero when unset.
func (s *FrameSource) Timestamp() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return time.Time{}, port.ErrFrameSourceClosed
	}
	us := int64(binary.LittleEndian.Uint64(s.data[offTimestamp:]))
	if us == 0 {
		return time.Time{}, nil
	}
	return time.UnixMicro(us), nil
}

// Close unmaps the buffer. Safe to call more than once.
func (s *FrameSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := unix.Munmap(s.data); err != nil {
		errs = append(errs, fmt.Errorf("munmap: %w", err))
	}
	s.data = nil
	if err := s.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var _ port.FrameSource = (*FrameSource)(nil)
