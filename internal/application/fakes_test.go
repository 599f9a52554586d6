package app

import (
	"context"
	"errors"
	"image"
	"time"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

type fakeRaster struct {
	rng    entity.HSVRange
	closed *int
}

func (r fakeRaster) Close() error {
	*r.closed++
	return nil
}

// fakeVision returns canned contours per HSV range and records the call order.
type fakeVision struct {
	contours  map[entity.HSVRange][]entity.Contour
	moments   map[image.Point]entity.Moments
	calls     []string
	opened    int
	closed    int
	failOn    string
	kernelLog []int
}

func newFakeVision() *fakeVision {
	return &fakeVision{
		contours: make(map[entity.HSVRange][]entity.Contour),
		moments:  make(map[image.Point]entity.Moments),
	}
}

// square registers a size×size contour with its top-left corner at (x, y).
func (v *fakeVision) square(r entity.HSVRange, x, y, size int) {
	c := entity.Contour{image.Pt(x, y), image.Pt(x+size, y), image.Pt(x+size, y+size), image.Pt(x, y+size)}
	area := float64(size * size)
	v.moments[c[0]] = entity.Moments{
		M00: area,
		M10: area * (float64(x) + float64(size)/2),
		M01: area * (float64(y) + float64(size)/2),
	}
	v.contours[r] = append(v.contours[r], c)
}

// degenerate registers a zero-area contour.
func (v *fakeVision) degenerate(r entity.HSVRange, x, y int) {
	c := entity.Contour{image.Pt(x, y)}
	v.moments[c[0]] = entity.Moments{}
	v.contours[r] = append(v.contours[r], c)
}

func (v *fakeVision) raster(r entity.HSVRange) (port.Raster, error) {
	v.opened++
	return fakeRaster{rng: r, closed: &v.closed}, nil
}

func (v *fakeVision) step(name string) error {
	v.calls = append(v.calls, name)
	if v.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (v *fakeVision) ToHSV(frame *entity.Frame) (port.Raster, error) {
	if err := v.step("hsv"); err != nil {
		return nil, err
	}
	return v.raster(entity.HSVRange{})
}

func (v *fakeVision) RangeThreshold(hsv port.Raster, r entity.HSVRange) (port.Raster, error) {
	if err := v.step("threshold"); err != nil {
		return nil, err
	}
	return v.raster(r)
}

func (v *fakeVision) MorphOpen(mask port.Raster, k int) (port.Raster, error) {
	if err := v.step("open"); err != nil {
		return nil, err
	}
	v.kernelLog = append(v.kernelLog, k)
	return v.raster(mask.(fakeRaster).rng)
}

func (v *fakeVision) MorphClose(mask port.Raster, k int) (port.Raster, error) {
	if err := v.step("close"); err != nil {
		return nil, err
	}
	v.kernelLog = append(v.kernelLog, k)
	return v.raster(mask.(fakeRaster).rng)
}

func (v *fakeVision) FindExternalContours(mask port.Raster) ([]entity.Contour, error) {
	if err := v.step("contours"); err != nil {
		return nil, err
	}
	return v.contours[mask.(fakeRaster).rng], nil
}

func (v *fakeVision) BoundingBox(c entity.Contour) image.Rectangle {
	r := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

func (v *fakeVision) Moments(c entity.Contour) entity.Moments {
	return v.moments[c[0]]
}

// fakeSource serves frames from a queue of timestamps.
type fakeSource struct {
	stamps   []time.Time
	fill     byte
	locked   int
	unlocked int
	waitErr  error
	copyErr  error
	next     int
	current  time.Time
}

func (s *fakeSource) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.waitErr != nil {
		err := s.waitErr
		s.waitErr = nil
		return err
	}
	if s.next >= len(s.stamps) {
		return errors.New("source exhausted")
	}
	s.current = s.stamps[s.next]
	s.next++
	return nil
}

func (s *fakeSource) Lock() error {
	s.locked++
	return nil
}

func (s *fakeSource) CopyInto(frame *entity.Frame) error {
	if s.copyErr != nil {
		return s.copyErr
	}
	for i := range frame.Pix {
		frame.Pix[i] = s.fill
	}
	return nil
}

func (s *fakeSource) Timestamp() (time.Time, error) {
	return s.current, nil
}

func (s *fakeSource) Unlock() error {
	s.unlocked++
	return nil
}

// countingSession reports running for a fixed number of checks.
type countingSession struct {
	left int
}

func (s *countingSession) IsRunning() bool {
	if s.left <= 0 {
		return false
	}
	s.left--
	return true
}

type captureEmitter struct {
	results []entity.SteeringResult
	err     error
}

func (e *captureEmitter) Emit(r entity.SteeringResult) error {
	if e.err != nil {
		return e.err
	}
	e.results = append(e.results, r)
	return nil
}

type recordingMetrics struct {
	port.NopMetrics
	processed  int
	skipped    int
	degenerate int
	yaw        []bool
	accuracy   []float64
}

func (m *recordingMetrics) FrameProcessed(time.Duration, entity.SteeringResult) { m.processed++ }
func (m *recordingMetrics) FrameSkipped()                                       { m.skipped++ }
func (m *recordingMetrics) DegenerateDropped(n int)                             { m.degenerate += n }
func (m *recordingMetrics) YawSample(applied bool, _ float64)                   { m.yaw = append(m.yaw, applied) }
func (m *recordingMetrics) Accuracy(p float64)                                  { m.accuracy = append(m.accuracy, p) }
