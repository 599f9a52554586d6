package app

import (
	"fmt"

	"go.uber.org/zap"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// SegmentationConfig fixed thresholds and kernel sizes of the color segmentation.
type SegmentationConfig struct {
	Profiles    []entity.ColorProfile // processed in order
	OpenKernel  int
	CloseKernel int
}

// Segmentation candidates of one frame, grouped by profile order.
type Segmentation struct {
	Candidates []entity.CandidateRegion
	Degenerate int // zero-area contours that were dropped
}

// Segmenter runs the vision primitives in fixed order:
// HSV, threshold, open, close, contours, bounding box and centroid.
type Segmenter struct {
	vision port.VisionPrimitives
	cfg    SegmentationConfig
	logger *zap.Logger
}

// NewSegmenter creates a segmenter over the given primitives backend.
func NewSegmenter(vision port.VisionPrimitives, cfg SegmentationConfig, logger *zap.Logger) *Segmenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{vision: vision, cfg: cfg, logger: logger}
}

// Segment extracts cone candidates for every configured color.
func (s *Segmenter) Segment(frame *entity.Frame) (*Segmentation, error) {
	hsv, err := s.vision.ToHSV(frame)
	if err != nil {
		return nil, fmt.Errorf("convert to hsv: %w", err)
	}
	defer closeRaster(hsv)

	out := &Segmentation{}
	for _, p := range s.cfg.Profiles {
		regions, dropped, err := s.segmentColor(hsv, p)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", p.Color, err)
		}
		out.Candidates = append(out.Candidates, regions...)
		out.Degenerate += dropped
	}

	if out.Degenerate > 0 {
		s.logger.Debug("dropped degenerate contours", zap.Int("count", out.Degenerate))
	}
	return out, nil
}

func (s *Segmenter) segmentColor(hsv port.Raster, p entity.ColorProfile) ([]entity.CandidateRegion, int, error) {
	mask, err := s.vision.RangeThreshold(hsv, p.Range)
	if err != nil {
		return nil, 0, fmt.Errorf("threshold: %w", err)
	}
	defer closeRaster(mask)

	opened, err := s.vision.MorphOpen(mask, s.cfg.OpenKernel)
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer closeRaster(opened)

	closed, err := s.vision.MorphClose(opened, s.cfg.CloseKernel)
	if err != nil {
		return nil, 0, fmt.Errorf("close: %w", err)
	}
	defer closeRaster(closed)

	contours, err := s.vision.FindExternalContours(closed)
	if err != nil {
		return nil, 0, fmt.Errorf("contours: %w", err)
	}

	regions := make([]entity.CandidateRegion, 0, len(contours))
	dropped := 0
	for _, c := range contours {
		centroid, ok := s.vision.Moments(c).Centroid()
		if !ok {
			dropped++
			continue
		}
		regions = append(regions, entity.CandidateRegion{
			Box:      s.vision.BoundingBox(c),
			Centroid: centroid,
			Color:    p.Color,
		})
	}
	return regions, dropped, nil
}

func closeRaster(r port.Raster) {
	if r != nil {
		_ = r.Close()
	}
}
