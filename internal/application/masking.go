package app

import (
	"image"

	"cone-steer/internal/domain/entity"
)

// RegionMasker blacks out fixed zones of the frame (sky, chassis wiring, far field)
// before segmentation.
type RegionMasker struct {
	zones []image.Rectangle
	fill  [entity.FrameChannels]byte
}

// NewRegionMasker creates a masker painting zones with zero pixels.
func NewRegionMasker(zones []image.Rectangle) *RegionMasker {
	return &RegionMasker{zones: zones}
}

// Apply masks the frame in place. Zones outside the frame are clipped.
func (m *RegionMasker) Apply(frame *entity.Frame) {
	for _, z := range m.zones {
		frame.Fill(z, m.fill)
	}
}
