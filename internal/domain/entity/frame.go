package entity

import (
	"image"
	"time"
)

// FrameChannels number of bytes per pixel (B, G, R, A).
const FrameChannels = 4

// Frame is one BGRA image copied out of the shared frame buffer.
type Frame struct {
	Width     int       // frame width in pixels
	Height    int       // frame height in pixels
	Pix       []byte    // BGRA pixels, row-major, Width*FrameChannels bytes per row
	Timestamp time.Time // capture time reported by the frame source
}

// NewFrame allocates an empty frame of the given size.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*FrameChannels),
	}
}

// Bounds returns the frame rectangle.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// TimestampMicros returns the capture time in microseconds since the epoch.
func (f *Frame) TimestampMicros() int64 {
	return unixMicros(f.Timestamp)
}

// Fill overwrites every pixel inside r with value. r is clipped to the frame.
func (f *Frame) Fill(r image.Rectangle, value [FrameChannels]byte) {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return
	}
	stride := f.Width * FrameChannels
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := f.Pix[y*stride : (y+1)*stride]
		for x := r.Min.X; x < r.Max.X; x++ {
			copy(row[x*FrameChannels:(x+1)*FrameChannels], value[:])
		}
	}
}

// At returns the BGRA value of a pixel.
func (f *Frame) At(x, y int) [FrameChannels]byte {
	var px [FrameChannels]byte
	i := (y*f.Width + x) * FrameChannels
	copy(px[:], f.Pix[i:i+FrameChannels])
	return px
}
