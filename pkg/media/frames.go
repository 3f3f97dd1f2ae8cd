package media

import (
	"fmt"
	"image"
)

// Channels is the number of interleaved values per pixel in a Frame.
const Channels = 3

// Frame is one RGB24 picture. Pix holds Height rows of Width pixels, each
// pixel stored as R, G, B.
type Frame struct {
	Pix []uint8
}

// FrameSequence is an ordered run of equally sized RGB frames.
type FrameSequence struct {
	Width     int
	Height    int
	FrameRate float64
	Frames    []Frame
}

// NewFrameSequence allocates count black frames.
func NewFrameSequence(width, height, count int, frameRate float64) *FrameSequence {
	seq := &FrameSequence{Width: width, Height: height, FrameRate: frameRate}
	seq.Frames = make([]Frame, count)
	for i := range seq.Frames {
		seq.Frames[i] = Frame{Pix: make([]uint8, seq.FrameBytes())}
	}
	return seq
}

// FrameBytes is the size of one frame's Pix.
func (s *FrameSequence) FrameBytes() int {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return s.Width * s.Height * Channels
}

// Len returns the number of frames.
func (s *FrameSequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

// Validate checks that every frame matches the declared geometry.
func (s *FrameSequence) Validate() error {
	if s == nil {
		return fmt.Errorf("nil frame sequence")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", s.Width, s.Height)
	}
	want := s.FrameBytes()
	for i, f := range s.Frames {
		if len(f.Pix) != want {
			return fmt.Errorf("frame %d has %d bytes, want %d", i, len(f.Pix), want)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s *FrameSequence) Clone() *FrameSequence {
	out := &FrameSequence{Width: s.Width, Height: s.Height, FrameRate: s.FrameRate}
	out.Frames = make([]Frame, len(s.Frames))
	for i, f := range s.Frames {
		out.Frames[i] = Frame{Pix: append([]uint8(nil), f.Pix...)}
	}
	return out
}

// At returns the R, G, B values of pixel (x, y).
func (f Frame) At(width, x, y int) (r, g, b uint8) {
	i := (y*width + x) * Channels
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// ToImage converts the frame to an *image.NRGBA for still-image encoders.
func (f Frame) ToImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for p, q := 0, 0; p+2 < len(f.Pix) && q+3 < len(img.Pix); p, q = p+3, q+4 {
		img.Pix[q] = f.Pix[p]
		img.Pix[q+1] = f.Pix[p+1]
		img.Pix[q+2] = f.Pix[p+2]
		img.Pix[q+3] = 0xff
	}
	return img
}

// FrameFromImage converts any image to an RGB24 frame. 16-bit channels are
// reduced to their high byte; alpha is discarded.
func FrameFromImage(img image.Image) (Frame, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h*Channels)

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := 0; x < w; x++ {
				copy(pix[(y*w+x)*Channels:], row[x*4:x*4+3])
			}
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := 0; x < w; x++ {
				copy(pix[(y*w+x)*Channels:], row[x*4:x*4+3])
			}
		}
	default:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bb, _ := img.At(x, y).RGBA()
				pix[i] = uint8(r >> 8)
				pix[i+1] = uint8(g >> 8)
				pix[i+2] = uint8(bb >> 8)
				i += Channels
			}
		}
	}
	return Frame{Pix: pix}, w, h
}
