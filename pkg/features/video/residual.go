// Package video computes the residual-histogram feature vector used by the
// video steganalysis model.
package video

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
)

// Params controls frame sampling and histogram shape. They are part of the
// trained-model contract.
type Params struct {
	MaxFrames int     `yaml:"max_frames"`
	FrameStep int     `yaml:"frame_step"`
	Bins      int     `yaml:"bins"`
	Range     float64 `yaml:"range"` // histogram covers [-Range, Range]
	Workers   int     `yaml:"-"`
}

// DefaultParams returns the parameters the shipped video model was trained with.
func DefaultParams() Params {
	return Params{
		MaxFrames: 40,
		FrameStep: 2,
		Bins:      32,
		Range:     40,
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	switch {
	case p.MaxFrames <= 0:
		return errors.New("max frames must be positive")
	case p.FrameStep <= 0:
		return errors.New("frame step must be positive")
	case p.Bins <= 0:
		return errors.New("bins must be positive")
	case p.Range <= 0:
		return errors.New("range must be positive")
	}
	return nil
}

// FramesNeeded is the number of leading frames Extract may look at. Callers
// decoding from a container can stop after this many.
func (p Params) FramesNeeded() int {
	return (p.MaxFrames-1)*p.FrameStep + 1
}

// SampleIndices returns the frame indices Extract uses for a sequence of n
// frames: every frame when n < MaxFrames, otherwise every FrameStep-th frame
// from the first, capped at MaxFrames.
func (p Params) SampleIndices(n int) []int {
	if n < p.MaxFrames {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, p.MaxFrames)
	for i := 0; i < n && len(idx) < p.MaxFrames; i += p.FrameStep {
		idx = append(idx, i)
	}
	return idx
}

// Extract averages the per-frame residual histograms of the sampled frames
// into a vector of p.Bins values.
func Extract(ctx context.Context, seq *media.FrameSequence, p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if seq == nil || len(seq.Frames) == 0 {
		return nil, errors.New("no frames extracted from video")
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	indices := p.SampleIndices(len(seq.Frames))
	hists := make([][]float64, len(indices))

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, idx := range indices {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hists[i] = FrameHistogram(seq.Frames[idx], seq.Width, seq.Height, p.Bins, p.Range)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("residual histograms: %w", err)
	}

	// fixed summation order keeps the result bit-identical across runs
	mean := make([]float64, p.Bins)
	for _, h := range hists {
		for b, v := range h {
			mean[b] += v
		}
	}
	for b := range mean {
		mean[b] /= float64(len(hists))
	}
	return mean, nil
}

// FrameHistogram is the density-normalized histogram of gray - blur(gray)
// over [-rng, rng]. Residuals outside the range are not counted; the last
// bin includes its right edge. A frame with no residual in range yields zeros.
func FrameHistogram(f media.Frame, width, height, bins int, rng float64) []float64 {
	gray := Grayscale(f, width, height)
	blurred := GaussianBlur5(gray, width, height)

	hist := make([]float64, bins)
	binWidth := 2 * rng / float64(bins)
	counted := 0
	for i, g := range gray {
		r := float64(int(g) - int(blurred[i]))
		if r < -rng || r > rng {
			continue
		}
		b := int((r + rng) / binWidth)
		if b >= bins {
			b = bins - 1
		}
		hist[b]++
		counted++
	}
	if counted == 0 {
		return hist
	}
	norm := float64(counted) * binWidth
	for b := range hist {
		hist[b] /= norm
	}
	return hist
}

// Grayscale converts RGB24 to 8-bit luma with BT.601 weights, using the same
// 14-bit fixed-point rounding as common vision libraries.
func Grayscale(f media.Frame, width, height int) []uint8 {
	const (
		shift = 14
		rW    = 4899  // 0.299 << 14
		gW    = 9617  // 0.587 << 14
		bW    = 1868  // 0.114 << 14
		half  = 1 << (shift - 1)
	)
	out := make([]uint8, width*height)
	for i := range out {
		p := i * media.Channels
		r, g, b := int(f.Pix[p]), int(f.Pix[p+1]), int(f.Pix[p+2])
		out[i] = uint8((r*rW + g*gW + b*bW + half) >> shift)
	}
	return out
}

// GaussianBlur5 applies the separable 5-tap binomial kernel [1 4 6 4 1]/16,
// which is the 5x5 Gaussian with sigma derived from the kernel size. Borders
// are reflected without repeating the edge pixel; results are rounded to uint8.
func GaussianBlur5(src []uint8, width, height int) []uint8 {
	kernel := [5]int{1, 4, 6, 4, 1}

	// horizontal pass kept at full precision (scale 16)
	tmp := make([]int, len(src))
	for y := 0; y < height; y++ {
		row := src[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			sum := 0
			for k := -2; k <= 2; k++ {
				sum += kernel[k+2] * int(row[reflect101(x+k, width)])
			}
			tmp[y*width+x] = sum
		}
	}

	out := make([]uint8, len(src))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum := 0
			for k := -2; k <= 2; k++ {
				sum += kernel[k+2] * tmp[reflect101(y+k, height)*width+x]
			}
			// total scale is 256
			out[y*width+x] = uint8((sum + 128) >> 8)
		}
	}
	return out
}

// reflect101 maps an out-of-range index into [0, n) as in gfedcb|abcdefgh|gfedcba.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
