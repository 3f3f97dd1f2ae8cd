package video

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
)

// noisy builds frames with position- and frame-dependent texture.
func noisy(w, h, n int) *media.FrameSequence {
	seq := media.NewFrameSequence(w, h, n, 25)
	for f, fr := range seq.Frames {
		for i := range fr.Pix {
			fr.Pix[i] = uint8((i*i*7 + f*31 + i/5) % 251)
		}
	}
	return seq
}

func TestShortSequenceVector(t *testing.T) {
	p := DefaultParams()
	seq := noisy(16, 12, p.MaxFrames-1)

	v, err := Extract(context.Background(), seq, p)
	require.NoError(t, err)
	assert.Len(t, v, 32)

	// density over [-40, 40]: the bins integrate to one
	var sum float64
	for _, x := range v {
		sum += x
	}
	assert.InDelta(t, 1.0, sum*80/32, 1e-9)
}

func TestExtractDeterministicAcrossWorkers(t *testing.T) {
	seq := noisy(20, 10, 90)
	p := DefaultParams()

	p.Workers = 1
	a, err := Extract(context.Background(), seq, p)
	require.NoError(t, err)
	p.Workers = 8
	b, err := Extract(context.Background(), seq, p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestOnlyLeadingFramesMatter(t *testing.T) {
	p := DefaultParams()
	long := noisy(8, 8, 200)
	head := &media.FrameSequence{Width: 8, Height: 8, Frames: long.Frames[:p.FramesNeeded()]}

	a, err := Extract(context.Background(), long, p)
	require.NoError(t, err)
	b, err := Extract(context.Background(), head, p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSampleIndices(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 79, p.FramesNeeded())

	assert.Equal(t, []int{0, 1, 2}, p.SampleIndices(3))
	assert.Len(t, p.SampleIndices(39), 39)

	at40 := p.SampleIndices(40)
	assert.Len(t, at40, 20)
	assert.Equal(t, 38, at40[len(at40)-1])

	long := p.SampleIndices(1000)
	assert.Len(t, long, 40)
	assert.Equal(t, 78, long[39])
}

func TestFrameHistogramConstantFrame(t *testing.T) {
	seq := media.NewFrameSequence(6, 6, 1, 25)
	for i := range seq.Frames[0].Pix {
		seq.Frames[0].Pix[i] = 90
	}
	h := FrameHistogram(seq.Frames[0], 6, 6, 32, 40)
	// every residual is zero and lands in bin 16, width 2.5
	for b, v := range h {
		if b == 16 {
			assert.InDelta(t, 0.4, v, 1e-12)
		} else {
			assert.Zero(t, v)
		}
	}
}

func TestGrayscale(t *testing.T) {
	f := media.Frame{Pix: []uint8{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255}}
	assert.Equal(t, []uint8{76, 150, 29, 255}, Grayscale(f, 4, 1))
}

func TestGaussianBlur5(t *testing.T) {
	flat := make([]uint8, 25)
	for i := range flat {
		flat[i] = 77
	}
	assert.Equal(t, flat, GaussianBlur5(flat, 5, 5))

	// a single bright pixel spreads as the binomial kernel
	spot := make([]uint8, 25)
	spot[12] = 255
	out := GaussianBlur5(spot, 5, 5)
	assert.Equal(t, uint8(36), out[12]) // 255*36/256 = 35.86
	assert.Equal(t, out[11], out[13])
	assert.Equal(t, out[7], out[17])
}

func TestReflect101(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 2, reflect101(-2, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 2, reflect101(6, 5))
	assert.Equal(t, 0, reflect101(-2, 1))
	assert.Equal(t, 0, reflect101(-2, 2))
	assert.Equal(t, 1, reflect101(-1, 2))
}

func TestExtractErrors(t *testing.T) {
	_, err := Extract(context.Background(), nil, DefaultParams())
	assert.Error(t, err)
	_, err = Extract(context.Background(), &media.FrameSequence{Width: 2, Height: 2}, DefaultParams())
	assert.Error(t, err)

	bad := DefaultParams()
	bad.Bins = 0
	_, err = Extract(context.Background(), noisy(4, 4, 2), bad)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Extract(ctx, noisy(4, 4, 5), DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
}
