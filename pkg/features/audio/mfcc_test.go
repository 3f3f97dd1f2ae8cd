package audio

import (
	"math"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tone(freq float64, sr, n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return y
}

func toneBuffer(freq float64, sr, n int) *goaudio.IntBuffer {
	data := make([]int, n)
	for i, v := range tone(freq, sr, n) {
		data[i] = int(v * 32767)
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sr},
		Data:           data,
		SourceBitDepth: 16,
	}
}

func TestExtractLengthAndDeterminism(t *testing.T) {
	buf := toneBuffer(440, 44100, 44100)
	p := DefaultParams()

	a, err := Extract(buf, p)
	require.NoError(t, err)
	b, err := Extract(buf, p)
	require.NoError(t, err)

	assert.Len(t, a, 30)
	assert.Equal(t, p.Len(), len(a))
	assert.Equal(t, a, b)
	for i, v := range a {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature %d = %v", i, v)
	}
}

func TestSpectralFeaturesOfTone(t *testing.T) {
	f, err := ExtractSignal(tone(1000, 16000, 16000), 16000, DefaultParams())
	require.NoError(t, err)

	n := DefaultParams().NMFCC
	centroid, rolloff, zcr := f[2*n], f[2*n+2], f[2*n+3]
	assert.InDelta(t, 1000, centroid, 200)
	assert.Greater(t, rolloff, 900.0)
	// two crossings per 16-sample period, less at the padded edges
	assert.InDelta(t, 0.12, zcr, 0.01)
}

func TestStereoIsAveraged(t *testing.T) {
	mono := toneBuffer(300, 16000, 8000)
	stereo := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 16000},
		SourceBitDepth: 16,
	}
	for _, v := range mono.Data {
		stereo.Data = append(stereo.Data, v, v)
	}

	a, err := Extract(mono, DefaultParams())
	require.NoError(t, err)
	b, err := Extract(stereo, DefaultParams())
	require.NoError(t, err)
	assert.InDeltaSlice(t, a, b, 1e-9)
}

func TestExtractErrors(t *testing.T) {
	_, err := Extract(nil, DefaultParams())
	assert.Error(t, err)

	_, err = Extract(&goaudio.IntBuffer{Format: &goaudio.Format{NumChannels: 1, SampleRate: 8000}}, DefaultParams())
	assert.Error(t, err)

	bad := DefaultParams()
	bad.NFFT = 1000
	_, err = Extract(toneBuffer(440, 16000, 4000), bad)
	assert.Error(t, err)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative rate", func(p *Params) { p.SampleRate = -1 }},
		{"hop", func(p *Params) { p.HopLength = 0 }},
		{"mfcc above mels", func(p *Params) { p.NMFCC = p.NMels + 1 }},
		{"fmax below fmin", func(p *Params) { p.FMin, p.FMax = 500, 100 }},
		{"rolloff", func(p *Params) { p.RolloffPercent = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestResample(t *testing.T) {
	y := tone(100, 44100, 44100)
	out := Resample(y, 44100, 16000)
	require.Len(t, out, 16000)

	// a low tone passes through unchanged away from the edges
	for _, i := range []int{4000, 8000, 12000} {
		assert.InDelta(t, 0.5*math.Sin(2*math.Pi*100*float64(i)/16000), out[i], 0.01)
	}

	same := Resample(y[:10], 8000, 8000)
	assert.Equal(t, y[:10], same)
}

func TestMelScale(t *testing.T) {
	for _, f := range []float64{0, 440, 1000, 4000, 8000} {
		assert.InDelta(t, f, melToHz(hzToMel(f)), 1e-6)
	}
	assert.InDelta(t, 15, hzToMel(1000), 1e-12)
}
