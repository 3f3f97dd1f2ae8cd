// Package audio computes the fixed-length cepstral feature vector used by the
// audio steganalysis model.
//
// The vector is, in order: NMFCC coefficient means, NMFCC coefficient
// standard deviations, then the mean spectral centroid, spectral bandwidth,
// spectral rolloff and zero-crossing rate. Every parameter in Params is part
// of the trained-model contract and must match the values used in training.
package audio

import (
	"errors"
	"fmt"
	"math"

	goaudio "github.com/go-audio/audio"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
)

// Params controls the short-time analysis.
type Params struct {
	SampleRate     int     `yaml:"sample_rate"` // analysis rate; 0 keeps the native rate
	NFFT           int     `yaml:"n_fft"`
	HopLength      int     `yaml:"hop_length"`
	NMels          int     `yaml:"n_mels"`
	NMFCC          int     `yaml:"n_mfcc"`
	FMin           float64 `yaml:"fmin"`
	FMax           float64 `yaml:"fmax"` // 0 means Nyquist
	RolloffPercent float64 `yaml:"rolloff_percent"`
	TopDB          float64 `yaml:"top_db"`
}

// DefaultParams returns the parameters the shipped audio model was trained with.
func DefaultParams() Params {
	return Params{
		SampleRate:     16000,
		NFFT:           2048,
		HopLength:      512,
		NMels:          128,
		NMFCC:          13,
		FMin:           0,
		FMax:           0,
		RolloffPercent: 0.85,
		TopDB:          80,
	}
}

// Len is the length of the vector Extract produces.
func (p Params) Len() int {
	return 2*p.NMFCC + 4
}

// Validate checks the parameters for internal consistency.
func (p Params) Validate() error {
	switch {
	case p.SampleRate < 0:
		return errors.New("sample rate must not be negative")
	case p.NFFT < 16 || p.NFFT&(p.NFFT-1) != 0:
		return fmt.Errorf("n_fft must be a power of two >= 16, got %d", p.NFFT)
	case p.HopLength <= 0:
		return errors.New("hop length must be positive")
	case p.NMels <= 0:
		return errors.New("n_mels must be positive")
	case p.NMFCC <= 0 || p.NMFCC > p.NMels:
		return fmt.Errorf("n_mfcc must be in [1, %d]", p.NMels)
	case p.FMin < 0 || (p.FMax != 0 && p.FMax <= p.FMin):
		return errors.New("invalid mel frequency range")
	case p.RolloffPercent <= 0 || p.RolloffPercent >= 1:
		return errors.New("rolloff percent must be in (0, 1)")
	case p.TopDB < 0:
		return errors.New("top_db must not be negative")
	}
	return nil
}

// Extract computes the feature vector of buf. Channels are averaged to mono
// and samples scaled to [-1, 1] before analysis.
func Extract(buf *goaudio.IntBuffer, p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, errors.New("audio buffer has no sample rate")
	}

	y := media.Mono(buf)
	if len(y) == 0 {
		return nil, errors.New("empty audio signal")
	}
	sr := buf.Format.SampleRate
	if p.SampleRate > 0 && p.SampleRate != sr {
		y = Resample(y, sr, p.SampleRate)
		sr = p.SampleRate
	}
	return ExtractSignal(y, sr, p)
}

// ExtractSignal computes the feature vector of a mono signal in [-1, 1]
// sampled at sr. No resampling is done.
func ExtractSignal(y []float64, sr int, p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(y) == 0 {
		return nil, errors.New("empty audio signal")
	}

	mag := stft(y, p.NFFT, p.HopLength)
	freqs := fftFrequencies(sr, p.NFFT)

	fmax := p.FMax
	if fmax == 0 {
		fmax = float64(sr) / 2
	}
	mel := melSpectrogram(mag, melFilterbank(sr, p.NFFT, p.NMels, p.FMin, fmax))
	powerToDB(mel, p.TopDB)
	mfcc := dctII(mel, p.NMFCC)

	features := make([]float64, 0, p.Len())
	stds := make([]float64, p.NMFCC)
	for k, coeffs := range mfcc {
		mean, std := stat.PopMeanStdDev(coeffs, nil)
		features = append(features, mean)
		stds[k] = std
	}
	features = append(features, stds...)

	centroid := spectralCentroid(mag, freqs)
	features = append(features,
		stat.Mean(centroid, nil),
		stat.Mean(spectralBandwidth(mag, freqs, centroid), nil),
		stat.Mean(spectralRolloff(mag, freqs, p.RolloffPercent), nil),
		stat.Mean(zeroCrossingRate(y, p.NFFT, p.HopLength), nil),
	)
	return features, nil
}

// stft returns the magnitude spectrogram as [frame][bin], using a periodic
// Hann window and zero padding of nfft/2 on both sides (centered frames).
func stft(y []float64, nfft, hop int) [][]float64 {
	pad := nfft / 2
	padded := make([]float64, len(y)+2*pad)
	copy(padded[pad:], y)

	window := make([]float64, nfft)
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(nfft))
	}

	nframes := 1 + (len(padded)-nfft)/hop
	fft := fourier.NewFFT(nfft)
	seg := make([]float64, nfft)
	coeffs := make([]complex128, nfft/2+1)

	mag := make([][]float64, nframes)
	for t := range mag {
		start := t * hop
		for i := range seg {
			seg[i] = padded[start+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, seg)
		row := make([]float64, len(coeffs))
		for i, c := range coeffs {
			row[i] = math.Hypot(real(c), imag(c))
		}
		mag[t] = row
	}
	return mag
}

func fftFrequencies(sr, nfft int) []float64 {
	freqs := make([]float64, nfft/2+1)
	for i := range freqs {
		freqs[i] = float64(i) * float64(sr) / float64(nfft)
	}
	return freqs
}

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27

func hzToMel(f float64) float64 {
	if f >= melMinLogHz {
		return melMinLogMel + math.Log(f/melMinLogHz)/melLogStep
	}
	return f / melFSp
}

func melToHz(m float64) float64 {
	if m >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(m-melMinLogMel))
	}
	return melFSp * m
}

// melFilterbank builds Slaney-normalized triangular filters as [mel][bin].
func melFilterbank(sr, nfft, nmels int, fmin, fmax float64) [][]float64 {
	fftFreqs := fftFrequencies(sr, nfft)

	lo, hi := hzToMel(fmin), hzToMel(fmax)
	melF := make([]float64, nmels+2)
	for i := range melF {
		melF[i] = melToHz(lo + (hi-lo)*float64(i)/float64(nmels+1))
	}

	weights := make([][]float64, nmels)
	for m := range weights {
		row := make([]float64, len(fftFreqs))
		lowerWidth := melF[m+1] - melF[m]
		upperWidth := melF[m+2] - melF[m+1]
		enorm := 2 / (melF[m+2] - melF[m])
		for k, f := range fftFreqs {
			lower := (f - melF[m]) / lowerWidth
			upper := (melF[m+2] - f) / upperWidth
			row[k] = math.Max(0, math.Min(lower, upper)) * enorm
		}
		weights[m] = row
	}
	return weights
}

// melSpectrogram applies the filterbank to the power spectrum, giving [mel][frame].
func melSpectrogram(mag [][]float64, filters [][]float64) [][]float64 {
	out := make([][]float64, len(filters))
	for m, w := range filters {
		row := make([]float64, len(mag))
		for t, frame := range mag {
			var sum float64
			for k, v := range frame {
				if w[k] != 0 {
					sum += w[k] * v * v
				}
			}
			row[t] = sum
		}
		out[m] = row
	}
	return out
}

// powerToDB converts in place to decibels relative to 1.0, clamped to topDB
// below the global peak.
func powerToDB(s [][]float64, topDB float64) {
	const amin = 1e-10
	peak := math.Inf(-1)
	for _, row := range s {
		for i, v := range row {
			row[i] = 10 * math.Log10(math.Max(amin, v))
			peak = math.Max(peak, row[i])
		}
	}
	if topDB <= 0 {
		return
	}
	floor := peak - topDB
	for _, row := range s {
		for i, v := range row {
			row[i] = math.Max(v, floor)
		}
	}
}

// dctII applies an orthonormal type-II DCT along the mel axis and keeps the
// first n coefficients, giving [coefficient][frame].
func dctII(s [][]float64, n int) [][]float64 {
	m := len(s)
	nframes := len(s[0])
	out := make([][]float64, n)
	for k := 0; k < n; k++ {
		scale := math.Sqrt(2 / float64(m))
		if k == 0 {
			scale = math.Sqrt(1 / float64(m))
		}
		basis := make([]float64, m)
		for j := range basis {
			basis[j] = math.Cos(math.Pi*float64(k)*(2*float64(j)+1)/(2*float64(m))) * scale
		}
		row := make([]float64, nframes)
		for t := range row {
			var sum float64
			for j := 0; j < m; j++ {
				sum += s[j][t] * basis[j]
			}
			row[t] = sum
		}
		out[k] = row
	}
	return out
}
