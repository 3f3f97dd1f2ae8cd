package audio

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// spectralCentroid is the magnitude-weighted mean frequency of each frame.
// Silent frames have centroid 0.
func spectralCentroid(mag [][]float64, freqs []float64) []float64 {
	out := make([]float64, len(mag))
	for t, frame := range mag {
		total := floats.Sum(frame)
		if total <= 0 {
			continue
		}
		out[t] = floats.Dot(frame, freqs) / total
	}
	return out
}

// spectralBandwidth is the second-order spread around the centroid.
func spectralBandwidth(mag [][]float64, freqs, centroid []float64) []float64 {
	out := make([]float64, len(mag))
	for t, frame := range mag {
		total := floats.Sum(frame)
		if total <= 0 {
			continue
		}
		var sum float64
		for k, v := range frame {
			d := freqs[k] - centroid[t]
			sum += v / total * d * d
		}
		out[t] = math.Sqrt(sum)
	}
	return out
}

// spectralRolloff is the lowest frequency below which pct of the frame's
// magnitude lies.
func spectralRolloff(mag [][]float64, freqs []float64, pct float64) []float64 {
	out := make([]float64, len(mag))
	cum := make([]float64, len(freqs))
	for t, frame := range mag {
		floats.CumSum(cum, frame)
		threshold := pct * cum[len(cum)-1]
		for k, c := range cum {
			if c >= threshold {
				out[t] = freqs[k]
				break
			}
		}
	}
	return out
}

// zeroCrossingRate counts sign changes per frame over centered frames padded
// by repeating the edge samples. Values within 1e-10 of zero count as positive.
func zeroCrossingRate(y []float64, frameLength, hop int) []float64 {
	const threshold = 1e-10
	pad := frameLength / 2
	padded := make([]float64, len(y)+2*pad)
	for i := range padded {
		j := min(max(i-pad, 0), len(y)-1)
		padded[i] = y[j]
	}

	negative := make([]bool, len(padded))
	for i, v := range padded {
		negative[i] = math.Abs(v) > threshold && v < 0
	}

	nframes := 1 + (len(padded)-frameLength)/hop
	out := make([]float64, nframes)
	for t := range out {
		start := t * hop
		crossings := 0
		for i := start + 1; i < start+frameLength; i++ {
			if negative[i] != negative[i-1] {
				crossings++
			}
		}
		out[t] = float64(crossings) / float64(frameLength)
	}
	return out
}
