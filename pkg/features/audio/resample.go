package audio

import "math"

// resampleZeroCrossings is the half-width of the interpolation kernel, in
// zero crossings of the sinc at the output cutoff.
const resampleZeroCrossings = 32

// Resample converts y from rate from to rate to with a Hann-windowed sinc
// interpolator. The cutoff is lowered to the output Nyquist frequency when
// downsampling. The output has ceil(len(y)*to/from) samples.
func Resample(y []float64, from, to int) []float64 {
	if from == to || len(y) == 0 {
		return append([]float64(nil), y...)
	}

	ratio := float64(to) / float64(from)
	cutoff := math.Min(1, ratio)
	halfWidth := float64(resampleZeroCrossings) / cutoff

	n := int(math.Ceil(float64(len(y)) * ratio))
	out := make([]float64, n)
	for i := range out {
		center := float64(i) / ratio
		lo := max(int(math.Ceil(center-halfWidth)), 0)
		hi := min(int(math.Floor(center+halfWidth)), len(y)-1)

		var sum float64
		for j := lo; j <= hi; j++ {
			d := float64(j) - center
			w := 0.5 + 0.5*math.Cos(math.Pi*d/halfWidth)
			sum += y[j] * cutoff * sinc(cutoff*d) * w
		}
		out[i] = sum
	}
	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
