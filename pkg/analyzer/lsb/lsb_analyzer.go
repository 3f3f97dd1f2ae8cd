// Package lsb measures the least significant bit distribution of raw carrier
// values (PCM samples or grayscale pixels).
package lsb

import (
	"math"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/bitpack"
)

// AnalysisResult represents the result of LSB distribution analysis
type AnalysisResult struct {
	Samples int
	P0      float64
	P1      float64

	// Balance is 1 when zeros and ones are equally frequent and 0 when every
	// LSB has the same value. Payload bits push it towards 1.
	Balance float64

	Entropy     float64 // Shannon entropy of the LSB plane, in bits
	ChiSquare   float64 // even/odd chi-square against a 50/50 split
	Transitions float64 // share of adjacent LSB pairs that differ
	Confidence  float64
}

// Collector accumulates LSB counts over several slices, e.g. one per frame.
// Adjacent-pair statistics restart at every slice boundary.
type Collector struct {
	ones        int
	total       int
	transitions int
	pairs       int
}

// Add counts the LSBs of samples into c.
func Add[S bitpack.Sample](c *Collector, samples []S) {
	for i, s := range samples {
		bit := s & 1
		if bit != 0 {
			c.ones++
		}
		if i > 0 {
			c.pairs++
			if bit != samples[i-1]&1 {
				c.transitions++
			}
		}
	}
	c.total += len(samples)
}

// AnalyzeDistribution is a one-shot Collector over samples.
func AnalyzeDistribution[S bitpack.Sample](samples []S) AnalysisResult {
	var c Collector
	Add(&c, samples)
	return c.Result()
}

// Result computes the statistics gathered so far. An empty collector yields
// the zero AnalysisResult.
func (c *Collector) Result() AnalysisResult {
	if c.total == 0 {
		return AnalysisResult{}
	}
	p1 := float64(c.ones) / float64(c.total)
	p0 := 1 - p1

	res := AnalysisResult{
		Samples:    c.total,
		P0:         p0,
		P1:         p1,
		Balance:    1 - math.Abs(p1-0.5)*2,
		Entropy:    calculateEntropy(p0, p1),
		ChiSquare:  chiSquare(c.total-c.ones, c.ones),
		Confidence: calculateConfidence(c.total),
	}
	if c.pairs > 0 {
		res.Transitions = float64(c.transitions) / float64(c.pairs)
	}
	return res
}

// IsSuspiciousChiSquare reports a near-perfect even/odd split. With one
// degree of freedom 0.5 leaves roughly the middle half of the distribution.
func IsSuspiciousChiSquare(chi float64) bool {
	return chi < 0.5
}

// calculateEntropy calculates Shannon entropy from probability distribution
func calculateEntropy(zeroProb, oneProb float64) float64 {
	if zeroProb <= 0 || oneProb <= 0 {
		return 0
	}
	return -zeroProb*math.Log2(zeroProb) - oneProb*math.Log2(oneProb)
}

// chiSquare for 2 categories: ((O1 - E)^2 / E) + ((O2 - E)^2 / E)
func chiSquare(zeros, ones int) float64 {
	expected := float64(zeros+ones) / 2
	if expected == 0 {
		return 0
	}
	dz := float64(zeros) - expected
	do := float64(ones) - expected
	return dz*dz/expected + do*do/expected
}

// calculateConfidence grows with the sample count; a few thousand values are
// too few to tell natural noise from payload bits.
func calculateConfidence(sampleSize int) float64 {
	return math.Min(float64(sampleSize)/100000.0, 1.0)
}
