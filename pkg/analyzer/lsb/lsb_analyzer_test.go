package lsb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeDistributionConstant(t *testing.T) {
	res := AnalyzeDistribution(make([]int, 1000))
	assert.Equal(t, 1000, res.Samples)
	assert.Equal(t, 1.0, res.P0)
	assert.Equal(t, 0.0, res.P1)
	assert.Equal(t, 0.0, res.Balance)
	assert.Equal(t, 0.0, res.Entropy)
	assert.Equal(t, 1000.0, res.ChiSquare)
	assert.Equal(t, 0.0, res.Transitions)
	assert.False(t, IsSuspiciousChiSquare(res.ChiSquare))
}

func TestAnalyzeDistributionAlternating(t *testing.T) {
	samples := make([]uint8, 200)
	for i := range samples {
		samples[i] = uint8(i)
	}
	res := AnalyzeDistribution(samples)
	assert.Equal(t, 0.5, res.P1)
	assert.Equal(t, 1.0, res.Balance)
	assert.InDelta(t, 1.0, res.Entropy, 1e-12)
	assert.Equal(t, 0.0, res.ChiSquare)
	assert.Equal(t, 1.0, res.Transitions)
	assert.True(t, IsSuspiciousChiSquare(res.ChiSquare))
	assert.InDelta(t, 0.002, res.Confidence, 1e-12)
}

func TestAnalyzeDistributionNegativeSamples(t *testing.T) {
	// two's complement: -1 and -3 are odd, -2 is even
	res := AnalyzeDistribution([]int16{-1, -2, -3, -4})
	assert.Equal(t, 0.5, res.P1)
	assert.Equal(t, 1.0, res.Transitions)
}

func TestCollectorRestartsPairsPerSlice(t *testing.T) {
	var c Collector
	Add(&c, []uint8{0, 0, 0})
	Add(&c, []uint8{1, 1, 1})
	res := c.Result()

	assert.Equal(t, 6, res.Samples)
	assert.Equal(t, 0.5, res.P1)
	// the 0 -> 1 step between slices is not a pair
	assert.Equal(t, 0.0, res.Transitions)
}

func TestCollectorEmpty(t *testing.T) {
	var c Collector
	assert.Equal(t, AnalysisResult{}, c.Result())
	assert.Equal(t, AnalysisResult{}, AnalyzeDistribution([]int32{}))
}

func TestConfidenceSaturates(t *testing.T) {
	res := AnalyzeDistribution(make([]uint8, 250000))
	assert.Equal(t, 1.0, res.Confidence)
}

func TestBalanceSkewed(t *testing.T) {
	samples := make([]int, 100)
	for i := 0; i < 75; i++ {
		samples[i] = 1
	}
	res := AnalyzeDistribution(samples)
	assert.InDelta(t, 0.5, res.Balance, 1e-12)
	want := -0.25*math.Log2(0.25) - 0.75*math.Log2(0.75)
	assert.InDelta(t, want, res.Entropy, 1e-12)
	assert.InDelta(t, 25.0, res.ChiSquare, 1e-12)
}
