package detector

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

func ptr(v float64) *float64 { return &v }

// linearModel scales [3, 5] to [1, 3] and has margin
// 0.5*1 - 0.25*3 + 0.1 = -0.15 there.
func linearModel(t *testing.T, classes [2]models.Label, platt bool) *Model {
	t.Helper()
	svc := &SVC{
		Kernel:         KernelLinear,
		SupportVectors: [][]float64{{1, 0}, {0, 1}},
		DualCoef:       []float64{0.5, -0.25},
		Intercept:      0.1,
		Labels:         classes,
	}
	if platt {
		svc.ProbA, svc.ProbB = ptr(-2), ptr(0)
	}
	require.NoError(t, svc.Validate())
	m, err := NewModel(&StandardScaler{Mean: []float64{1, 2}, Scale: []float64{2, 0}}, svc)
	require.NoError(t, err)
	return m
}

func TestDetectLinear(t *testing.T) {
	m := linearModel(t, [2]models.Label{models.Cover, models.Stego}, false)

	res, err := Detect([]float64{3, 5}, m)
	require.NoError(t, err)

	p := 1 / (1 + math.Exp(0.15))
	assert.Equal(t, models.Cover, res.Label)
	assert.InDelta(t, -0.15, res.Margin, 1e-12)
	assert.InDelta(t, p, res.StegoProbability, 1e-12)
	assert.InDelta(t, 1-p, res.Confidence, 1e-12)
}

func TestDetectPlatt(t *testing.T) {
	m := linearModel(t, [2]models.Label{models.Cover, models.Stego}, true)

	res, err := Detect([]float64{3, 5}, m)
	require.NoError(t, err)

	// P(cover) = 1 / (1 + exp(A * -f + B)) with f = -0.15
	pCover := 1 / (1 + math.Exp(-2*0.15))
	assert.InDelta(t, 1-pCover, res.StegoProbability, 1e-12)
	assert.Equal(t, models.Cover, res.Label)
	assert.InDelta(t, pCover, res.Confidence, 1e-12)
}

func TestDetectReversedClasses(t *testing.T) {
	m := linearModel(t, [2]models.Label{models.Stego, models.Cover}, false)

	res, err := Detect([]float64{3, 5}, m)
	require.NoError(t, err)

	p := 1 / (1 + math.Exp(-0.15))
	assert.Equal(t, models.Stego, res.Label)
	assert.InDelta(t, p, res.StegoProbability, 1e-12)
	// margin is reported leaning stego
	assert.InDelta(t, 0.15, res.Margin, 1e-12)
}

func TestDetectRBF(t *testing.T) {
	svc := &SVC{
		Kernel:         KernelRBF,
		Gamma:          0.5,
		SupportVectors: [][]float64{{1, 3}, {-1, -1}},
		DualCoef:       []float64{2, 0},
		Intercept:      -1,
		Labels:         [2]models.Label{models.Cover, models.Stego},
	}
	m, err := NewModel(&StandardScaler{Mean: []float64{0, 0}, Scale: []float64{1, 1}}, svc)
	require.NoError(t, err)

	res, err := Detect([]float64{1, 3}, m)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Margin, 1e-12)
	assert.Equal(t, models.Stego, res.Label)
}

func TestKernels(t *testing.T) {
	x, sv := []float64{1, 2}, []float64{3, -1}
	tests := []struct {
		svc  SVC
		want float64
	}{
		{SVC{Kernel: KernelLinear}, 1},
		{SVC{Kernel: KernelPoly, Gamma: 2, Coef0: 1, Degree: 2}, 9},
		{SVC{Kernel: KernelSigmoid, Gamma: 1, Coef0: 0}, math.Tanh(1)},
		{SVC{Kernel: KernelRBF, Gamma: 0.1}, math.Exp(-0.1 * 13)},
	}
	for _, tt := range tests {
		t.Run(tt.svc.Kernel, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.svc.kernel(sv, x), 1e-12)
		})
	}
}

func TestConfidenceBounds(t *testing.T) {
	m := linearModel(t, [2]models.Label{models.Cover, models.Stego}, true)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		x := []float64{rng.NormFloat64() * 1e3, rng.NormFloat64() * 1e3}
		res, err := Detect(x, m)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Confidence, 0.5)
		assert.LessOrEqual(t, res.Confidence, 1.0)
		assert.GreaterOrEqual(t, res.StegoProbability, 0.0)
		assert.LessOrEqual(t, res.StegoProbability, 1.0)
	}
}

func TestDetectErrors(t *testing.T) {
	m := linearModel(t, [2]models.Label{models.Cover, models.Stego}, false)

	_, err := Detect([]float64{1, 2}, nil)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)

	_, err = Detect([]float64{1, 2, 3}, m)
	assert.Error(t, err)

	_, err = Detect([]float64{math.NaN(), 1}, m)
	assert.Error(t, err)
	_, err = Detect([]float64{math.Inf(1), 1}, m)
	assert.Error(t, err)
}

func TestNewModelChecks(t *testing.T) {
	svc := &SVC{Kernel: KernelLinear, SupportVectors: [][]float64{{1, 2, 3}}, DualCoef: []float64{1},
		Labels: [2]models.Label{models.Cover, models.Stego}}

	_, err := NewModel(&StandardScaler{Mean: []float64{0, 0}, Scale: []float64{1, 1}}, svc)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)

	_, err = NewModel(nil, svc)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestSVCValidate(t *testing.T) {
	base := func() *SVC {
		return &SVC{Kernel: KernelLinear, SupportVectors: [][]float64{{1, 2}}, DualCoef: []float64{1},
			Labels: [2]models.Label{models.Cover, models.Stego}}
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*SVC)
	}{
		{"kernel", func(c *SVC) { c.Kernel = "laplacian" }},
		{"no vectors", func(c *SVC) { c.SupportVectors, c.DualCoef = nil, nil }},
		{"coef count", func(c *SVC) { c.DualCoef = []float64{1, 2} }},
		{"ragged", func(c *SVC) { c.SupportVectors = append(c.SupportVectors, []float64{1}); c.DualCoef = []float64{1, 1} }},
		{"same classes", func(c *SVC) { c.Labels[1] = models.Cover }},
		{"half platt", func(c *SVC) { c.ProbA = ptr(1) }},
		{"poly degree", func(c *SVC) { c.Kernel = KernelPoly }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	scalerPath := filepath.Join(dir, "scaler.json")
	svmPath := filepath.Join(dir, "svm.json")

	require.NoError(t, WriteArtifact(scalerPath, &StandardScaler{Mean: []float64{1, 2}, Scale: []float64{2, 1}}))
	require.NoError(t, WriteArtifact(svmPath, &SVC{
		Kernel:         KernelLinear,
		SupportVectors: [][]float64{{1, 0}, {0, 1}},
		DualCoef:       []float64{0.5, -0.25},
		Intercept:      0.1,
		ProbA:          ptr(-1.5),
		ProbB:          ptr(0.2),
		Labels:         [2]models.Label{models.Cover, models.Stego},
	}))

	m, err := LoadModel(scalerPath, svmPath)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumFeatures())

	res, err := Detect([]float64{1, 2}, m)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, res.Margin, 1e-12)
}

func TestLoadModelIgnoresTrainingKeys(t *testing.T) {
	dir := t.TempDir()
	scalerPath := filepath.Join(dir, "scaler.json")
	svmPath := filepath.Join(dir, "svm.json")
	require.NoError(t, WriteArtifact(scalerPath, &StandardScaler{Mean: []float64{0}, Scale: []float64{1}}))
	// class weights are folded into dual_coef at fit time
	svm := `{"kernel":"linear","support_vectors":[[1]],"dual_coef":[2],"intercept":-1,
		"classes":["cover","stego"],"class_weight":{"cover":1,"stego":5},"C":1.0}`
	require.NoError(t, os.WriteFile(svmPath, []byte(svm), 0o644))

	m, err := LoadModel(scalerPath, svmPath)
	require.NoError(t, err)
	res, err := Detect([]float64{1}, m)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Margin, 1e-12)
	assert.Equal(t, models.Stego, res.Label)
}

func TestLoadModelFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "scaler.json")
	require.NoError(t, WriteArtifact(good, &StandardScaler{Mean: []float64{0}, Scale: []float64{1}}))
	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o644))
	badLabels := filepath.Join(dir, "labels.json")
	require.NoError(t, os.WriteFile(badLabels, []byte(`{"kernel":"linear","support_vectors":[[1]],"dual_coef":[1],"classes":["cover","dog"]}`), 0o644))
	wide := filepath.Join(dir, "wide.json")
	require.NoError(t, os.WriteFile(wide, []byte(`{"kernel":"linear","support_vectors":[[1,2]],"dual_coef":[1],"classes":["cover","stego"]}`), 0o644))

	tests := []struct {
		name       string
		scaler     string
		classifier string
		path       string
	}{
		{"missing scaler", filepath.Join(dir, "nope.json"), wide, filepath.Join(dir, "nope.json")},
		{"corrupt classifier", good, corrupt, corrupt},
		{"unknown label", good, badLabels, badLabels},
		{"dimension mismatch", good, wide, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadModel(tt.scaler, tt.classifier)
			require.ErrorIs(t, err, models.ErrModelUnavailable)
			var me *models.ModelError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.path, me.Path)
		})
	}
}
