package detector

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// Kernel names accepted in classifier artifacts.
const (
	KernelLinear  = "linear"
	KernelRBF     = "rbf"
	KernelPoly    = "poly"
	KernelSigmoid = "sigmoid"
)

// SVC is a fitted binary support vector classifier.
//
// The decision function is sum(DualCoef[i] * K(SupportVectors[i], x)) + Intercept;
// a positive value favours Classes[1]. When ProbA and ProbB are set, class
// probabilities come from the stored Platt sigmoid; otherwise a logistic
// function of the margin is used.
type SVC struct {
	Kernel         string          `json:"kernel"`
	Gamma          float64         `json:"gamma"`
	Coef0          float64         `json:"coef0"`
	Degree         int             `json:"degree"`
	SupportVectors [][]float64     `json:"support_vectors"`
	DualCoef       []float64       `json:"dual_coef"`
	Intercept      float64         `json:"intercept"`
	ProbA          *float64        `json:"prob_a,omitempty"`
	ProbB          *float64        `json:"prob_b,omitempty"`
	Labels         [2]models.Label `json:"classes"`
}

// NumFeatures is the support vector dimension.
func (c *SVC) NumFeatures() int {
	if len(c.SupportVectors) == 0 {
		return 0
	}
	return len(c.SupportVectors[0])
}

// Classes returns the two labels in decision-function order.
func (c *SVC) Classes() [2]models.Label {
	return c.Labels
}

// Validate checks that the parameters are consistent.
func (c *SVC) Validate() error {
	switch c.Kernel {
	case KernelLinear, KernelRBF, KernelPoly, KernelSigmoid:
	default:
		return fmt.Errorf("unsupported kernel %q", c.Kernel)
	}
	if len(c.SupportVectors) == 0 {
		return errors.New("classifier has no support vectors")
	}
	if len(c.DualCoef) != len(c.SupportVectors) {
		return fmt.Errorf("classifier has %d dual coefficients for %d support vectors", len(c.DualCoef), len(c.SupportVectors))
	}
	dim := len(c.SupportVectors[0])
	for i, sv := range c.SupportVectors {
		if len(sv) != dim {
			return fmt.Errorf("support vector %d has %d values, want %d", i, len(sv), dim)
		}
	}
	if c.Labels[0] == c.Labels[1] {
		return fmt.Errorf("classifier classes must differ, got %v twice", c.Labels[0])
	}
	if (c.ProbA == nil) != (c.ProbB == nil) {
		return errors.New("classifier must store both or neither Platt parameters")
	}
	if c.Kernel == KernelPoly && c.Degree <= 0 {
		return errors.New("polynomial kernel needs a positive degree")
	}
	return nil
}

// DecisionFunction returns the signed margin of x.
func (c *SVC) DecisionFunction(x []float64) (float64, error) {
	if len(x) != c.NumFeatures() {
		return 0, fmt.Errorf("feature vector has %d values, classifier expects %d", len(x), c.NumFeatures())
	}
	sum := c.Intercept
	for i, sv := range c.SupportVectors {
		sum += c.DualCoef[i] * c.kernel(sv, x)
	}
	return sum, nil
}

// PredictProba returns the probabilities of Classes[0] and Classes[1].
func (c *SVC) PredictProba(x []float64) ([2]float64, error) {
	f, err := c.DecisionFunction(x)
	if err != nil {
		return [2]float64{}, err
	}

	var p1 float64
	if c.ProbA != nil && c.ProbB != nil {
		// Platt parameters are fitted on the margin oriented towards Classes[0]
		p1 = 1 - plattSigmoid(-f, *c.ProbA, *c.ProbB)
	} else {
		p1 = logistic(f)
	}
	p1 = math.Min(1, math.Max(0, p1))
	return [2]float64{1 - p1, p1}, nil
}

func (c *SVC) kernel(sv, x []float64) float64 {
	switch c.Kernel {
	case KernelLinear:
		return floats.Dot(sv, x)
	case KernelPoly:
		return math.Pow(c.Gamma*floats.Dot(sv, x)+c.Coef0, float64(c.Degree))
	case KernelSigmoid:
		return math.Tanh(c.Gamma*floats.Dot(sv, x) + c.Coef0)
	default:
		d := floats.Distance(sv, x, 2)
		return math.Exp(-c.Gamma * d * d)
	}
}

// plattSigmoid evaluates 1 / (1 + exp(a*f + b)) without overflow.
func plattSigmoid(f, a, b float64) float64 {
	fApB := f*a + b
	if fApB >= 0 {
		e := math.Exp(-fApB)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(fApB))
}

func logistic(f float64) float64 {
	if f >= 0 {
		return 1 / (1 + math.Exp(-f))
	}
	e := math.Exp(f)
	return e / (1 + e)
}
