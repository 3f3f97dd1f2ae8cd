package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// Scaler standardizes a feature vector.
type Scaler interface {
	NumFeatures() int
	Transform(x []float64) ([]float64, error)
}

// Classifier scores a standardized feature vector.
type Classifier interface {
	NumFeatures() int
	Classes() [2]models.Label
	DecisionFunction(x []float64) (float64, error)
	PredictProba(x []float64) ([2]float64, error)
}

// Model pairs a fitted scaler with a fitted classifier. It is immutable once
// built and safe for concurrent use.
type Model struct {
	scaler     Scaler
	classifier Classifier
}

// NewModel checks that scaler and classifier agree on the feature dimension
// and that the classifier separates cover from stego.
func NewModel(scaler Scaler, classifier Classifier) (*Model, error) {
	if scaler == nil || classifier == nil {
		return nil, &models.ModelError{Err: errors.New("scaler and classifier are required")}
	}
	if scaler.NumFeatures() != classifier.NumFeatures() {
		return nil, &models.ModelError{Err: fmt.Errorf("scaler expects %d features, classifier %d",
			scaler.NumFeatures(), classifier.NumFeatures())}
	}
	classes := classifier.Classes()
	if !(classes[0] == models.Cover && classes[1] == models.Stego) &&
		!(classes[0] == models.Stego && classes[1] == models.Cover) {
		return nil, &models.ModelError{Err: fmt.Errorf("classifier classes %v are not {cover, stego}", classes)}
	}
	return &Model{scaler: scaler, classifier: classifier}, nil
}

// NumFeatures is the feature vector length the model accepts.
func (m *Model) NumFeatures() int {
	return m.scaler.NumFeatures()
}

// LoadModel reads a JSON scaler artifact and a JSON classifier artifact.
// Missing, unreadable, corrupt or mutually inconsistent artifacts yield an
// error matching models.ErrModelUnavailable.
func LoadModel(scalerPath, classifierPath string) (*Model, error) {
	scaler := &StandardScaler{}
	if err := readArtifact(scalerPath, scaler); err != nil {
		return nil, err
	}
	if err := scaler.Validate(); err != nil {
		return nil, &models.ModelError{Path: scalerPath, Err: err}
	}

	svc := &SVC{}
	if err := readArtifact(classifierPath, svc); err != nil {
		return nil, err
	}
	if err := svc.Validate(); err != nil {
		return nil, &models.ModelError{Path: classifierPath, Err: err}
	}

	return NewModel(scaler, svc)
}

// WriteArtifact stores a scaler or classifier as JSON. The training side
// produces the same layout.
func WriteArtifact(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readArtifact(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &models.ModelError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &models.ModelError{Path: path, Err: fmt.Errorf("corrupt artifact: %w", err)}
	}
	return nil
}
