package models

import "fmt"

// Label is the classifier output class.
type Label int

const (
	Cover Label = iota
	Stego
)

func (l Label) String() string {
	switch l {
	case Cover:
		return "cover"
	case Stego:
		return "stego"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// MarshalText renders the label as "cover" or "stego".
func (l Label) MarshalText() ([]byte, error) {
	switch l {
	case Cover, Stego:
		return []byte(l.String()), nil
	}
	return nil, fmt.Errorf("invalid label %d", int(l))
}

// UnmarshalText parses "cover" or "stego".
func (l *Label) UnmarshalText(text []byte) error {
	switch string(text) {
	case "cover":
		*l = Cover
	case "stego":
		*l = Stego
	default:
		return fmt.Errorf("invalid label %q", text)
	}
	return nil
}

// DetectionResult is the classifier decision for one feature vector.
type DetectionResult struct {
	Label            Label   `json:"label"`
	Confidence       float64 `json:"confidence"`       // probability of Label, in [0,1]
	StegoProbability float64 `json:"stegoProbability"` // probability of the stego class
	Margin           float64 `json:"margin"`           // signed classifier margin, positive leans stego
}
