package models

import (
	"time"
)

// AnalysisResult contains the results of a steganalysis run over one media file
type AnalysisResult struct {
	MediaType        string                 `json:"mediaType"` // audio or video
	Format           string                 `json:"format"`
	Filename         string                 `json:"filename"`
	DetectionScore   float64                `json:"detectionScore"` // best available method score, 0.0-1.0
	Confidence       float64                `json:"confidence"`     // 0.0-1.0 confidence in the detection score
	BestMethod       string                 `json:"bestMethod"`
	Methods          []MethodResult         `json:"methods"`
	Details          map[string]interface{} `json:"details"`
	Findings         []Finding              `json:"findings"`
	Recommendations  []string               `json:"recommendations"`
	AnalysisTime     time.Time              `json:"analysisTime"`
	AnalysisDuration time.Duration          `json:"analysisDuration"`
}

// MethodResult is the outcome of a single detection method (statistical or model based).
// Score is nil when the method could not produce one; Error then says why.
type MethodResult struct {
	Method  string                 `json:"method"`
	Score   *float64               `json:"score"`
	Verdict string                 `json:"verdict"`
	Error   string                 `json:"error,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Finding represents a specific detection or discovery during analysis
type Finding struct {
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"` // 0.0-1.0
	Details     string  `json:"details"`
}

// ExtractionResult contains the results of an extraction attempt.
// Found is false when the carrier holds no valid frame; that is a normal
// outcome, not an error.
type ExtractionResult struct {
	Found         bool                   `json:"found"`
	Filename      string                 `json:"filename"`
	Stream        string                 `json:"stream"` // audio, frames
	Algorithm     string                 `json:"algorithm"`
	DataType      string                 `json:"dataType"` // text, binary, or a file signature
	ExtractedData []byte                 `json:"extractedData"`
	DataSize      int                    `json:"dataSize"`
	Details       map[string]interface{} `json:"details"`
	OutputFiles   []string               `json:"outputFiles"`
	MimeType      string                 `json:"mimeType"`
}

// Text returns the payload as text, replacing invalid UTF-8 sequences.
func (r *ExtractionResult) Text() string {
	return toValidUTF8(r.ExtractedData)
}

// AddFinding adds a finding to the analysis result
func (r *AnalysisResult) AddFinding(description string, confidence float64, details string) {
	r.Findings = append(r.Findings, Finding{
		Description: description,
		Confidence:  confidence,
		Details:     details,
	})
}

// AddMethod records a method result and keeps the best score current.
func (r *AnalysisResult) AddMethod(m MethodResult) {
	r.Methods = append(r.Methods, m)
	if m.Score == nil {
		return
	}
	if r.BestMethod == "" || *m.Score > r.DetectionScore {
		r.DetectionScore = *m.Score
		r.BestMethod = m.Method
	}
}

// GetMethod returns the result of the named method, if it ran.
func (r *AnalysisResult) GetMethod(name string) (MethodResult, bool) {
	for _, m := range r.Methods {
		if m.Method == name {
			return m, true
		}
	}
	return MethodResult{}, false
}

// Score is a convenience for building MethodResult values.
func Score(v float64) *float64 {
	return &v
}
