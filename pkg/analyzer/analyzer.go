package analyzer

import (
	"context"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/config"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

/*
Analyzer.go contains the interface and base implementation for media analyzers.
FileAnalyzer: interface defines the methods that all media analyzers must implement.
BaseAnalyzer: struct provides the name, description and supported formats shared by analyzers.
AnalysisOptions: struct holds per-run options such as verbosity and method selection.
Each analyzer runs a statistical LSB method and a model method and reports both;
the best available score becomes the file's detection score.
*/

// Detection method identifiers, as reported in models.MethodResult.Method.
const (
	MethodAudioLSB = "A1_LSB_stats"
	MethodAudioSVM = "A2_MFCC_SVM"
	MethodVideoLSB = "V1_frame_LSB_stats"
	MethodVideoSVM = "V2_frame_SVM"
)

// Verdicts attached to method scores.
const (
	VerdictClean     = "Likely clean"
	VerdictUncertain = "Uncertain"
	VerdictStego     = "Likely stego"

	VerdictLSBSkewed    = "Likely clean (LSB distribution skewed)"
	VerdictLSBModerate  = "Uncertain (LSB distribution moderate)"
	VerdictLSBBalanced  = "Suspicious (LSB distribution very balanced)"
	VerdictModelMissing = "Model unavailable"
	VerdictMethodFailed = "Analysis failed"
	VerdictNoSamples    = "Audio too short / invalid"
	VerdictNoFrames     = "No frames extracted"
)

// AnalysisOptions holds configuration options for analysis
type AnalysisOptions struct {
	Verbose bool
	// Methods restricts which methods run. Empty runs all of them.
	Methods []string
}

func (o AnalysisOptions) wants(method string) bool {
	if len(o.Methods) == 0 {
		return true
	}
	for _, m := range o.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// FileAnalyzer is the interface that all media analyzers must implement
type FileAnalyzer interface {
	// CanAnalyze checks if this analyzer can handle the given format
	CanAnalyze(format string) bool

	// Analyze performs analysis on a file and returns results
	Analyze(ctx context.Context, filePath string, options AnalysisOptions) (*models.AnalysisResult, error)

	// Name returns the name of the analyzer
	Name() string

	// Description returns a detailed description of what the analyzer does
	Description() string

	// SupportedFormats returns a list of file formats this analyzer supports
	SupportedFormats() []string
}

// BaseAnalyzer provides common functionality for analyzers
type BaseAnalyzer struct {
	name        string
	description string
	formats     []string
}

// NewBaseAnalyzer creates a new BaseAnalyzer
func NewBaseAnalyzer(name, description string, formats []string) BaseAnalyzer {
	return BaseAnalyzer{
		name:        name,
		description: description,
		formats:     formats,
	}
}

// Name returns the analyzer name
func (b *BaseAnalyzer) Name() string {
	return b.name
}

// Description returns the analyzer description
func (b *BaseAnalyzer) Description() string {
	return b.description
}

// SupportedFormats returns the supported formats
func (b *BaseAnalyzer) SupportedFormats() []string {
	return b.formats
}

// CanAnalyze checks if the analyzer supports the given format
func (b *BaseAnalyzer) CanAnalyze(format string) bool {
	for _, f := range b.formats {
		if f == format {
			return true
		}
	}
	return false
}

// ModelVerdict maps a stego probability onto the band.
func ModelVerdict(p float64, band config.Band) string {
	switch {
	case p < band.Low:
		return VerdictClean
	case p < band.High:
		return VerdictUncertain
	default:
		return VerdictStego
	}
}

// LSBVerdict maps an LSB balance score onto the band.
func LSBVerdict(balance float64, band config.Band) string {
	switch {
	case balance < band.Low:
		return VerdictLSBSkewed
	case balance < band.High:
		return VerdictLSBModerate
	default:
		return VerdictLSBBalanced
	}
}

// unavailable builds the result of a method that could not produce a score.
func unavailable(method, verdict string, err error) models.MethodResult {
	return models.MethodResult{
		Method:  method,
		Verdict: verdict,
		Error:   err.Error(),
	}
}

// summarize sets the overall confidence from the best method and adds the
// findings and recommendations shared by both media types.
func summarize(result *models.AnalysisResult, band config.Band) {
	for _, m := range result.Methods {
		if m.Verdict == VerdictModelMissing {
			result.Recommendations = append(result.Recommendations,
				"Install the trained scaler and classifier artifacts to enable "+m.Method)
		}
	}

	best, ok := result.GetMethod(result.BestMethod)
	if !ok {
		result.Recommendations = append(result.Recommendations,
			"No detection method produced a score; check the file and the model artifacts")
		return
	}
	if c, ok := best.Details["confidence"].(float64); ok {
		result.Confidence = c
	}

	for _, m := range result.Methods {
		if m.Score == nil {
			continue
		}
		switch m.Verdict {
		case VerdictStego, VerdictLSBBalanced:
			result.AddFinding(m.Verdict, *m.Score, m.Method)
		}
	}

	switch {
	case result.DetectionScore >= band.High:
		result.Recommendations = append(result.Recommendations,
			"Run extract on this file to attempt recovery of the hidden payload")
	case result.DetectionScore >= band.Low:
		result.Recommendations = append(result.Recommendations,
			"Result is inconclusive; compare against a known clean copy of the file if one exists")
	}
}
