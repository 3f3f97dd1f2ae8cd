package analyzer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/rs/zerolog"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/analyzer/lsb"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/config"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/detector"
	audiofeat "github.com/mostafa-hamdan/StegDetector-Project/pkg/features/audio"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/filehandler"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/transcode"
)

// AudioAnalyzer runs the sample LSB statistics (A1) and the MFCC model (A2)
// over an audio file.
type AudioAnalyzer struct {
	BaseAnalyzer
	store      *ModelStore
	params     audiofeat.Params
	thresholds config.Thresholds
	decoder    transcode.AudioTrackTranscoder
	tempDir    string
	log        zerolog.Logger
}

// NewAudioAnalyzer creates an audio analyzer. decoder may be nil, in which
// case only WAV and FLAC files can be analyzed.
func NewAudioAnalyzer(cfg *config.Config, store *ModelStore, decoder transcode.AudioTrackTranscoder, log zerolog.Logger) *AudioAnalyzer {
	formats := []string{"wav", "flac"}
	if decoder != nil {
		formats = append(formats, "mp3", "ogg", "m4a")
	}
	return &AudioAnalyzer{
		BaseAnalyzer: NewBaseAnalyzer(
			"Audio LSB Analyzer",
			"Measures PCM sample LSB balance and scores MFCC features with a trained classifier",
			formats,
		),
		store:      store,
		params:     cfg.AudioFeatures,
		thresholds: cfg.Thresholds,
		decoder:    decoder,
		tempDir:    cfg.TempDir,
		log:        log.With().Str("analyzer", "audio").Logger(),
	}
}

// Analyze loads filePath and analyzes its samples.
func (a *AudioAnalyzer) Analyze(ctx context.Context, filePath string, options AnalysisOptions) (*models.AnalysisResult, error) {
	start := time.Now()
	buf, err := transcode.LoadAudio(ctx, filePath, a.decoder, a.tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load audio: %w", err)
	}

	result := a.AnalyzeBuffer(ctx, buf, options)
	result.Filename = filePath
	result.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	result.AnalysisTime = start
	result.AnalysisDuration = time.Since(start)
	if size, err := filehandler.GetFileSize(filePath); err == nil {
		result.Details["file_size"] = size
	}

	a.log.Debug().Str("file", filePath).Float64("score", result.DetectionScore).
		Str("best", result.BestMethod).Dur("took", result.AnalysisDuration).Msg("analyzed")
	return result, nil
}

// AnalyzeBuffer analyzes decoded samples.
func (a *AudioAnalyzer) AnalyzeBuffer(ctx context.Context, buf *goaudio.IntBuffer, options AnalysisOptions) *models.AnalysisResult {
	result := &models.AnalysisResult{
		MediaType:    "audio",
		Details:      map[string]interface{}{},
		AnalysisTime: time.Now(),
	}
	if buf.Format != nil {
		result.Details["sample_rate"] = buf.Format.SampleRate
		result.Details["channels"] = buf.Format.NumChannels
	}
	result.Details["samples"] = len(buf.Data)

	if options.wants(MethodAudioLSB) {
		result.AddMethod(a.lsbStatistics(buf))
	}
	if options.wants(MethodAudioSVM) {
		result.AddMethod(a.mfccModel(buf, options.Verbose))
	}

	summarize(result, a.thresholds.Audio)
	return result
}

func (a *AudioAnalyzer) lsbStatistics(buf *goaudio.IntBuffer) models.MethodResult {
	if len(buf.Data) == 0 {
		return models.MethodResult{Method: MethodAudioLSB, Score: models.Score(0), Verdict: VerdictNoSamples}
	}
	stats := lsb.AnalyzeDistribution(buf.Data)
	return models.MethodResult{
		Method:  MethodAudioLSB,
		Score:   models.Score(stats.Balance),
		Verdict: LSBVerdict(stats.Balance, a.thresholds.LSBBalance),
		Details: lsbDetails(stats),
	}
}

func (a *AudioAnalyzer) mfccModel(buf *goaudio.IntBuffer, verbose bool) models.MethodResult {
	model, err := a.store.Audio()
	if err != nil {
		return unavailable(MethodAudioSVM, VerdictModelMissing, err)
	}
	features, err := audiofeat.Extract(buf, a.params)
	if err != nil {
		return unavailable(MethodAudioSVM, VerdictMethodFailed, fmt.Errorf("feature extraction: %w", err))
	}
	return modelMethod(MethodAudioSVM, features, model, a.thresholds.Audio, verbose)
}

// modelMethod scores features with model; shared with the video analyzer.
// verbose adds the raw feature vector to the details.
func modelMethod(method string, features []float64, model *detector.Model, band config.Band, verbose bool) models.MethodResult {
	det, err := detector.Detect(features, model)
	if err != nil {
		verdict := VerdictMethodFailed
		if errors.Is(err, models.ErrModelUnavailable) {
			verdict = VerdictModelMissing
		}
		return unavailable(method, verdict, err)
	}
	details := map[string]interface{}{
		"label":      det.Label.String(),
		"confidence": det.Confidence,
		"margin":     det.Margin,
		"features":   len(features),
	}
	if verbose {
		details["feature_vector"] = features
	}
	return models.MethodResult{
		Method:  method,
		Score:   models.Score(det.StegoProbability),
		Verdict: ModelVerdict(det.StegoProbability, band),
		Details: details,
	}
}

func lsbDetails(stats lsb.AnalysisResult) map[string]interface{} {
	return map[string]interface{}{
		"p0":              stats.P0,
		"p1":              stats.P1,
		"entropy":         stats.Entropy,
		"chi_square":      stats.ChiSquare,
		"chi_square_flag": lsb.IsSuspiciousChiSquare(stats.ChiSquare),
		"transitions":     stats.Transitions,
		"samples":         stats.Samples,
		"confidence":      stats.Confidence,
	}
}
