package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/analyzer/lsb"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/config"
	videofeat "github.com/mostafa-hamdan/StegDetector-Project/pkg/features/video"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/filehandler"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/transcode"
)

// VideoAnalyzer runs the grayscale frame LSB statistics (V1) and the residual
// histogram model (V2) over a video.
type VideoAnalyzer struct {
	BaseAnalyzer
	store          *ModelStore
	params         videofeat.Params
	lsbStats       config.LSBStats
	thresholds     config.Thresholds
	transcoder     transcode.Transcoder
	maxDecodeBytes int64
	log            zerolog.Logger
}

// NewVideoAnalyzer creates a video analyzer decoding through t.
func NewVideoAnalyzer(cfg *config.Config, store *ModelStore, t transcode.Transcoder, log zerolog.Logger) *VideoAnalyzer {
	params := cfg.VideoFeatures
	params.Workers = cfg.Workers
	return &VideoAnalyzer{
		BaseAnalyzer: NewBaseAnalyzer(
			"Video Frame Analyzer",
			"Measures grayscale frame LSB balance and scores blur-residual histograms with a trained classifier",
			[]string{"mp4", "avi", "mkv", "mov", "flv"},
		),
		store:          store,
		params:         params,
		lsbStats:       cfg.LSBStats,
		thresholds:     cfg.Thresholds,
		transcoder:     t,
		maxDecodeBytes: cfg.MaxDecodeBytes,
		log:            log.With().Str("analyzer", "video").Logger(),
	}
}

// Analyze decodes the frames each method needs and analyzes them. The LSB
// method samples the whole video sparsely; the model only needs the leading
// frames its sampling rule can reach.
func (v *VideoAnalyzer) Analyze(ctx context.Context, filePath string, options AnalysisOptions) (*models.AnalysisResult, error) {
	start := time.Now()
	result := &models.AnalysisResult{
		MediaType:    "video",
		Format:       strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), "."),
		Filename:     filePath,
		Details:      map[string]interface{}{},
		AnalysisTime: start,
	}
	if size, err := filehandler.GetFileSize(filePath); err == nil {
		result.Details["file_size"] = size
	}

	var decodeErr error
	decoded := false
	if options.wants(MethodVideoLSB) {
		seq, err := v.transcoder.DecodeToFrames(ctx, filePath, transcode.DecodeOptions{
			MaxFrames: v.lsbStats.MaxFrames,
			Step:      v.lsbStats.FrameStep,
			MaxBytes:  v.maxDecodeBytes,
		})
		if err != nil {
			decodeErr = err
			result.AddMethod(unavailable(MethodVideoLSB, VerdictNoFrames, err))
		} else {
			decoded = true
			v.describe(result, seq)
			result.AddMethod(v.frameLSBStatistics(seq))
		}
	}

	if options.wants(MethodVideoSVM) {
		method, seq, err := v.residualModel(ctx, filePath, options.Verbose)
		if err != nil {
			decodeErr = err
		} else if seq != nil {
			decoded = true
			v.describe(result, seq)
		}
		result.AddMethod(method)
	}

	// nothing could be read at all: the file is not a usable video
	if !decoded && decodeErr != nil {
		return nil, fmt.Errorf("failed to decode video: %w", decodeErr)
	}

	summarize(result, v.thresholds.Video)
	result.AnalysisDuration = time.Since(start)
	v.log.Debug().Str("file", filePath).Float64("score", result.DetectionScore).
		Str("best", result.BestMethod).Dur("took", result.AnalysisDuration).Msg("analyzed")
	return result, nil
}

// AnalyzeFrames analyzes an in-memory sequence. The LSB method subsamples it
// with the configured stride; the model applies its own sampling rule.
func (v *VideoAnalyzer) AnalyzeFrames(ctx context.Context, seq *media.FrameSequence, options AnalysisOptions) *models.AnalysisResult {
	result := &models.AnalysisResult{
		MediaType:    "video",
		Details:      map[string]interface{}{},
		AnalysisTime: time.Now(),
	}
	v.describe(result, seq)

	if options.wants(MethodVideoLSB) {
		result.AddMethod(v.frameLSBStatistics(subsample(seq, v.lsbStats.FrameStep, v.lsbStats.MaxFrames)))
	}
	if options.wants(MethodVideoSVM) {
		result.AddMethod(v.scoreFrames(ctx, seq, options.Verbose))
	}

	summarize(result, v.thresholds.Video)
	return result
}

func (v *VideoAnalyzer) describe(result *models.AnalysisResult, seq *media.FrameSequence) {
	result.Details["width"] = seq.Width
	result.Details["height"] = seq.Height
	result.Details["frame_rate"] = seq.FrameRate
}

func (v *VideoAnalyzer) frameLSBStatistics(seq *media.FrameSequence) models.MethodResult {
	if seq.Len() == 0 {
		return models.MethodResult{Method: MethodVideoLSB, Score: models.Score(0), Verdict: VerdictNoFrames}
	}
	var c lsb.Collector
	for _, f := range seq.Frames {
		if len(f.Pix) != seq.FrameBytes() {
			continue
		}
		lsb.Add(&c, videofeat.Grayscale(f, seq.Width, seq.Height))
	}
	stats := c.Result()
	details := lsbDetails(stats)
	details["frames"] = seq.Len()
	return models.MethodResult{
		Method:  MethodVideoLSB,
		Score:   models.Score(stats.Balance),
		Verdict: LSBVerdict(stats.Balance, v.thresholds.LSBBalance),
		Details: details,
	}
}

func (v *VideoAnalyzer) residualModel(ctx context.Context, filePath string, verbose bool) (models.MethodResult, *media.FrameSequence, error) {
	// no point decoding when there is nothing to score the frames with
	if _, err := v.store.Video(); err != nil {
		return unavailable(MethodVideoSVM, VerdictModelMissing, err), nil, nil
	}
	seq, err := v.transcoder.DecodeToFrames(ctx, filePath, transcode.DecodeOptions{
		MaxFrames: v.params.FramesNeeded(),
		MaxBytes:  v.maxDecodeBytes,
	})
	if err != nil {
		return unavailable(MethodVideoSVM, VerdictNoFrames, err), nil, err
	}
	return v.scoreFrames(ctx, seq, verbose), seq, nil
}

func (v *VideoAnalyzer) scoreFrames(ctx context.Context, seq *media.FrameSequence, verbose bool) models.MethodResult {
	model, err := v.store.Video()
	if err != nil {
		return unavailable(MethodVideoSVM, VerdictModelMissing, err)
	}
	features, err := videofeat.Extract(ctx, seq, v.params)
	if err != nil {
		return unavailable(MethodVideoSVM, VerdictMethodFailed, fmt.Errorf("feature extraction: %w", err))
	}
	return modelMethod(MethodVideoSVM, features, model, v.thresholds.Video, verbose)
}

// subsample keeps every step-th frame, at most limit of them.
func subsample(seq *media.FrameSequence, step, limit int) *media.FrameSequence {
	if step < 1 {
		step = 1
	}
	out := &media.FrameSequence{Width: seq.Width, Height: seq.Height, FrameRate: seq.FrameRate}
	for i := 0; i < len(seq.Frames) && (limit <= 0 || len(out.Frames) < limit); i += step {
		out.Frames = append(out.Frames, seq.Frames[i])
	}
	return out
}
