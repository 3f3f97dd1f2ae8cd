package analyzer

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/filehandler"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// ScanResult is the outcome for one file of a scan.
type ScanResult struct {
	Path   string
	Result *models.AnalysisResult
	Err    error
}

// ScanFiles analyzes files with at most workers analyses in flight and
// returns one ScanResult per input, in input order. A failing file does not
// stop the others; cancelling ctx does.
func ScanFiles(ctx context.Context, reg *Registry, files []string, options AnalysisOptions, workers int, log zerolog.Logger) []ScanResult {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]ScanResult, len(files))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range files {
		results[i].Path = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Result, results[i].Err = AnalyzeFile(ctx, reg, path, options)
			if results[i].Err != nil {
				log.Warn().Str("file", path).Err(results[i].Err).Msg("analysis failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// AnalyzeFile picks the analyzer for the file's format and runs it.
func AnalyzeFile(ctx context.Context, reg *Registry, path string, options AnalysisOptions) (*models.AnalysisResult, error) {
	_, format, err := filehandler.DetectMediaFormat(path)
	if err != nil {
		return nil, err
	}
	a, err := reg.AnalyzerFor(format)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, path, options)
}
