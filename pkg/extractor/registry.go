package extractor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/filehandler"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// Registry is a container for all available extractors
type Registry struct {
	extractors map[string][]DataExtractor
	mu         sync.RWMutex
}

// NewRegistry creates a new extractor registry
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string][]DataExtractor),
	}
}

// Register adds an extractor to the registry
func (r *Registry) Register(extractor DataExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, format := range extractor.SupportedFormats() {
		r.extractors[format] = append(r.extractors[format], extractor)
	}
}

// GetExtractorsForFormat returns all extractors that support the given
// format, in registration order
func (r *Registry) GetExtractorsForFormat(format string) []DataExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]DataExtractor(nil), r.extractors[format]...)
}

// GetExtractorByName finds an extractor with the given name
func (r *Registry) GetExtractorByName(name string, format string) (DataExtractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.extractors[format] {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no extractor named %q for format %q", name, format)
}

// GetSupportedFormats returns all formats that have registered extractors
func (r *Registry) GetSupportedFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.extractors))
	for format := range r.extractors {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	return formats
}

// ExtractFile runs every extractor registered for the file's format. Results
// of the extractors that succeeded are returned together with the joined
// errors of those that did not.
func (r *Registry) ExtractFile(ctx context.Context, filePath string, options ExtractionOptions) ([]*models.ExtractionResult, error) {
	_, format, err := filehandler.DetectMediaFormat(filePath)
	if err != nil {
		return nil, err
	}
	extractors := r.GetExtractorsForFormat(format)
	if len(extractors) == 0 {
		return nil, fmt.Errorf("no extractor for format %q", format)
	}

	var results []*models.ExtractionResult
	var errs []error
	for _, e := range extractors {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := e.Extract(ctx, filePath, options)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
