package extractor

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/filehandler"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// Common file signatures/magic numbers
var signatures = []struct {
	prefix string
	kind   string
	mime   string
}{
	{"\x89PNG", "png", "image/png"},
	{"\xff\xd8\xff", "jpg", "image/jpeg"},
	{"%PDF", "pdf", "application/pdf"},
	{"PK\x03\x04", "zip", "application/zip"},
	{"GIF8", "gif", "image/gif"},
	{"BM", "bmp", "image/bmp"},
	{"fLaC", "flac", "audio/flac"},
	{"\x1f\x8b", "gz", "application/gzip"},
}

// textThreshold is the text score above which a payload is reported as text.
const textThreshold = 0.7

// newResult builds the result for a recovered payload and, when an output
// directory is set, writes the payload there.
func newResult(filePath, stream, algorithm string, data []byte, options ExtractionOptions) (*models.ExtractionResult, error) {
	kind, mime := classifyPayload(data)
	result := &models.ExtractionResult{
		Found:         true,
		Filename:      filePath,
		Stream:        stream,
		Algorithm:     algorithm,
		DataType:      kind,
		ExtractedData: data,
		DataSize:      len(data),
		MimeType:      mime,
		Details: map[string]interface{}{
			"text_quality": evaluateAsText(data),
			"entropy":      calculateDataEntropy(data),
		},
	}

	if options.OutputDir != "" {
		ext := kind
		if kind == "text" {
			ext = "txt"
		} else if kind == "binary" {
			ext = "bin"
		}
		base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
		out := filepath.Join(options.OutputDir, fmt.Sprintf("%s_extracted_%s.%s", base, stream, ext))
		if err := filehandler.SaveFile(data, out); err != nil {
			return nil, fmt.Errorf("failed to write extracted data: %w", err)
		}
		result.OutputFiles = append(result.OutputFiles, out)
	}
	return result, nil
}

// notFound is the result for a carrier that holds no payload.
func notFound(filePath, stream, algorithm string) *models.ExtractionResult {
	return &models.ExtractionResult{
		Filename:  filePath,
		Stream:    stream,
		Algorithm: algorithm,
		Details:   map[string]interface{}{},
	}
}

// classifyPayload names the payload type: a known file signature, "text",
// or "binary".
func classifyPayload(data []byte) (kind, mime string) {
	if sig, mime := detectFileSignature(data); sig != "" {
		return sig, mime
	}
	if evaluateAsText(data) > textThreshold {
		return "text", "text/plain; charset=utf-8"
	}
	return "binary", "application/octet-stream"
}

// detectFileSignature checks if the data starts with a known file signature
func detectFileSignature(data []byte) (string, string) {
	for _, s := range signatures {
		if len(data) >= len(s.prefix) && string(data[:len(s.prefix)]) == s.prefix {
			return s.kind, s.mime
		}
	}
	return "", ""
}

// evaluateAsText determines if the data is likely to be text
func evaluateAsText(data []byte) float64 {
	if len(data) == 0 || !utf8.Valid(data) {
		return 0.0
	}

	printable := 0
	control := 0
	for _, r := range string(data) {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			printable++
		case r < 32 || r == 127:
			control++
		default:
			printable++
		}
	}
	total := float64(utf8.RuneCount(data))

	// Text typically has high printable ratio and low control char ratio
	score := float64(printable)/total - 2*float64(control)/total
	return math.Max(0, math.Min(1, score))
}

// calculateDataEntropy calculates Shannon entropy of the data in bits per byte
func calculateDataEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0.0
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	entropy := 0.0
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(len(data))
		entropy -= p * math.Log2(p)
	}
	return entropy
}
