package extractor

import (
	"context"
	"errors"
	"fmt"

	goaudio "github.com/go-audio/audio"
	"github.com/rs/zerolog"

	audiocodec "github.com/mostafa-hamdan/StegDetector-Project/pkg/codec/audio"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/transcode"
)

// AlgorithmAudioLSB names the sample LSB scheme on results.
const AlgorithmAudioLSB = "lsb-pcm-sequential"

// AudioExtractor recovers payloads hidden in PCM sample LSBs.
type AudioExtractor struct {
	BaseExtractor
	decoder transcode.AudioTrackTranscoder
	tempDir string
	log     zerolog.Logger
}

// NewAudioExtractor creates an audio extractor. Only WAV and FLAC keep sample
// LSBs intact, so lossy formats are not accepted even when decoder is set.
func NewAudioExtractor(decoder transcode.AudioTrackTranscoder, tempDir string, log zerolog.Logger) *AudioExtractor {
	return &AudioExtractor{
		BaseExtractor: NewBaseExtractor("Audio LSB Extractor", []string{"wav", "flac"}, []string{AlgorithmAudioLSB}),
		decoder:       decoder,
		tempDir:       tempDir,
		log:           log.With().Str("extractor", "audio").Logger(),
	}
}

// Extract implements the DataExtractor interface
func (e *AudioExtractor) Extract(ctx context.Context, filePath string, options ExtractionOptions) (*models.ExtractionResult, error) {
	buf, err := transcode.LoadAudio(ctx, filePath, e.decoder, e.tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load audio: %w", err)
	}
	return e.ExtractBuffer(filePath, buf, options)
}

// ExtractBuffer recovers a payload from decoded samples. filePath only labels
// the result and names output files.
func (e *AudioExtractor) ExtractBuffer(filePath string, buf *goaudio.IntBuffer, options ExtractionOptions) (*models.ExtractionResult, error) {
	data, err := audiocodec.Extract(buf)
	if errors.Is(err, models.ErrNoPayloadFound) {
		e.log.Debug().Str("file", filePath).Int("samples", len(buf.Data)).Msg("no payload")
		return notFound(filePath, StreamAudio, AlgorithmAudioLSB), nil
	}
	if err != nil {
		return nil, err
	}

	result, err := newResult(filePath, StreamAudio, AlgorithmAudioLSB, data, options)
	if err != nil {
		return nil, err
	}
	result.Details["samples"] = len(buf.Data)
	if buf.Format != nil {
		result.Details["channels"] = buf.Format.NumChannels
		result.Details["sample_rate"] = buf.Format.SampleRate
	}
	e.log.Info().Str("file", filePath).Int("bytes", len(data)).Str("type", result.DataType).Msg("payload recovered")
	return result, nil
}
