package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	videocodec "github.com/mostafa-hamdan/StegDetector-Project/pkg/codec/video"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/message"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/transcode"
)

// Algorithm names recorded on video extraction results.
const (
	AlgorithmFrameLSB = "lsb-rgb24-sequential"
	AlgorithmTrackLSB = "lsb-audio-track"
)

// VideoFrameExtractor recovers payloads hidden in decoded RGB frame LSBs.
type VideoFrameExtractor struct {
	BaseExtractor
	transcoder     transcode.Transcoder
	maxDecodeBytes int64
	log            zerolog.Logger
}

// NewVideoFrameExtractor creates a frame extractor decoding through t.
func NewVideoFrameExtractor(t transcode.Transcoder, maxDecodeBytes int64, log zerolog.Logger) *VideoFrameExtractor {
	return &VideoFrameExtractor{
		BaseExtractor:  NewBaseExtractor("Video Frame LSB Extractor", transcode.LosslessContainers, []string{AlgorithmFrameLSB}),
		transcoder:     t,
		maxDecodeBytes: maxDecodeBytes,
		log:            log.With().Str("extractor", "frames").Logger(),
	}
}

// Extract decodes only the frames the payload spans: first enough for the
// length header, then enough for the declared length.
func (e *VideoFrameExtractor) Extract(ctx context.Context, filePath string, options ExtractionOptions) (*models.ExtractionResult, error) {
	info, err := e.transcoder.Probe(ctx, filePath)
	if err != nil {
		return nil, err
	}

	headerFrames := videocodec.FramesFor(info.Width, info.Height, message.HeaderBits)
	seq, err := e.decode(ctx, filePath, headerFrames)
	if err != nil {
		return nil, err
	}
	length, err := videocodec.DeclaredLength(seq)
	if errors.Is(err, models.ErrNoPayloadFound) {
		return e.miss(filePath, "no length header"), nil
	}
	if err != nil {
		return nil, err
	}

	needed := videocodec.FramesFor(info.Width, info.Height, message.FramedBitLen(length))
	if info.Frames > 0 && needed > info.Frames {
		return e.miss(filePath, "declared length exceeds the video"), nil
	}
	// without a frame count only the budget bounds a random header
	if e.maxDecodeBytes > 0 && int64(needed)*int64(seq.FrameBytes()) > e.maxDecodeBytes {
		return e.miss(filePath, "declared length exceeds the frame budget"), nil
	}
	if needed > seq.Len() {
		seq, err = e.decode(ctx, filePath, needed)
		if errors.Is(err, models.ErrFrameBudgetExceeded) {
			return e.miss(filePath, "declared length exceeds the frame budget"), nil
		}
		if err != nil {
			return nil, err
		}
	}

	data, err := videocodec.Extract(seq)
	if errors.Is(err, models.ErrNoPayloadFound) {
		return e.miss(filePath, "payload incomplete"), nil
	}
	if err != nil {
		return nil, err
	}

	result, err := newResult(filePath, StreamFrames, AlgorithmFrameLSB, data, options)
	if err != nil {
		return nil, err
	}
	result.Details["frames_read"] = seq.Len()
	result.Details["width"] = seq.Width
	result.Details["height"] = seq.Height
	e.log.Info().Str("file", filePath).Int("bytes", len(data)).Int("frames", seq.Len()).Msg("payload recovered")
	return result, nil
}

// ExtractFrames recovers a payload from an in-memory sequence.
func (e *VideoFrameExtractor) ExtractFrames(filePath string, seq *media.FrameSequence, options ExtractionOptions) (*models.ExtractionResult, error) {
	data, err := videocodec.Extract(seq)
	if errors.Is(err, models.ErrNoPayloadFound) {
		return notFound(filePath, StreamFrames, AlgorithmFrameLSB), nil
	}
	if err != nil {
		return nil, err
	}
	return newResult(filePath, StreamFrames, AlgorithmFrameLSB, data, options)
}

func (e *VideoFrameExtractor) decode(ctx context.Context, filePath string, frames int) (*media.FrameSequence, error) {
	seq, err := e.transcoder.DecodeToFrames(ctx, filePath, transcode.DecodeOptions{
		MaxFrames: frames,
		MaxBytes:  e.maxDecodeBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode frames: %w", err)
	}
	return seq, nil
}

func (e *VideoFrameExtractor) miss(filePath, reason string) *models.ExtractionResult {
	e.log.Debug().Str("file", filePath).Str("reason", reason).Msg("no payload")
	r := notFound(filePath, StreamFrames, AlgorithmFrameLSB)
	r.Details["reason"] = reason
	return r
}

// VideoAudioExtractor recovers payloads hidden in the PCM samples of a
// video's audio track.
type VideoAudioExtractor struct {
	BaseExtractor
	tracks  transcode.AudioTrackTranscoder
	audio   *AudioExtractor
	tempDir string
}

// NewVideoAudioExtractor creates an audio track extractor working in scratch
// directories below tempDir.
func NewVideoAudioExtractor(t transcode.AudioTrackTranscoder, tempDir string, log zerolog.Logger) *VideoAudioExtractor {
	return &VideoAudioExtractor{
		BaseExtractor: NewBaseExtractor("Video Audio Track Extractor", transcode.LosslessContainers, []string{AlgorithmTrackLSB}),
		tracks:        t,
		audio:         NewAudioExtractor(nil, tempDir, log.With().Str("stream", "track").Logger()),
		tempDir:       tempDir,
	}
}

// Extract implements the DataExtractor interface. A video without an audio
// track holds no payload in it, so that is a miss rather than an error.
func (e *VideoAudioExtractor) Extract(ctx context.Context, filePath string, options ExtractionOptions) (*models.ExtractionResult, error) {
	ws, err := transcode.NewWorkspace(e.tempDir)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	wav := ws.Path("track.wav")
	if err := e.tracks.ExtractAudio(ctx, filePath, wav); err != nil {
		if errors.Is(err, models.ErrNoAudioTrack) {
			r := notFound(filePath, StreamAudio, AlgorithmTrackLSB)
			r.Details["reason"] = "no audio track"
			return r, nil
		}
		return nil, err
	}
	buf, err := media.LoadWAV(wav)
	if err != nil {
		return nil, fmt.Errorf("read extracted audio: %w", err)
	}

	result, err := e.audio.ExtractBuffer(filePath, buf, options)
	if err != nil {
		return nil, err
	}
	result.Algorithm = AlgorithmTrackLSB
	return result, nil
}
