// Package embedder hides payloads in media files. It wires the LSB codecs to
// file I/O and to the external transcoder: audio is read and written as WAV or
// FLAC, video is decoded to RGB frames and re-encoded losslessly.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/rs/zerolog"

	audiocodec "github.com/mostafa-hamdan/StegDetector-Project/pkg/codec/audio"
	videocodec "github.com/mostafa-hamdan/StegDetector-Project/pkg/codec/video"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/config"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/message"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/transcode"
)

// Payloads are the independent payloads of one video embed. Either may be
// empty; the frame and audio streams never share bit budget.
type Payloads struct {
	Frames []byte
	Audio  []byte
}

// Report describes a finished embed.
type Report struct {
	Output        string `json:"output"`
	FrameBytes    int    `json:"frameBytes,omitempty"`
	AudioBytes    int    `json:"audioBytes,omitempty"`
	FrameCapacity int    `json:"frameCapacity,omitempty"`
	AudioCapacity int    `json:"audioCapacity,omitempty"`
}

// VideoCapacity is the payload room of a video, per stream, in bytes.
type VideoCapacity struct {
	Frames   int  `json:"frames"`
	Audio    int  `json:"audio"`
	HasAudio bool `json:"hasAudio"`
	// Exact is false when the container does not record a frame count and
	// Frames was estimated from duration and rate.
	Exact bool `json:"exact"`
}

// Embedder embeds payloads into files.
type Embedder struct {
	frames         transcode.Transcoder
	tracks         transcode.AudioTrackTranscoder
	tempDir        string
	maxPayload     int
	maxDecodeBytes int64
	log            zerolog.Logger
}

// New creates an Embedder. frames and tracks may be nil when only audio
// files are embedded into.
func New(cfg *config.Config, frames transcode.Transcoder, tracks transcode.AudioTrackTranscoder, log zerolog.Logger) *Embedder {
	return &Embedder{
		frames:         frames,
		tracks:         tracks,
		tempDir:        cfg.TempDir,
		maxPayload:     cfg.MaxPayloadBytes,
		maxDecodeBytes: cfg.MaxDecodeBytes,
		log:            log.With().Str("component", "embedder").Logger(),
	}
}

// AudioCapacity returns how many payload bytes the audio file can carry.
func (e *Embedder) AudioCapacity(ctx context.Context, path string) (int, error) {
	buf, err := transcode.LoadAudio(ctx, path, e.tracks, e.tempDir)
	if err != nil {
		return 0, err
	}
	return e.limit(audiocodec.Capacity(buf)), nil
}

// EmbedAudioFile hides payload in the samples of cover and writes the result
// to out. out must be WAV or FLAC; any lossy format would destroy the LSBs.
func (e *Embedder) EmbedAudioFile(ctx context.Context, cover, out string, payload []byte) (*Report, error) {
	if err := checkLosslessAudio(out); err != nil {
		return nil, err
	}
	if err := e.checkPayload(payload); err != nil {
		return nil, err
	}
	buf, err := transcode.LoadAudio(ctx, cover, e.tracks, e.tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load cover: %w", err)
	}

	stego, err := audiocodec.Embed(buf, payload)
	if err != nil {
		return nil, err
	}
	if err := media.SaveAudio(out, stego); err != nil {
		return nil, fmt.Errorf("failed to write stego audio: %w", err)
	}

	e.log.Info().Str("cover", cover).Str("out", out).Int("bytes", len(payload)).Msg("audio embedded")
	return &Report{Output: out, AudioBytes: len(payload), AudioCapacity: e.limit(audiocodec.Capacity(buf))}, nil
}

// VideoCapacity probes path and reports the room in each stream. The audio
// track is decoded to measure it; frames are not decoded.
func (e *Embedder) VideoCapacity(ctx context.Context, path string) (*VideoCapacity, error) {
	if e.frames == nil {
		return nil, errors.New("video embedding requires a frame transcoder")
	}
	info, err := e.frames.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	frames, exact := frameCount(info)
	c := &VideoCapacity{
		Frames:   e.limit(bytesFor(int64(frames) * int64(info.Width*info.Height*media.Channels))),
		HasAudio: info.HasAudio,
		Exact:    exact,
	}
	if info.HasAudio && e.tracks != nil {
		buf, err := e.loadTrack(ctx, path)
		if err != nil {
			return nil, err
		}
		c.Audio = e.limit(audiocodec.Capacity(buf))
	}
	return c, nil
}

// EmbedVideo hides p.Frames in the pixel LSBs and p.Audio in the audio track
// of cover and writes a lossless container (FFV1 video, FLAC audio) to out.
// With only an audio payload the video stream is copied untouched. An out
// without extension is a frame directory and cannot take an audio payload.
func (e *Embedder) EmbedVideo(ctx context.Context, cover, out string, p Payloads) (*Report, error) {
	if len(p.Frames) == 0 && len(p.Audio) == 0 {
		return nil, errors.New("nothing to embed: both payloads are empty")
	}
	if err := checkLosslessVideo(out, len(p.Audio) > 0); err != nil {
		return nil, err
	}
	if e.frames == nil {
		return nil, errors.New("video embedding requires a frame transcoder")
	}
	if len(p.Audio) > 0 && e.tracks == nil {
		return nil, errors.New("audio track embedding requires an audio track transcoder")
	}
	for _, payload := range [][]byte{p.Frames, p.Audio} {
		if err := e.checkPayload(payload); err != nil {
			return nil, err
		}
	}

	info, err := e.frames.Probe(ctx, cover)
	if err != nil {
		return nil, err
	}
	if len(p.Audio) > 0 && !info.HasAudio {
		return nil, fmt.Errorf("%w in %s", models.ErrNoAudioTrack, cover)
	}
	// refuse early when the container says the frames cannot hold the payload
	if frames, exact := frameCount(info); exact && len(p.Frames) > 0 {
		available := frames * info.Width * info.Height * media.Channels
		if needed := message.FramedBitLen(len(p.Frames)); needed > available {
			return nil, &models.CapacityError{Needed: needed, Available: available}
		}
	}

	ws, err := transcode.NewWorkspace(e.tempDir)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	report := &Report{Output: out}

	// audio track first: it is cheap and fails fast on capacity
	var track string
	if len(p.Audio) > 0 {
		buf, err := e.loadTrack(ctx, cover)
		if err != nil {
			return nil, err
		}
		stego, err := audiocodec.Embed(buf, p.Audio)
		if err != nil {
			return nil, fmt.Errorf("audio track: %w", err)
		}
		track = ws.Path("track_stego.wav")
		if err := media.SaveWAV(track, stego); err != nil {
			return nil, err
		}
		report.AudioBytes = len(p.Audio)
		report.AudioCapacity = e.limit(audiocodec.Capacity(buf))
	}

	if len(p.Frames) == 0 {
		if err := e.tracks.MuxAudio(ctx, cover, track, out); err != nil {
			return nil, err
		}
		e.log.Info().Str("cover", cover).Str("out", out).Int("audio_bytes", report.AudioBytes).Msg("video embedded")
		return report, nil
	}

	seq, err := e.frames.DecodeToFrames(ctx, cover, transcode.DecodeOptions{MaxBytes: e.maxDecodeBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover frames: %w", err)
	}
	stego, err := videocodec.Embed(seq, p.Frames)
	if err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	report.FrameBytes = len(p.Frames)
	report.FrameCapacity = e.limit(videocodec.Capacity(seq))

	// without an audio track to carry over the frames go straight to out
	if !info.HasAudio || e.tracks == nil || isFrameDir(out) {
		if info.HasAudio {
			e.log.Warn().Str("cover", cover).Str("out", out).Msg("audio track not carried over, output has no audio")
		}
		if err := e.frames.EncodeFromFrames(ctx, stego, out); err != nil {
			return nil, err
		}
	} else {
		video := ws.Path("video.mkv")
		if err := e.frames.EncodeFromFrames(ctx, stego, video); err != nil {
			return nil, err
		}
		if track == "" {
			track = cover
		}
		if err := e.tracks.MuxAudio(ctx, video, track, out); err != nil {
			return nil, err
		}
	}

	e.log.Info().Str("cover", cover).Str("out", out).Int("frame_bytes", report.FrameBytes).
		Int("audio_bytes", report.AudioBytes).Int("frames", stego.Len()).Msg("video embedded")
	return report, nil
}

func (e *Embedder) loadTrack(ctx context.Context, video string) (*goaudio.IntBuffer, error) {
	ws, err := transcode.NewWorkspace(e.tempDir)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	wav := ws.Path("track.wav")
	if err := e.tracks.ExtractAudio(ctx, video, wav); err != nil {
		return nil, err
	}
	return media.LoadWAV(wav)
}

func (e *Embedder) checkPayload(payload []byte) error {
	if e.maxPayload > 0 && len(payload) > e.maxPayload {
		return fmt.Errorf("payload of %d bytes exceeds the %d byte limit: %w", len(payload), e.maxPayload, models.ErrInsufficientCapacity)
	}
	return nil
}

// limit caps a carrier capacity at the configured payload limit.
func (e *Embedder) limit(capacity int) int {
	if e.maxPayload > 0 && capacity > e.maxPayload {
		return e.maxPayload
	}
	return capacity
}

func checkLosslessAudio(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave", ".flac":
		return nil
	}
	return fmt.Errorf("%w: output %s must be .wav or .flac to keep sample LSBs", models.ErrUnsupportedFormat, path)
}

// checkLosslessVideo accepts the lossless containers, and a frame directory
// when no audio track has to be written.
func checkLosslessVideo(path string, withAudio bool) error {
	if transcode.IsLosslessContainer(path) {
		return nil
	}
	if isFrameDir(path) {
		if withAudio {
			return fmt.Errorf("%w: frame directory %s cannot hold an audio track", models.ErrUnsupportedFormat, path)
		}
		return nil
	}
	return fmt.Errorf("%w: output %s must be one of %s to keep pixel and sample LSBs",
		models.ErrUnsupportedFormat, path, strings.Join(transcode.LosslessContainers, ", "))
}

func isFrameDir(path string) bool {
	return filepath.Ext(path) == ""
}

// frameCount is the container's frame count, or an estimate from duration
// and rate when it records none.
func frameCount(info *transcode.StreamInfo) (int, bool) {
	if info.Frames > 0 {
		return info.Frames, true
	}
	return int(info.Duration * info.FrameRate), false
}

// bytesFor converts carrier bits to payload bytes after the length header.
func bytesFor(bits int64) int {
	n := bits/8 - message.HeaderBytes
	if n < 0 {
		return 0
	}
	return int(min(n, int64(videocodec.MaxPayloadSize)))
}
