// Package transcode moves frames and audio tracks between container files and
// the raw buffers the codecs work on. Container parsing is delegated to an
// external tool; this package only drives it.
package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
)

// StreamInfo describes the first video stream of a container and whether an
// audio stream is present.
type StreamInfo struct {
	Width      int
	Height     int
	FrameRate  float64
	Frames     int // 0 when the container does not record a count
	Duration   float64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// DecodeOptions bounds how much of a video is decoded.
type DecodeOptions struct {
	// MaxFrames stops decoding after this many frames. Zero means all.
	MaxFrames int
	// Step keeps only every Step-th source frame, starting with the first.
	// MaxFrames counts kept frames. Zero or one keeps every frame.
	Step int
	// MaxBytes fails the decode with models.ErrFrameBudgetExceeded once the
	// raw frames would exceed this size. Zero means no limit.
	MaxBytes int64
}

// Transcoder converts between a video file and an RGB24 frame sequence.
// EncodeFromFrames must be lossless: the LSBs of every value survive.
type Transcoder interface {
	Probe(ctx context.Context, path string) (*StreamInfo, error)
	DecodeToFrames(ctx context.Context, path string, opts DecodeOptions) (*media.FrameSequence, error)
	EncodeFromFrames(ctx context.Context, seq *media.FrameSequence, path string) error
}

// AudioTrackTranscoder pulls the audio track out of a video and puts one back.
type AudioTrackTranscoder interface {
	ExtractAudio(ctx context.Context, videoPath, wavPath string) error
	MuxAudio(ctx context.Context, videoPath, audioPath, outPath string) error
}

// LosslessContainers are the container formats written for stego video. Each
// holds FFV1 video and FLAC audio.
var LosslessContainers = []string{"mkv", "avi", "mov"}

// IsLosslessContainer reports whether the extension of path is one of
// LosslessContainers.
func IsLosslessContainer(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return slices.Contains(LosslessContainers, ext)
}

// Workspace is a scratch directory unique to one operation.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a uniquely named directory below base (os.TempDir()
// when base is empty). Concurrent operations never share a workspace.
func NewWorkspace(base string) (*Workspace, error) {
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "stegdetector-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path returns name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.Dir)
}

var (
	_ Transcoder           = (*FFmpeg)(nil)
	_ AudioTrackTranscoder = (*FFmpeg)(nil)
	_ Transcoder           = (*ImageSequence)(nil)
)
