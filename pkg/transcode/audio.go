package transcode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
)

// IsNativeAudio reports whether path can be decoded without the external
// tool: WAV and FLAC keep PCM samples exactly.
func IsNativeAudio(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave", ".flac":
		return true
	}
	return false
}

// LoadAudio decodes WAV and FLAC directly. Any other file (mp3, ogg, m4a, or
// a video container) has its first audio track converted to 16-bit PCM
// through t in a scratch workspace below tempDir.
func LoadAudio(ctx context.Context, path string, t AudioTrackTranscoder, tempDir string) (*goaudio.IntBuffer, error) {
	if IsNativeAudio(path) {
		return media.LoadAudio(path)
	}
	if t == nil {
		return nil, errors.New("decoding " + filepath.Ext(path) + " audio requires ffmpeg")
	}

	ws, err := NewWorkspace(tempDir)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	wav := ws.Path("audio.wav")
	if err := t.ExtractAudio(ctx, path, wav); err != nil {
		return nil, err
	}
	buf, err := media.LoadWAV(wav)
	if err != nil {
		return nil, fmt.Errorf("read extracted audio: %w", err)
	}
	return buf, nil
}
