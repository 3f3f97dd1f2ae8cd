package embedder

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audiocodec "github.com/mostafa-hamdan/StegDetector-Project/pkg/codec/audio"
	videocodec "github.com/mostafa-hamdan/StegDetector-Project/pkg/codec/video"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/config"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/transcode"
)

func toneBuffer(n int) *goaudio.IntBuffer {
	data := make([]int, n)
	for i := range data {
		data[i] = int(7000 * math.Sin(2*math.Pi*500*float64(i)/8000))
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.TempDir = t.TempDir()
	return cfg
}

func TestEmbedAudioFile(t *testing.T) {
	for _, ext := range []string{".wav", ".flac"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			cover := filepath.Join(dir, "cover.wav")
			require.NoError(t, media.SaveWAV(cover, toneBuffer(4000)))
			out := filepath.Join(dir, "stego"+ext)

			e := New(testConfig(t), nil, nil, zerolog.Nop())
			report, err := e.EmbedAudioFile(context.Background(), cover, out, []byte("attack at noon"))
			require.NoError(t, err)
			assert.Equal(t, out, report.Output)
			assert.Equal(t, 14, report.AudioBytes)
			assert.Equal(t, 496, report.AudioCapacity)

			stego, err := media.LoadAudio(out)
			require.NoError(t, err)
			got, err := audiocodec.Extract(stego)
			require.NoError(t, err)
			assert.Equal(t, "attack at noon", string(got))

			n, err := e.AudioCapacity(context.Background(), cover)
			require.NoError(t, err)
			assert.Equal(t, 496, n)
		})
	}
}

func TestEmbedAudioFileErrors(t *testing.T) {
	dir := t.TempDir()
	cover := filepath.Join(dir, "cover.wav")
	require.NoError(t, media.SaveWAV(cover, toneBuffer(400)))
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.MaxPayloadBytes = 8
	e := New(cfg, nil, nil, zerolog.Nop())

	_, err := e.EmbedAudioFile(ctx, cover, filepath.Join(dir, "out.mp3"), []byte("x"))
	assert.ErrorContains(t, err, ".wav or .flac")

	_, err = e.EmbedAudioFile(ctx, cover, filepath.Join(dir, "out.wav"), make([]byte, 9))
	assert.ErrorIs(t, err, models.ErrInsufficientCapacity)

	// 400 samples carry 46 bytes, then the configured limit applies
	n, err := e.AudioCapacity(ctx, cover)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	e = New(testConfig(t), nil, nil, zerolog.Nop())
	_, err = e.EmbedAudioFile(ctx, cover, filepath.Join(dir, "out.wav"), make([]byte, 47))
	var ce *models.CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 400, ce.Available)
	_, statErr := os.Stat(filepath.Join(dir, "out.wav"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = e.EmbedAudioFile(ctx, filepath.Join(dir, "missing.wav"), filepath.Join(dir, "out.wav"), []byte("x"))
	assert.ErrorContains(t, err, "failed to load cover")
}

func textureFrames(n int) *media.FrameSequence {
	seq := media.NewFrameSequence(16, 12, n, 25)
	for i := range seq.Frames {
		for j := range seq.Frames[i].Pix {
			seq.Frames[i].Pix[j] = uint8(i*29 + j*5)
		}
	}
	return seq
}

func frameDir(t *testing.T, seq *media.FrameSequence) (string, *transcode.ImageSequence) {
	t.Helper()
	s, err := transcode.NewImageSequence(transcode.FormatPNG, 25, zerolog.Nop())
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "cover")
	require.NoError(t, s.EncodeFromFrames(context.Background(), seq, dir))
	return dir, s
}

func TestEmbedVideoFrames(t *testing.T) {
	cover, frames := frameDir(t, textureFrames(3))
	out := filepath.Join(t.TempDir(), "stego")
	payload := []byte("frames carry this message across two frames of pixels......")

	e := New(testConfig(t), frames, nil, zerolog.Nop())
	report, err := e.EmbedVideo(context.Background(), cover, out, Payloads{Frames: payload})
	require.NoError(t, err)
	assert.Equal(t, len(payload), report.FrameBytes)
	assert.Equal(t, 212, report.FrameCapacity)
	assert.Zero(t, report.AudioBytes)

	seq, err := frames.DecodeToFrames(context.Background(), out, transcode.DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())
	got, err := videocodec.Extract(seq)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	c, err := e.VideoCapacity(context.Background(), cover)
	require.NoError(t, err)
	assert.Equal(t, VideoCapacity{Frames: 212, Exact: true}, *c)
}

func TestEmbedVideoErrors(t *testing.T) {
	cover, frames := frameDir(t, textureFrames(1))
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "stego")

	e := New(testConfig(t), frames, nil, zerolog.Nop())
	_, err := e.EmbedVideo(ctx, cover, out, Payloads{})
	assert.ErrorContains(t, err, "nothing to embed")

	// one 16x12 frame carries 576 bits
	_, err = e.EmbedVideo(ctx, cover, out, Payloads{Frames: make([]byte, 100)})
	var ce *models.CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 576, ce.Available)
	assert.Equal(t, 832, ce.Needed)

	mkv := filepath.Join(t.TempDir(), "stego.mkv")
	_, err = e.EmbedVideo(ctx, cover, mkv, Payloads{Audio: []byte("x")})
	assert.ErrorContains(t, err, "audio track transcoder")

	e = New(testConfig(t), frames, &fakeTracks{}, zerolog.Nop())
	_, err = e.EmbedVideo(ctx, cover, mkv, Payloads{Audio: []byte("x")})
	assert.ErrorIs(t, err, models.ErrNoAudioTrack)

	e = New(testConfig(t), nil, nil, zerolog.Nop())
	_, err = e.EmbedVideo(ctx, cover, out, Payloads{Frames: []byte("x")})
	assert.Error(t, err)
	_, err = e.VideoCapacity(ctx, cover)
	assert.Error(t, err)
}

func TestEmbedVideoRejectsLossyContainers(t *testing.T) {
	cover, frames := frameDir(t, textureFrames(2))
	dir := t.TempDir()
	track := filepath.Join(dir, "track.wav")
	require.NoError(t, media.SaveWAV(track, toneBuffer(2000)))
	tracks := &fakeTracks{wav: track, muxed: filepath.Join(dir, "muxed.wav")}
	e := New(testConfig(t), withAudio{frames}, tracks, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name string
		out  string
		p    Payloads
	}{
		{"audio only into mp4", "out.mp4", Payloads{Audio: []byte("track")}},
		{"frames into mp4", "out.mp4", Payloads{Frames: []byte("pixels")}},
		{"frames into webm", "out.webm", Payloads{Frames: []byte("pixels")}},
		{"audio into frame directory", "frames", Payloads{Audio: []byte("track")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.out)
			_, err := e.EmbedVideo(ctx, cover, out, tt.p)
			assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
			assert.Empty(t, tracks.video, "nothing is muxed")
			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

// withAudio reports an audio track on every probed video.
type withAudio struct {
	*transcode.ImageSequence
}

func (w withAudio) Probe(ctx context.Context, path string) (*transcode.StreamInfo, error) {
	info, err := w.ImageSequence.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	info.HasAudio = true
	return info, nil
}

// fakeTracks serves wav as every video's audio track and records the last
// mux. The muxed audio is copied to muxed and, when the video is a frame
// directory, its frames to frames, since the embedder removes its workspace.
type fakeTracks struct {
	wav    string
	muxed  string
	frames string
	video  string
}

func (f *fakeTracks) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	if f.wav == "" {
		return models.ErrNoAudioTrack
	}
	return copyFile(f.wav, wavPath)
}

func (f *fakeTracks) MuxAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	f.video = videoPath
	if entries, err := os.ReadDir(videoPath); err == nil && f.frames != "" {
		if err := os.MkdirAll(f.frames, 0o755); err != nil {
			return err
		}
		for _, e := range entries {
			if err := copyFile(filepath.Join(videoPath, e.Name()), filepath.Join(f.frames, e.Name())); err != nil {
				return err
			}
		}
	}
	return copyFile(audioPath, f.muxed)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func TestEmbedVideoAudioTrack(t *testing.T) {
	cover, frames := frameDir(t, textureFrames(2))
	dir := t.TempDir()
	track := filepath.Join(dir, "track.wav")
	require.NoError(t, media.SaveWAV(track, toneBuffer(2000)))
	tracks := &fakeTracks{wav: track, muxed: filepath.Join(dir, "muxed.wav"), frames: filepath.Join(dir, "muxed_frames")}

	e := New(testConfig(t), withAudio{frames}, tracks, zerolog.Nop())

	t.Run("audio only", func(t *testing.T) {
		report, err := e.EmbedVideo(context.Background(), cover, filepath.Join(dir, "out.mkv"), Payloads{Audio: []byte("track only")})
		require.NoError(t, err)
		assert.Equal(t, 10, report.AudioBytes)
		assert.Equal(t, 246, report.AudioCapacity)
		assert.Zero(t, report.FrameBytes)
		assert.Equal(t, cover, tracks.video, "video stream is copied from the cover")

		buf, err := media.LoadWAV(tracks.muxed)
		require.NoError(t, err)
		got, err := audiocodec.Extract(buf)
		require.NoError(t, err)
		assert.Equal(t, "track only", string(got))
	})

	t.Run("both streams", func(t *testing.T) {
		report, err := e.EmbedVideo(context.Background(), cover, filepath.Join(dir, "out.mkv"),
			Payloads{Frames: []byte("pixels"), Audio: []byte("samples")})
		require.NoError(t, err)
		assert.Equal(t, 6, report.FrameBytes)
		assert.Equal(t, 7, report.AudioBytes)
		assert.NotEqual(t, cover, tracks.video)

		seq, err := frames.DecodeToFrames(context.Background(), tracks.frames, transcode.DecodeOptions{})
		require.NoError(t, err)
		got, err := videocodec.Extract(seq)
		require.NoError(t, err)
		assert.Equal(t, "pixels", string(got))

		buf, err := media.LoadWAV(tracks.muxed)
		require.NoError(t, err)
		got, err = audiocodec.Extract(buf)
		require.NoError(t, err)
		assert.Equal(t, "samples", string(got))
	})

	t.Run("capacity", func(t *testing.T) {
		c, err := e.VideoCapacity(context.Background(), cover)
		require.NoError(t, err)
		assert.True(t, c.HasAudio)
		assert.Equal(t, 246, c.Audio)
		assert.Equal(t, 2*576/8-4, c.Frames)
	})
}

func TestHelpers(t *testing.T) {
	n, exact := frameCount(&transcode.StreamInfo{Frames: 12})
	assert.Equal(t, 12, n)
	assert.True(t, exact)

	n, exact = frameCount(&transcode.StreamInfo{Duration: 2, FrameRate: 29.97})
	assert.Equal(t, 59, n)
	assert.False(t, exact)

	assert.Equal(t, 0, bytesFor(16))
	assert.Equal(t, 6, bytesFor(80))

	assert.NoError(t, checkLosslessAudio("a.WAV"))
	assert.NoError(t, checkLosslessAudio("a.flac"))
	assert.ErrorIs(t, checkLosslessAudio("a.ogg"), models.ErrUnsupportedFormat)

	assert.NoError(t, checkLosslessVideo("a.MKV", true))
	assert.NoError(t, checkLosslessVideo("a.avi", false))
	assert.NoError(t, checkLosslessVideo("frames", false))
	assert.ErrorIs(t, checkLosslessVideo("frames", true), models.ErrUnsupportedFormat)
	assert.ErrorIs(t, checkLosslessVideo("a.mp4", false), models.ErrUnsupportedFormat)
}
