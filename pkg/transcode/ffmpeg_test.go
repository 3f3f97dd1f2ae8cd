package transcode

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// probeJSON describes a 4x2 video without a recorded frame count.
const probeJSON = `{"streams":[{"codec_type":"video","codec_name":"ffv1","width":4,"height":2,"avg_frame_rate":"25/1"}],"format":{"duration":"0.08"}}`

// scriptFFmpeg returns an FFmpeg whose binaries are the given shell scripts.
func scriptFFmpeg(t *testing.T, ffprobe, ffmpeg string, timeout time.Duration) *FFmpeg {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
		return p
	}
	return NewFFmpeg(FFmpegOptions{
		FFprobePath: write("ffprobe", ffprobe),
		FFmpegPath:  write("ffmpeg", ffmpeg),
		Timeout:     timeout,
	}, zerolog.Nop())
}

func printProbe() string {
	return "cat <<'EOF'\n" + probeJSON + "\nEOF"
}

func TestFFmpegNonZeroExit(t *testing.T) {
	ctx := context.Background()

	t.Run("probe", func(t *testing.T) {
		ff := scriptFFmpeg(t, "echo 'moov atom not found' >&2; exit 1", "exit 0", time.Minute)
		_, err := ff.Probe(ctx, "video.mkv")
		require.ErrorIs(t, err, models.ErrTranscodeFailed)

		var te *models.TranscodeError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "probe", te.Op)
		assert.Contains(t, te.Stderr, "moov atom not found")
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.ExitCode())
	})

	ff := scriptFFmpeg(t, printProbe(), "echo 'Invalid data found when processing input' >&2; exit 1", time.Minute)

	t.Run("decode", func(t *testing.T) {
		_, err := ff.DecodeToFrames(ctx, "video.mkv", DecodeOptions{})
		require.ErrorIs(t, err, models.ErrTranscodeFailed)
		var te *models.TranscodeError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "decode", te.Op)
		assert.Contains(t, err.Error(), "Invalid data found")
	})

	t.Run("encode", func(t *testing.T) {
		seq := media.NewFrameSequence(4, 2, 2, 25)
		err := ff.EncodeFromFrames(ctx, seq, filepath.Join(t.TempDir(), "out.mkv"))
		require.ErrorIs(t, err, models.ErrTranscodeFailed)
	})

	t.Run("mux", func(t *testing.T) {
		err := ff.MuxAudio(ctx, "video.mkv", "track.wav", filepath.Join(t.TempDir(), "out.mkv"))
		require.ErrorIs(t, err, models.ErrTranscodeFailed)
		var te *models.TranscodeError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "mux", te.Op)
	})
}

func TestFFmpegTimeout(t *testing.T) {
	ctx := context.Background()
	const timeout = 200 * time.Millisecond

	t.Run("probe", func(t *testing.T) {
		ff := scriptFFmpeg(t, "exec sleep 5", "exit 0", timeout)
		start := time.Now()
		_, err := ff.Probe(ctx, "video.mkv")
		assert.Less(t, time.Since(start), 4*time.Second)
		require.ErrorIs(t, err, models.ErrTranscodeFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("decode", func(t *testing.T) {
		ff := scriptFFmpeg(t, printProbe(), "exec sleep 5", timeout)
		start := time.Now()
		_, err := ff.DecodeToFrames(ctx, "video.mkv", DecodeOptions{})
		assert.Less(t, time.Since(start), 4*time.Second)
		require.ErrorIs(t, err, models.ErrTranscodeFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("caller cancels", func(t *testing.T) {
		ff := scriptFFmpeg(t, "exec sleep 5", "exit 0", time.Minute)
		cctx, cancel := context.WithCancel(ctx)
		time.AfterFunc(50*time.Millisecond, cancel)
		_, err := ff.Probe(cctx, "video.mkv")
		require.ErrorIs(t, err, models.ErrTranscodeFailed)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestFFmpegDecodeBudget(t *testing.T) {
	// each 4x2 rgb24 frame is 24 bytes; the script emits two and a half
	ff := scriptFFmpeg(t, printProbe(), "head -c 60 /dev/zero", time.Minute)
	ctx := context.Background()

	seq, err := ff.DecodeToFrames(ctx, "video.mkv", DecodeOptions{MaxBytes: 48})
	require.NoError(t, err, "a stream that exactly fills the budget is accepted")
	assert.Equal(t, 2, seq.Len())
	assert.Equal(t, 25.0, seq.FrameRate)

	_, err = ff.DecodeToFrames(ctx, "video.mkv", DecodeOptions{MaxBytes: 47})
	assert.ErrorIs(t, err, models.ErrFrameBudgetExceeded)
	assert.NotErrorIs(t, err, models.ErrTranscodeFailed)

	// the truncated third frame never counts against the budget
	seq, err = ff.DecodeToFrames(ctx, "video.mkv", DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, seq.Len())
}
