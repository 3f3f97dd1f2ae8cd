package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// DefaultTimeout bounds a single ffmpeg or ffprobe invocation.
const DefaultTimeout = 10 * time.Minute

// waitDelay bounds how long a killed process may hold its pipes open.
const waitDelay = 2 * time.Second

// FFmpegOptions configures the FFmpeg transcoder.
type FFmpegOptions struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
}

// FFmpeg drives the ffmpeg and ffprobe binaries. Frames travel as rgb24 over
// pipes; encoded video is FFV1, which is lossless, and muxed audio is FLAC.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
	log     zerolog.Logger
}

// NewFFmpeg returns a transcoder using the given binaries. Empty paths fall
// back to "ffmpeg" and "ffprobe" on PATH.
func NewFFmpeg(opts FFmpegOptions, log zerolog.Logger) *FFmpeg {
	f := &FFmpeg{
		ffmpeg:  opts.FFmpegPath,
		ffprobe: opts.FFprobePath,
		timeout: opts.Timeout,
		log:     log.With().Str("component", "ffmpeg").Logger(),
	}
	if f.ffmpeg == "" {
		f.ffmpeg = "ffmpeg"
	}
	if f.ffprobe == "" {
		f.ffprobe = "ffprobe"
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	return f
}

// Available reports whether both binaries can be resolved.
func (f *FFmpeg) Available() bool {
	if _, err := exec.LookPath(f.ffmpeg); err != nil {
		return false
	}
	_, err := exec.LookPath(f.ffprobe)
	return err == nil
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the stream layout of path with ffprobe. A file without a
// video stream is an error.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*StreamInfo, error) {
	info, foundVideo, args, err := f.probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if !foundVideo {
		return info, &models.TranscodeError{Op: "probe", Args: args, Err: errors.New("no video stream")}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return info, &models.TranscodeError{Op: "probe", Args: args, Err: fmt.Errorf("invalid frame size %dx%d", info.Width, info.Height)}
	}
	return info, nil
}

func (f *FFmpeg) probe(ctx context.Context, path string) (*StreamInfo, bool, []string, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	}
	var out bytes.Buffer
	if err := f.run(ctx, "probe", f.ffprobe, args, nil, &out); err != nil {
		return nil, false, args, err
	}

	var probe probeOutput
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil {
		return nil, false, args, &models.TranscodeError{Op: "probe", Args: args, Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}

	info := &StreamInfo{}
	info.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	foundVideo := false
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Width = s.Width
			info.Height = s.Height
			info.VideoCodec = s.CodecName
			info.FrameRate = parseRate(s.AvgFrameRate)
			if info.FrameRate == 0 {
				info.FrameRate = parseRate(s.RFrameRate)
			}
			info.Frames, _ = strconv.Atoi(s.NbFrames)
		case "audio":
			if !info.HasAudio {
				info.HasAudio = true
				info.AudioCodec = s.CodecName
			}
		}
	}
	return info, foundVideo, args, nil
}

// DecodeToFrames decodes the first video stream of path to rgb24 frames.
func (f *FFmpeg) DecodeToFrames(ctx context.Context, path string, opts DecodeOptions) (*media.FrameSequence, error) {
	info, err := f.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	seq := &media.FrameSequence{Width: info.Width, Height: info.Height, FrameRate: info.FrameRate}
	frameBytes := seq.FrameBytes()

	// fail before decoding when the container already tells us it is too big
	if opts.MaxBytes > 0 && info.Frames > 0 {
		expected := info.Frames
		if opts.Step > 1 {
			expected = (expected + opts.Step - 1) / opts.Step
		}
		if opts.MaxFrames > 0 && opts.MaxFrames < expected {
			expected = opts.MaxFrames
		}
		if int64(expected)*int64(frameBytes) > opts.MaxBytes {
			return nil, fmt.Errorf("%s: %d frames of %d bytes: %w", path, expected, frameBytes, models.ErrFrameBudgetExceeded)
		}
	}

	args := []string{"-v", "error", "-nostdin", "-i", path, "-map", "0:v:0"}
	if opts.Step > 1 {
		args = append(args, "-vf", fmt.Sprintf("select=not(mod(n\\,%d))", opts.Step), "-vsync", "0")
	}
	if opts.MaxFrames > 0 {
		args = append(args, "-frames:v", strconv.Itoa(opts.MaxFrames))
	}
	args = append(args, "-f", "rawvideo", "-pix_fmt", "rgb24", "pipe:1")

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &models.TranscodeError{Op: "decode", Args: args, Err: err}
	}

	f.log.Debug().Str("input", path).Int("width", info.Width).Int("height", info.Height).Msg("decoding frames")
	if err := cmd.Start(); err != nil {
		return nil, &models.TranscodeError{Op: "decode", Args: args, Err: err}
	}

	var readErr error
	var total int64
	for {
		pix := make([]uint8, frameBytes)
		_, err := io.ReadFull(stdout, pix)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			f.log.Warn().Str("input", path).Int("frame", len(seq.Frames)).Msg("dropping truncated trailing frame")
			break
		}
		if err != nil {
			readErr = err
			break
		}
		// counted once the frame has arrived, as ImageSequence does
		total += int64(frameBytes)
		if opts.MaxBytes > 0 && total > opts.MaxBytes {
			readErr = fmt.Errorf("%s: more than %d bytes of frames: %w", path, opts.MaxBytes, models.ErrFrameBudgetExceeded)
			break
		}
		seq.Frames = append(seq.Frames, media.Frame{Pix: pix})
	}

	if readErr != nil {
		cancel()
		_ = cmd.Wait()
		if errors.Is(readErr, models.ErrFrameBudgetExceeded) {
			return nil, readErr
		}
		return nil, &models.TranscodeError{Op: "decode", Args: args, Stderr: stderr.String(), Err: readErr}
	}
	if err := cmd.Wait(); err != nil {
		return nil, &models.TranscodeError{Op: "decode", Args: args, Stderr: stderr.String(), Err: waitError(ctx, err)}
	}
	if len(seq.Frames) == 0 {
		return nil, &models.TranscodeError{Op: "decode", Args: args, Stderr: stderr.String(), Err: errors.New("no frames decoded")}
	}

	f.log.Debug().Str("input", path).Int("frames", len(seq.Frames)).Msg("decoded frames")
	return seq, nil
}

// EncodeFromFrames writes seq to path as FFV1 video without audio. The output
// container must accept FFV1 (mkv, avi, nut).
func (f *FFmpeg) EncodeFromFrames(ctx context.Context, seq *media.FrameSequence, path string) error {
	if err := seq.Validate(); err != nil {
		return fmt.Errorf("encode frames: %w", err)
	}
	if len(seq.Frames) == 0 {
		return errors.New("encode frames: empty sequence")
	}

	fps := seq.FrameRate
	if fps <= 0 {
		fps = 25
	}
	args := []string{
		"-y", "-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", seq.Width, seq.Height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "pipe:0",
		"-c:v", "ffv1",
		"-level", "3",
		"-pix_fmt", "gbrp",
		path,
	}

	pr, pw := io.Pipe()
	go func() {
		for _, fr := range seq.Frames {
			if _, err := pw.Write(fr.Pix); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.Close()
	}()
	defer pr.Close()

	f.log.Debug().Str("output", path).Int("frames", len(seq.Frames)).Msg("encoding frames")
	return f.run(ctx, "encode", f.ffmpeg, args, pr, nil)
}

// ExtractAudio writes the first audio track of videoPath to wavPath as 16-bit
// PCM. A file without audio yields models.ErrNoAudioTrack. videoPath may also
// be an audio-only file (mp3, ogg, m4a), which is how those are decoded.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	info, _, _, err := f.probe(ctx, videoPath)
	if err != nil {
		return err
	}
	if !info.HasAudio {
		return fmt.Errorf("%s: %w", videoPath, models.ErrNoAudioTrack)
	}
	args := []string{
		"-y", "-v", "error", "-nostdin",
		"-i", videoPath,
		"-map", "0:a:0",
		"-vn",
		"-c:a", "pcm_s16le",
		wavPath,
	}
	return f.run(ctx, "extract-audio", f.ffmpeg, args, nil, nil)
}

// MuxAudio copies the video stream of videoPath and the first audio stream of
// audioPath into outPath. Audio is stored as FLAC so sample LSBs survive.
func (f *FFmpeg) MuxAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	args := []string{
		"-y", "-v", "error", "-nostdin",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "flac",
		"-fflags", "+bitexact",
		outPath,
	}
	return f.run(ctx, "mux", f.ffmpeg, args, nil, nil)
}

func (f *FFmpeg) run(ctx context.Context, op, bin string, args []string, stdin io.Reader, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	start := time.Now()
	f.log.Debug().Str("op", op).Str("bin", bin).Strs("args", args).Msg("running")
	if err := cmd.Run(); err != nil {
		f.log.Debug().Str("op", op).Err(err).Str("stderr", strings.TrimSpace(stderr.String())).Msg("failed")
		return &models.TranscodeError{Op: op, Args: args, Stderr: stderr.String(), Err: waitError(ctx, err)}
	}
	f.log.Debug().Str("op", op).Dur("took", time.Since(start)).Msg("done")
	return nil
}

// waitError prefers the context error so timeouts are reported as such.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// parseRate parses ffprobe rates such as "30000/1001" or "25".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
