package transcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// Still-image formats usable as lossless frame stores.
const (
	FormatPNG  = "png"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

// ImageSequence treats a directory of numbered still images as a video.
// Frames are ordered by file name; EncodeFromFrames names them
// frame_000000.<ext>, frame_000001.<ext>, ...
type ImageSequence struct {
	Format    string
	FrameRate float64
	log       zerolog.Logger
}

// NewImageSequence returns an image-sequence transcoder writing format.
func NewImageSequence(format string, frameRate float64, log zerolog.Logger) (*ImageSequence, error) {
	format = strings.ToLower(format)
	if format == "tif" {
		format = FormatTIFF
	}
	switch format {
	case FormatPNG, FormatBMP, FormatTIFF:
	default:
		return nil, fmt.Errorf("unsupported frame format %q", format)
	}
	if frameRate <= 0 {
		frameRate = 25
	}
	return &ImageSequence{
		Format:    format,
		FrameRate: frameRate,
		log:       log.With().Str("component", "imageseq").Logger(),
	}, nil
}

// Probe inspects the first frame of the directory.
func (s *ImageSequence) Probe(ctx context.Context, dir string) (*StreamInfo, error) {
	files, err := frameFiles(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeConfig(files[0])
	if err != nil {
		return nil, err
	}
	return &StreamInfo{
		Width:      cfg.Width,
		Height:     cfg.Height,
		FrameRate:  s.FrameRate,
		Frames:     len(files),
		Duration:   float64(len(files)) / s.FrameRate,
		VideoCodec: strings.TrimPrefix(filepath.Ext(files[0]), "."),
	}, nil
}

// DecodeToFrames reads the frames in name order.
func (s *ImageSequence) DecodeToFrames(ctx context.Context, dir string, opts DecodeOptions) (*media.FrameSequence, error) {
	files, err := frameFiles(dir)
	if err != nil {
		return nil, err
	}
	if opts.Step > 1 {
		kept := files[:0]
		for i := 0; i < len(files); i += opts.Step {
			kept = append(kept, files[i])
		}
		files = kept
	}
	if opts.MaxFrames > 0 && len(files) > opts.MaxFrames {
		files = files[:opts.MaxFrames]
	}

	seq := &media.FrameSequence{FrameRate: s.FrameRate}
	var total int64
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := decodeImage(path)
		if err != nil {
			return nil, err
		}
		frame, w, h := media.FrameFromImage(img)
		if i == 0 {
			seq.Width, seq.Height = w, h
		} else if w != seq.Width || h != seq.Height {
			return nil, &models.TranscodeError{Op: "decode", Args: []string{path},
				Err: fmt.Errorf("frame size %dx%d differs from %dx%d", w, h, seq.Width, seq.Height)}
		}
		total += int64(len(frame.Pix))
		if opts.MaxBytes > 0 && total > opts.MaxBytes {
			return nil, fmt.Errorf("%s: more than %d bytes of frames: %w", dir, opts.MaxBytes, models.ErrFrameBudgetExceeded)
		}
		seq.Frames = append(seq.Frames, frame)
	}
	s.log.Debug().Str("input", dir).Int("frames", len(seq.Frames)).Msg("decoded frames")
	return seq, nil
}

// EncodeFromFrames writes every frame of seq into dir, creating it if needed.
func (s *ImageSequence) EncodeFromFrames(ctx context.Context, seq *media.FrameSequence, dir string) error {
	if err := seq.Validate(); err != nil {
		return fmt.Errorf("encode frames: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create frame directory: %w", err)
	}
	for i, fr := range seq.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.%s", i, s.Format))
		if err := s.writeFrame(path, fr.ToImage(seq.Width, seq.Height)); err != nil {
			return &models.TranscodeError{Op: "encode", Args: []string{path}, Err: err}
		}
	}
	s.log.Debug().Str("output", dir).Int("frames", len(seq.Frames)).Msg("encoded frames")
	return nil
}

func (s *ImageSequence) writeFrame(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeImage(file, img, s.Format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

func frameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &models.TranscodeError{Op: "probe", Args: []string{dir}, Err: err}
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isFrameExt(filepath.Ext(e.Name())) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, &models.TranscodeError{Op: "probe", Args: []string{dir}, Err: errors.New("no frame images found")}
	}
	sort.Strings(files)
	return files, nil
}

func isFrameExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".png", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &models.TranscodeError{Op: "decode", Args: []string{path}, Err: err}
	}
	defer file.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		img, err = bmp.Decode(file)
	case ".tif", ".tiff":
		img, err = tiff.Decode(file)
	default:
		img, err = png.Decode(file)
	}
	if err != nil {
		return nil, &models.TranscodeError{Op: "decode", Args: []string{path}, Err: err}
	}
	return img, nil
}

func decodeConfig(path string) (image.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, &models.TranscodeError{Op: "probe", Args: []string{path}, Err: err}
	}
	defer file.Close()

	var cfg image.Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		cfg, err = bmp.DecodeConfig(file)
	case ".tif", ".tiff":
		cfg, err = tiff.DecodeConfig(file)
	default:
		cfg, err = png.DecodeConfig(file)
	}
	if err != nil {
		return image.Config{}, &models.TranscodeError{Op: "probe", Args: []string{path}, Err: err}
	}
	return cfg, nil
}
