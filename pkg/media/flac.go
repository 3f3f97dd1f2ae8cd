package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// flacBlockSize is the number of inter-channel samples per written frame.
const flacBlockSize = 4096

// MaxFLACSamples bounds the interleaved samples LoadFLAC will hold in memory.
const MaxFLACSamples = 1 << 28

// LoadFLAC decodes a FLAC file into an interleaved integer PCM buffer.
func LoadFLAC(path string) (*audio.IntBuffer, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flac file: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	if channels == 0 {
		return nil, errors.New("flac stream has no channels")
	}

	// NSamples is untrusted; it sizes the first allocation only, capped by
	// the file size.
	declared := info.NSamples * uint64(channels)
	if declared > MaxFLACSamples {
		return nil, fmt.Errorf("flac stream declares %d samples, limit is %d", declared, MaxFLACSamples)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	capacity := min(int(declared), int(fi.Size())*8)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: int(info.SampleRate)},
		SourceBitDepth: int(info.BitsPerSample),
		Data:           make([]int, 0, capacity),
	}

	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode flac frame: %w", err)
		}
		if len(f.Subframes) != channels {
			return nil, fmt.Errorf("flac frame %d has %d subframes, want %d", f.Num, len(f.Subframes), channels)
		}
		n := int(f.BlockSize)
		if len(buf.Data)+n*channels > MaxFLACSamples {
			return nil, fmt.Errorf("flac stream exceeds %d samples", MaxFLACSamples)
		}
		for i := 0; i < n; i++ {
			for c := 0; c < channels; c++ {
				buf.Data = append(buf.Data, int(f.Subframes[c].Samples[i]))
			}
		}
	}
	return buf, nil
}

// SaveFLAC writes buf as a FLAC stream. Every subframe is stored verbatim so
// sample values, including their LSBs, survive unchanged.
func SaveFLAC(path string, buf *audio.IntBuffer) error {
	if err := checkBuffer(buf); err != nil {
		return err
	}
	channels := buf.Format.NumChannels
	if channels > 8 {
		return fmt.Errorf("flac supports at most 8 channels, got %d", channels)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create flac file: %w", err)
	}
	defer out.Close()

	nframes := len(buf.Data) / channels
	bps := bitDepth(buf)
	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(buf.Format.SampleRate),
		NChannels:     uint8(channels),
		BitsPerSample: uint8(bps),
		NSamples:      uint64(nframes),
	}
	enc, err := flac.NewEncoder(out, info)
	if err != nil {
		return fmt.Errorf("create flac encoder: %w", err)
	}

	for num, start := 0, 0; start < nframes; num, start = num+1, start+flacBlockSize {
		n := min(flacBlockSize, nframes-start)
		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        uint32(buf.Format.SampleRate),
				Channels:          frame.Channels(channels - 1),
				BitsPerSample:     uint8(bps),
				Num:               uint64(num),
			},
			Subframes: make([]*frame.Subframe, channels),
		}
		for c := 0; c < channels; c++ {
			samples := make([]int32, n)
			for i := range samples {
				samples[i] = int32(buf.Data[(start+i)*channels+c])
			}
			f.Subframes[c] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   samples,
				NSamples:  n,
			}
		}
		if err := enc.WriteFrame(f); err != nil {
			enc.Close()
			return fmt.Errorf("encode flac frame %d: %w", num, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode flac close: %w", err)
	}
	return nil
}
