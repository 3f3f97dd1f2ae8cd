// Package media loads and stores carrier media: PCM audio buffers (WAV, FLAC)
// and RGB frame sequences.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// LoadAudio reads a WAV or FLAC file into an interleaved integer PCM buffer.
func LoadAudio(path string) (*audio.IntBuffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return LoadFLAC(path)
	default:
		return LoadWAV(path)
	}
}

// SaveAudio writes buf as WAV or FLAC, chosen by the extension of path.
func SaveAudio(path string, buf *audio.IntBuffer) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return SaveFLAC(path, buf)
	default:
		return SaveWAV(path, buf)
	}
}

// LoadWAV decodes an integer PCM WAV file.
func LoadWAV(path string) (*audio.IntBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	return DecodeWAV(file)
}

// DecodeWAV decodes integer PCM WAV data from r.
func DecodeWAV(r io.ReadSeeker) (*audio.IntBuffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("unsupported wav encoding %#x, integer PCM required", dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil {
		buf.Format = &audio.Format{NumChannels: int(dec.NumChans), SampleRate: int(dec.SampleRate)}
	}
	if buf.SourceBitDepth == 0 {
		buf.SourceBitDepth = int(dec.BitDepth)
	}
	return buf, nil
}

// SaveWAV writes buf as integer PCM at its source bit depth.
func SaveWAV(path string, buf *audio.IntBuffer) error {
	if err := checkBuffer(buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}

	enc := wav.NewEncoder(out, buf.Format.SampleRate, bitDepth(buf), buf.Format.NumChannels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		out.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("encode wav close: %w", err)
	}
	return out.Close()
}

// CloneBuffer returns a deep copy of buf, sharing nothing.
func CloneBuffer(buf *audio.IntBuffer) *audio.IntBuffer {
	out := &audio.IntBuffer{
		Data:           append([]int(nil), buf.Data...),
		SourceBitDepth: buf.SourceBitDepth,
	}
	if buf.Format != nil {
		f := *buf.Format
		out.Format = &f
	}
	return out
}

// Mono averages interleaved channels into float samples scaled to [-1, 1].
func Mono(buf *audio.IntBuffer) []float64 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	depth := bitDepth(buf)
	scale := float64(int64(1) << uint(depth-1))
	// 8-bit PCM is unsigned
	offset := 0.0
	if depth == 8 {
		offset = scale
	}

	n := len(buf.Data) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) - offset
		}
		out[i] = sum / float64(channels) / scale
	}
	return out
}

func bitDepth(buf *audio.IntBuffer) int {
	if buf.SourceBitDepth > 0 {
		return buf.SourceBitDepth
	}
	return 16
}

func checkBuffer(buf *audio.IntBuffer) error {
	if buf == nil || buf.Format == nil {
		return errors.New("audio buffer has no format")
	}
	if buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return fmt.Errorf("invalid audio format: %d channels at %d Hz", buf.Format.NumChannels, buf.Format.SampleRate)
	}
	if len(buf.Data)%buf.Format.NumChannels != 0 {
		return fmt.Errorf("sample count %d is not a multiple of %d channels", len(buf.Data), buf.Format.NumChannels)
	}
	return nil
}
