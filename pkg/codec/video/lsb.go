// Package video hides framed payloads in the least significant bits of RGB
// frame sequences. The bit index walks frames in order, then rows, then
// columns, then the R, G, B values of each pixel.
package video

import (
	"errors"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/bitpack"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/message"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// MaxPayloadSize bounds the declared length accepted on extraction.
const MaxPayloadSize = 50 * 1024 * 1024 // 50MB

// CapacityBits is 3 * width * height * frameCount.
func CapacityBits(seq *media.FrameSequence) int {
	if seq == nil {
		return 0
	}
	return seq.FrameBytes() * len(seq.Frames)
}

// Capacity is the largest payload, in bytes, that Embed accepts for seq.
func Capacity(seq *media.FrameSequence) int {
	n := CapacityBits(seq)/8 - message.HeaderBytes
	if n < 0 {
		return 0
	}
	return min(n, MaxPayloadSize)
}

// Embed returns a sequence carrying payload. Frames that receive bits are
// copied before packing; the rest are shared with seq, which is never
// modified. Capacity is checked before any frame is copied.
func Embed(seq *media.FrameSequence, payload []byte) (*media.FrameSequence, error) {
	if seq == nil {
		return nil, errors.New("nil frame sequence")
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	needed := message.FramedBitLen(len(payload))
	available := CapacityBits(seq)
	if len(payload) > MaxPayloadSize || needed > available {
		return nil, &models.CapacityError{Needed: needed, Available: available}
	}

	bits := message.Frame(payload)
	out := &media.FrameSequence{
		Width:     seq.Width,
		Height:    seq.Height,
		FrameRate: seq.FrameRate,
		Frames:    make([]media.Frame, len(seq.Frames)),
	}
	copy(out.Frames, seq.Frames)

	frameBytes := seq.FrameBytes()
	for i := 0; len(bits) > 0; i++ {
		chunk := bits[:min(frameBytes, len(bits))]
		pix := append([]uint8(nil), seq.Frames[i].Pix...)
		if err := bitpack.Pack(pix, chunk); err != nil {
			return nil, err
		}
		out.Frames[i] = media.Frame{Pix: pix}
		bits = bits[len(chunk):]
	}
	return out, nil
}

// Extract recovers a payload written by Embed. Short, empty or malformed
// sequences yield models.ErrNoPayloadFound.
func Extract(seq *media.FrameSequence) ([]byte, error) {
	if seq == nil {
		return nil, models.ErrNoPayloadFound
	}

	header := readBits(seq, message.HeaderBits)
	length, err := message.ReadLength(header)
	if err != nil {
		return nil, models.ErrNoPayloadFound
	}
	if length == 0 || length > MaxPayloadSize {
		return nil, models.ErrNoPayloadFound
	}
	if int64(length)*8 > int64(carriedBits(seq)-message.HeaderBits) {
		return nil, models.ErrNoPayloadFound
	}

	bits := readBits(seq, message.FramedBitLen(int(length)))
	payload, err := message.Unframe(bits)
	if err != nil {
		return nil, models.ErrNoPayloadFound
	}
	return payload, nil
}

// DeclaredLength reads only the length header. Callers decoding from a file
// use it to learn how many frames the full payload spans. A header of zero or
// above MaxPayloadSize yields models.ErrNoPayloadFound.
func DeclaredLength(seq *media.FrameSequence) (int, error) {
	if seq == nil {
		return 0, models.ErrNoPayloadFound
	}
	length, err := message.ReadLength(readBits(seq, message.HeaderBits))
	if err != nil || length == 0 || length > MaxPayloadSize {
		return 0, models.ErrNoPayloadFound
	}
	return int(length), nil
}

// FramesFor is the number of width x height frames needed to carry bits.
func FramesFor(width, height, bits int) int {
	per := width * height * media.Channels
	if per <= 0 {
		return 0
	}
	return (bits + per - 1) / per
}

func carriedBits(seq *media.FrameSequence) int {
	n := 0
	for _, f := range seq.Frames {
		n += len(f.Pix)
	}
	return n
}

// readBits gathers up to count LSBs in traversal order. It returns fewer
// bits when the sequence runs out; frame lengths are taken as they are so a
// malformed frame can only shorten the result.
func readBits(seq *media.FrameSequence, count int) message.Bits {
	bits := make([]byte, 0, min(count, CapacityBits(seq)))
	for _, f := range seq.Frames {
		var done bool
		if bits, done = bitpack.AppendLSBs(bits, f.Pix, count); done {
			break
		}
	}
	return bits
}
