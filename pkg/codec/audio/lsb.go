// Package audio hides framed payloads in the least significant bits of PCM
// samples. Channels are treated as one interleaved stream: bit i goes into
// sample i of the interleaved data.
package audio

import (
	"errors"

	goaudio "github.com/go-audio/audio"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/bitpack"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/media"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/message"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// MaxPayloadSize bounds the declared length accepted on extraction, and
// therefore the largest payload Embed will write.
const MaxPayloadSize = 50 * 1024 * 1024 // 50MB

// CapacityBits is the number of payload-carrying bits in buf: one per sample.
func CapacityBits(buf *goaudio.IntBuffer) int {
	if buf == nil {
		return 0
	}
	return len(buf.Data)
}

// Capacity is the largest payload, in bytes, that Embed accepts for buf.
func Capacity(buf *goaudio.IntBuffer) int {
	n := CapacityBits(buf)/8 - message.HeaderBytes
	if n < 0 {
		return 0
	}
	return min(n, MaxPayloadSize)
}

// Embed returns a copy of buf whose first 8*(4+len(payload)) samples carry
// the framed payload in their LSBs. buf itself is not modified. Format and
// bit depth are carried over unchanged.
func Embed(buf *goaudio.IntBuffer, payload []byte) (*goaudio.IntBuffer, error) {
	if buf == nil {
		return nil, errors.New("nil audio buffer")
	}
	needed := message.FramedBitLen(len(payload))
	if len(payload) > MaxPayloadSize || needed > CapacityBits(buf) {
		return nil, &models.CapacityError{Needed: needed, Available: CapacityBits(buf)}
	}

	out := media.CloneBuffer(buf)
	if err := bitpack.Pack(out.Data, message.Frame(payload)); err != nil {
		return nil, err
	}
	return out, nil
}

// Extract recovers a payload written by Embed. Any buffer that does not hold
// a plausible frame yields models.ErrNoPayloadFound; a zero length header is
// treated the same way since silence decodes to it.
func Extract(buf *goaudio.IntBuffer) ([]byte, error) {
	if buf == nil || len(buf.Data) < message.HeaderBits {
		return nil, models.ErrNoPayloadFound
	}

	header, err := bitpack.Unpack(buf.Data, message.HeaderBits)
	if err != nil {
		return nil, models.ErrNoPayloadFound
	}
	length, err := message.ReadLength(header)
	if err != nil || !plausible(length, len(buf.Data)) {
		return nil, models.ErrNoPayloadFound
	}

	bits, err := bitpack.Unpack(buf.Data, message.FramedBitLen(int(length)))
	if err != nil {
		return nil, models.ErrNoPayloadFound
	}
	payload, err := message.Unframe(bits)
	if err != nil {
		return nil, models.ErrNoPayloadFound
	}
	return payload, nil
}

func plausible(length uint32, carrierBits int) bool {
	if length == 0 || length > MaxPayloadSize {
		return false
	}
	return uint64(length) <= uint64(carrierBits-message.HeaderBits)/8
}
