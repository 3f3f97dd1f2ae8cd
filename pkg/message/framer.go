// Package message converts payloads to and from the length-prefixed bit
// sequence that is hidden in carrier LSBs.
//
// Wire format: [4 bytes length, big-endian][length bytes payload], serialized
// most significant bit first.
package message

import (
	"encoding/binary"
	"fmt"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// HeaderBytes is the size of the length field.
const HeaderBytes = 4

// HeaderBits is the number of bits occupied by the length field.
const HeaderBits = HeaderBytes * 8

// Bits is an ordered bit sequence, one bit (0 or 1) per element.
type Bits []byte

// FramedBitLen returns the number of bits needed to carry a payload of n bytes.
func FramedBitLen(n int) int {
	return 8 * (HeaderBytes + n)
}

// Frame prepends the big-endian length of payload and expands every byte
// into its bits, most significant first.
func Frame(payload []byte) Bits {
	var header [HeaderBytes]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	bits := make(Bits, 0, FramedBitLen(len(payload)))
	bits = appendByteBits(bits, header[:])
	bits = appendByteBits(bits, payload)
	return bits
}

// ReadLength decodes the declared payload length from the first 32 bits.
func ReadLength(bits Bits) (uint32, error) {
	if len(bits) < HeaderBits {
		return 0, fmt.Errorf("%w: header needs %d bits, have %d", models.ErrIncompletePayload, HeaderBits, len(bits))
	}
	var length uint32
	for _, b := range bits[:HeaderBits] {
		length = length<<1 | uint32(b&1)
	}
	return length, nil
}

// Unframe reverses Frame. It fails with models.ErrIncompletePayload when the
// declared length needs more bits than are available. The payload is returned
// as raw bytes; callers decide how to interpret them.
func Unframe(bits Bits) ([]byte, error) {
	length, err := ReadLength(bits)
	if err != nil {
		return nil, err
	}

	available := uint64(len(bits) - HeaderBits)
	if uint64(length)*8 > available {
		return nil, fmt.Errorf("%w: header declares %d bytes, only %d bits follow", models.ErrIncompletePayload, length, available)
	}

	return PackBytes(bits[HeaderBits : HeaderBits+int(length)*8]), nil
}

// PackBytes assembles MSB-first bits into bytes. A trailing partial byte is dropped.
func PackBytes(bits Bits) []byte {
	out := make([]byte, len(bits)/8)
	for i := range out {
		var v byte
		for _, b := range bits[i*8 : i*8+8] {
			v = v<<1 | b&1
		}
		out[i] = v
	}
	return out
}

func appendByteBits(bits Bits, data []byte) Bits {
	for _, v := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, (v>>uint(shift))&1)
		}
	}
	return bits
}
