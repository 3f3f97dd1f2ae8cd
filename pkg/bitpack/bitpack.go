// Package bitpack writes and reads single bits in the least significant bit
// of numeric sample arrays. It is shared by the audio and video codecs.
package bitpack

import (
	"fmt"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// Sample is any integer carrier value: PCM samples or pixel channel values.
type Sample interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Pack overwrites the LSB of samples[i] with bits[i] for every bit. Samples
// past len(bits) are left alone. If the carrier is too short nothing is
// written and a *models.CapacityError is returned.
func Pack[S Sample](samples []S, bits []byte) error {
	if len(bits) > len(samples) {
		return &models.CapacityError{Needed: len(bits), Available: len(samples)}
	}
	for i, b := range bits {
		samples[i] = samples[i]&^1 | S(b&1)
	}
	return nil
}

// Unpack reads the LSBs of the first count samples, in order.
func Unpack[S Sample](samples []S, count int) ([]byte, error) {
	if count < 0 || count > len(samples) {
		return nil, fmt.Errorf("bitpack: cannot read %d bits from %d samples", count, len(samples))
	}
	bits := make([]byte, count)
	for i := range bits {
		bits[i] = byte(samples[i] & 1)
	}
	return bits, nil
}

// AppendLSBs appends the LSB of every sample to dst, up to limit bits in dst
// in total. It returns dst and whether limit was reached.
func AppendLSBs[S Sample](dst []byte, samples []S, limit int) ([]byte, bool) {
	for _, s := range samples {
		if len(dst) >= limit {
			return dst, true
		}
		dst = append(dst, byte(s&1))
	}
	return dst, len(dst) >= limit
}

// OnlyLSBsDiffer reports whether a and b have equal length and differ at most
// in their least significant bits.
func OnlyLSBsDiffer[S Sample](a, b []S) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i]&^1 != b[i]&^1 {
			return false
		}
	}
	return true
}
