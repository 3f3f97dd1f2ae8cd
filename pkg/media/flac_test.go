package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flacHeaderOnly returns a FLAC stream made of the signature and a single
// STREAMINFO block, with no audio frames.
func flacHeaderOnly(channels, bitsPerSample int, nsamples uint64) []byte {
	var bits []byte
	put := func(v uint64, n int) {
		for i := n - 1; i >= 0; i-- {
			bits = append(bits, byte(v>>uint(i))&1)
		}
	}
	put(4096, 16) // min block size
	put(4096, 16) // max block size
	put(0, 24)
	put(0, 24)
	put(44100, 20)
	put(uint64(channels-1), 3)
	put(uint64(bitsPerSample-1), 5)
	put(nsamples, 36)

	info := make([]byte, len(bits)/8, len(bits)/8+16)
	for i, b := range bits {
		info[i/8] |= b << (7 - uint(i%8))
	}
	info = append(info, make([]byte, 16)...) // md5

	out := []byte("fLaC")
	out = append(out, 0x80, 0, 0, byte(len(info)))
	return append(out, info...)
}

func TestLoadFLACRejectsHugeDeclaredLength(t *testing.T) {
	data := flacHeaderOnly(8, 16, 1<<36-1)
	require.Len(t, data, 42)
	path := filepath.Join(t.TempDir(), "huge.flac")
	require.NoError(t, os.WriteFile(path, data, 0644))

	buf, err := LoadFLAC(path)
	require.Error(t, err)
	assert.Nil(t, buf)
	assert.Contains(t, err.Error(), "declares")
}

func TestLoadFLACIgnoresDeclaredLengthForAllocation(t *testing.T) {
	// within the limit but far more than the file holds
	path := filepath.Join(t.TempDir(), "empty.flac")
	require.NoError(t, os.WriteFile(path, flacHeaderOnly(2, 16, 1<<26), 0644))

	buf, err := LoadFLAC(path)
	require.NoError(t, err)
	assert.Empty(t, buf.Data)
	assert.LessOrEqual(t, cap(buf.Data), 42*8)
	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, 44100, buf.Format.SampleRate)
}
