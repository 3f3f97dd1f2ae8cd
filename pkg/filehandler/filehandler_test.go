package filehandler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

func write(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDetectMediaFormatByExtension(t *testing.T) {
	tests := []struct {
		path, mediaType, format string
	}{
		{"a.WAV", MediaAudio, "wav"},
		{"a.wave", MediaAudio, "wav"},
		{"b.flac", MediaAudio, "flac"},
		{"c.mp3", MediaAudio, "mp3"},
		{"d.mkv", MediaVideo, "mkv"},
		{"e.MOV", MediaVideo, "mov"},
	}
	for _, tt := range tests {
		mediaType, format, err := DetectMediaFormat(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.mediaType, mediaType, tt.path)
		assert.Equal(t, tt.format, format, tt.path)
	}
}

func TestDetectMediaFormatBySignature(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name      string
		data      []byte
		mediaType string
		format    string
	}{
		{"flac", []byte("fLaC\x00\x00\x00\x22rest"), MediaAudio, "flac"},
		{"wav", append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 20)...), MediaAudio, "wav"},
		{"flv", []byte("FLV\x01\x05\x00\x00\x00\x09"), MediaVideo, "flv"},
		{"mov", []byte("\x00\x00\x00\x14ftypqt  \x00\x00\x00\x00"), MediaVideo, "mov"},
		{"m4a", []byte("\x00\x00\x00\x18ftypM4A \x00\x00\x00\x00"), MediaAudio, "m4a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, filepath.Join(dir, tt.name+".bin"), tt.data)
			mediaType, format, err := DetectMediaFormat(path)
			require.NoError(t, err)
			assert.Equal(t, tt.mediaType, mediaType)
			assert.Equal(t, tt.format, format)
		})
	}

	text := write(t, filepath.Join(dir, "notes.bin"), []byte("just some text"))
	_, _, err := DetectMediaFormat(text)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)

	_, _, err = DetectMediaFormat(filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)
}

func TestIsMediaFile(t *testing.T) {
	assert.True(t, IsAudioFile("x.FLAC"))
	assert.False(t, IsAudioFile("x.mp4"))
	assert.True(t, IsVideoFile("x.mp4"))
	assert.False(t, IsVideoFile("x.png"))
	assert.Len(t, MediaExtensions(), len(SupportedAudioFormats)+len(SupportedVideoFormats))
}

func TestGatherFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b.wav"), nil)
	write(t, filepath.Join(dir, "a.mkv"), nil)
	write(t, filepath.Join(dir, "readme.txt"), nil)
	write(t, filepath.Join(dir, "sub", "c.flac"), nil)

	files, err := GatherFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.mkv"), filepath.Join(dir, "b.wav")}, files)

	files, err = FilesInDirectory(dir, MediaExtensions())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.mkv"),
		filepath.Join(dir, "b.wav"),
		filepath.Join(dir, "sub", "c.flac"),
	}, files)

	files, err = FilesInDirectory(dir, nil)
	require.NoError(t, err)
	assert.Len(t, files, 4)

	_, err = GatherFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
	_, err = FilesInDirectory(filepath.Join(dir, "b.wav"), nil)
	assert.ErrorContains(t, err, "not a directory")
}

func TestReadLines(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "list.txt"), []byte("# scans\n a.wav \n\nb.mkv\n#c.flac\n"))
	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.wav", "b.mkv"}, lines)

	_, err = ReadLines(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestReadAndSaveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "payload.bin")
	require.NoError(t, SaveFile([]byte{1, 2, 3}, path))

	data, err := ReadFileBytes(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	size, err := GetFileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	_, err = ReadFileBytes(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
