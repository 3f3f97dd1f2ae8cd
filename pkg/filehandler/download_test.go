package filehandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.wav"))
	assert.True(t, IsURL("http://example.com/a.wav"))
	assert.False(t, IsURL("/tmp/a.wav"))
	assert.False(t, IsURL("ftp://example.com/a.wav"))
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.wav" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("RIFF-data"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "downloads")
	local, err := DownloadFile(context.Background(), srv.URL+"/media/Clip.WAV?token=1", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(local))
	assert.True(t, strings.HasSuffix(local, ".wav"))
	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "RIFF-data", string(data))

	_, err = DownloadFile(context.Background(), srv.URL+"/missing.wav", dir)
	assert.ErrorContains(t, err, "bad status")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = DownloadFile(ctx, srv.URL+"/a.wav", dir)
	assert.Error(t, err)
}
