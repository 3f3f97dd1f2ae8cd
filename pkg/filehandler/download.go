package filehandler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadTimeout bounds a single DownloadFile request.
const DownloadTimeout = 60 * time.Second

// IsURL checks if the given string is a URL
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// DownloadFile fetches rawURL into dir and returns the local path. The file
// keeps the extension of the URL path so format detection still works on it.
// Bodies larger than MaxReadSize are rejected.
func DownloadFile(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DownloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}
	if resp.ContentLength > MaxReadSize {
		return "", fmt.Errorf("file too large (max 100MB)")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	localPath := filepath.Join(dir, "download_"+uuid.NewString()+strings.ToLower(path.Ext(u.Path)))
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	// one byte over the limit tells a truncated copy from an exact fit
	n, err := io.Copy(out, io.LimitReader(resp.Body, MaxReadSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxReadSize {
		err = fmt.Errorf("file too large (max 100MB)")
	}
	if err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to save downloaded file: %w", err)
	}
	return localPath, nil
}
