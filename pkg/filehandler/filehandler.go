package filehandler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

/*
File explanation:
This file contains utility functions for locating and classifying media files.
The DetectMediaFormat function detects the media type and format of a file by checking the extension and then the content.
The ReadFileBytes function reads a file and returns its content as a byte array.
The SaveFile function saves data to a file, creating parent directories.
The FilesInDirectory function returns a list of files in a directory tree with the given extensions.
*/

// Media types returned by DetectMediaFormat.
const (
	MediaAudio = "audio"
	MediaVideo = "video"
)

// MaxReadSize is the largest file ReadFileBytes will load.
const MaxReadSize = 100 * 1024 * 1024 // 100MB

// SupportedAudioFormats is a map of file extensions to their format names
var SupportedAudioFormats = map[string]string{
	".wav":  "wav",
	".wave": "wav",
	".flac": "flac",
	".mp3":  "mp3",
	".ogg":  "ogg",
	".m4a":  "m4a",
}

// SupportedVideoFormats is a map of file extensions to their format names
var SupportedVideoFormats = map[string]string{
	".mp4": "mp4",
	".avi": "avi",
	".mkv": "mkv",
	".mov": "mov",
	".flv": "flv",
}

// DetectMediaFormat returns the media type ("audio" or "video") and format of
// a file. The extension decides when it is known; otherwise the first bytes
// are sniffed.
func DetectMediaFormat(filePath string) (mediaType, format string, err error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if format, ok := SupportedAudioFormats[ext]; ok {
		return MediaAudio, format, nil
	}
	if format, ok := SupportedVideoFormats[ext]; ok {
		return MediaVideo, format, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// Read first 512 bytes to detect content type
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}
	buffer = buffer[:n]

	// signatures the standard sniffer does not know
	switch {
	case bytes.HasPrefix(buffer, []byte("fLaC")):
		return MediaAudio, "flac", nil
	case bytes.HasPrefix(buffer, []byte("FLV\x01")):
		return MediaVideo, "flv", nil
	case len(buffer) >= 12 && string(buffer[4:12]) == "ftypqt  ":
		return MediaVideo, "mov", nil
	case len(buffer) >= 12 && string(buffer[4:11]) == "ftypM4A":
		return MediaAudio, "m4a", nil
	}

	contentType := http.DetectContentType(buffer)

	// Map content types to our formats
	switch {
	case strings.Contains(contentType, "audio/wave"):
		return MediaAudio, "wav", nil
	case strings.Contains(contentType, "audio/mpeg"):
		return MediaAudio, "mp3", nil
	case strings.Contains(contentType, "application/ogg"):
		return MediaAudio, "ogg", nil
	case strings.Contains(contentType, "video/mp4"):
		return MediaVideo, "mp4", nil
	case strings.Contains(contentType, "video/avi"):
		return MediaVideo, "avi", nil
	case strings.Contains(contentType, "video/webm"):
		return MediaVideo, "mkv", nil
	default:
		return "", "", fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, contentType)
	}
}

// IsAudioFile checks if a file is audio based on extension
func IsAudioFile(path string) bool {
	_, ok := SupportedAudioFormats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsVideoFile checks if a file is video based on extension
func IsVideoFile(path string) bool {
	_, ok := SupportedVideoFormats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// MediaExtensions lists every supported extension, for FilesInDirectory.
func MediaExtensions() []string {
	exts := make([]string, 0, len(SupportedAudioFormats)+len(SupportedVideoFormats))
	for ext := range SupportedAudioFormats {
		exts = append(exts, ext)
	}
	for ext := range SupportedVideoFormats {
		exts = append(exts, ext)
	}
	return exts
}

// ReadFileBytes reads a file and returns its content as a byte array
func ReadFileBytes(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	size := info.Size()
	if size > MaxReadSize {
		return nil, fmt.Errorf("file too large (max 100MB)")
	}

	content := make([]byte, size)
	_, err = io.ReadFull(file, content)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return content, nil
}

// SaveFile saves data to a file
func SaveFile(data []byte, filePath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}

// FilesInDirectory returns a list of files in a directory with the given extensions
func FilesInDirectory(dirPath string, extensions []string) ([]string, error) {
	var files []string

	// Check if directory exists
	info, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	// Walk the directory
	err = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if info.IsDir() {
			return nil
		}

		// Check file extension
		if len(extensions) > 0 {
			ext := strings.ToLower(filepath.Ext(path))
			for _, validExt := range extensions {
				if ext == validExt {
					files = append(files, path)
					break
				}
			}
		} else {
			// If no extensions provided, include all files
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return files, nil
}
