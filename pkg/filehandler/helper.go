package filehandler

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GatherFiles collects the media files in a directory (non-recursive), sorted by name
func GatherFiles(dirPath string) ([]string, error) {
	var files []string

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue // Skip directories
		}

		filePath := filepath.Join(dirPath, entry.Name())
		if IsAudioFile(filePath) || IsVideoFile(filePath) {
			files = append(files, filePath)
		}
	}
	sort.Strings(files)

	return files, nil
}

// ReadLines reads a file and returns its non-empty lines, trimmed. Lines
// starting with # are skipped, so path lists can carry comments.
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	return lines, scanner.Err()
}

// GetFileSize returns the size of a file in bytes
func GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}
