package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yourusername/tubescribe/internal/domain"
)

var (
	illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	controlChars         = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// SanitizeFilename removes characters that are illegal on some platforms,
// trims leading/trailing spaces and dots, and caps length at 200 runes.
func SanitizeFilename(filename string) string {
	s := illegalFilenameChars.ReplaceAllString(filename, "_")
	s = controlChars.ReplaceAllString(s, "")
	s = strings.Trim(s, " .")
	if r := []rune(s); len(r) > 200 {
		s = string(r[:200])
	}
	if s == "" {
		s = "untitled"
	}
	return s
}

// OutputFilename generates a sanitized output filename for a job kind.
func OutputFilename(title string, kind domain.JobKind) string {
	ext := ".mp4"
	if kind == domain.KindDownloadAudio {
		ext = ".mp3"
	} else if kind == domain.KindTranscribe {
		ext = ".txt"
	}
	return SanitizeFilename(title) + ext
}

// UniqueFilename appends " (1)", " (2)", ... until the name does not
// collide in dir. Falls back to a timestamp suffix after 1000 attempts.
func UniqueFilename(dir, filename string) string {
	if _, err := os.Stat(filepath.Join(dir, filename)); os.IsNotExist(err) {
		return filename
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	for counter := 1; counter <= 1000; counter++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, counter, ext)
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
	return fmt.Sprintf("%s_%s%s", stem, time.Now().Format("20060102_150405"), ext)
}

// EnsureDirectory creates the directory and parents if missing.
func EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileSizeMB returns the file size in megabytes, 0 if the file is absent.
func FileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
