package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tubescribe/internal/domain"
)

// Timeouts for short probe/metadata subprocess calls.
const (
	versionTimeout  = 10 * time.Second
	metadataTimeout = 30 * time.Second
)

// YTDLPClient wraps short-lived yt-dlp invocations that are not jobs:
// installation probes and metadata fetches. Long-running downloads go
// through the job runner, not through this client.
type YTDLPClient struct {
	binary string
	ffmpeg string
	logger *zap.Logger
}

// NewYTDLPClient creates a client for the configured binaries.
func NewYTDLPClient(binary, ffmpeg string, logger *zap.Logger) *YTDLPClient {
	if binary == "" {
		binary = "yt-dlp"
	}
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPClient{binary: binary, ffmpeg: ffmpeg, logger: logger}
}

// Version returns the installed yt-dlp version, or an error if the
// binary is missing or unresponsive.
func (c *YTDLPClient) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, c.binary, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp not available: %w", err)
	}
	version := strings.TrimSpace(string(out))
	c.logger.Debug("yt-dlp found", zap.String("version", version))
	return version, nil
}

// CheckInstalled reports whether yt-dlp is installed and accessible.
func (c *YTDLPClient) CheckInstalled(ctx context.Context) bool {
	_, err := c.Version(ctx)
	return err == nil
}

// CheckFFmpeg reports whether ffmpeg is available. Audio extraction and
// transcription jobs need it.
func (c *YTDLPClient) CheckFFmpeg(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	return exec.CommandContext(ctx, c.ffmpeg, "-version").Run() == nil
}

// VideoMetadata is the pre-download inspection result for a URL.
type VideoMetadata struct {
	Title        string           `json:"title"`
	Duration     float64          `json:"duration"`
	Qualities    []domain.Quality `json:"qualities"`
	ThumbnailURL string           `json:"thumbnail_url"`
	Uploader     string           `json:"uploader"`
	ViewCount    int64            `json:"view_count"`
	Description  string           `json:"description"`
}

// ytdlpInfo is the subset of yt-dlp's --dump-json output we read.
type ytdlpInfo struct {
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	Uploader    string  `json:"uploader"`
	ViewCount   int64   `json:"view_count"`
	Description string  `json:"description"`
	Formats     []struct {
		Height int `json:"height"`
	} `json:"formats"`
}

// FetchMetadata fetches video metadata via `yt-dlp --dump-json`. Errors
// are mapped to user-facing messages the same way tool failures are.
func (c *YTDLPClient) FetchMetadata(ctx context.Context, url string) (*VideoMetadata, error) {
	if !domain.ValidDownloadURL(url) {
		return nil, fmt.Errorf("%w: unsupported URL %q", domain.ErrInvalidJobSpec, url)
	}

	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, "--dump-json", "--no-warnings", "--no-playlist", url)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("metadata fetch timed out")
		}
		_, msg := ClassifyStderr(stderr.String())
		c.logger.Error("metadata fetch failed",
			zap.String("url", url),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err))
		return nil, fmt.Errorf("%s", msg)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("could not parse video information: %w", err)
	}

	description := info.Description
	if len(description) > 500 {
		description = description[:500]
	}

	meta := &VideoMetadata{
		Title:        info.Title,
		Duration:     info.Duration,
		Qualities:    availableQualities(info),
		ThumbnailURL: info.Thumbnail,
		Uploader:     info.Uploader,
		ViewCount:    info.ViewCount,
		Description:  description,
	}
	if meta.Title == "" {
		meta.Title = "Unknown Title"
	}
	if meta.Uploader == "" {
		meta.Uploader = "Unknown"
	}

	c.logger.Info("metadata fetched",
		zap.String("url", url),
		zap.String("title", meta.Title),
		zap.Float64("duration_s", meta.Duration))
	return meta, nil
}

// availableQualities derives the quality selectors offered to the caller
// from the format heights yt-dlp reports. "best" is always first.
func availableQualities(info ytdlpInfo) []domain.Quality {
	heights := map[domain.Quality]int{
		domain.Quality1080p: 1080,
		domain.Quality720p:  720,
		domain.Quality480p:  480,
		domain.Quality360p:  360,
	}

	available := map[domain.Quality]bool{}
	for _, f := range info.Formats {
		for q, h := range heights {
			if f.Height >= h {
				available[q] = true
			}
		}
	}

	result := []domain.Quality{domain.QualityBest}
	var rest []domain.Quality
	for q := range available {
		rest = append(rest, q)
	}
	sort.Slice(rest, func(i, j int) bool { return heights[rest[i]] > heights[rest[j]] })
	return append(result, rest...)
}
