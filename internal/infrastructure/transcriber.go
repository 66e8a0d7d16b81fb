package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tubescribe/internal/domain"
)

// TranscriptionClient posts extracted audio to the transcription API.
// It is a collaborator layered on top of the job core: the audio it
// uploads is the artifact of a successful transcribe job.
type TranscriptionClient struct {
	config domain.TranscriptionConfig
	http   *http.Client
	logger *zap.Logger
}

// Transcript is the API's response, reduced to what callers use.
type Transcript struct {
	Text     string             `json:"text"`
	Language string             `json:"language"`
	Duration float64            `json:"duration"`
	Segments []TranscriptSegment `json:"segments,omitempty"`
}

// TranscriptSegment is one timestamped span of the transcript.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// NewTranscriptionClient creates a transcription API client.
func NewTranscriptionClient(config domain.TranscriptionConfig, logger *zap.Logger) *TranscriptionClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &TranscriptionClient{
		config: config,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Configured reports whether an API key is present.
func (c *TranscriptionClient) Configured() bool {
	return c.config.APIKey != ""
}

// Transcribe uploads an audio file and returns the transcript. The API
// rejects files over the configured size limit, so that is checked
// before any bytes leave the machine.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("transcription API key not configured")
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)
	if c.config.MaxFileMB > 0 && sizeMB > c.config.MaxFileMB {
		return nil, fmt.Errorf("audio file too large for transcription API (%.1fMB > %.0fMB limit)",
			sizeMB, c.config.MaxFileMB)
	}

	body, contentType, err := c.buildRequestBody(audioPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", contentType)

	c.logger.Info("uploading audio for transcription",
		zap.String("file", filepath.Base(audioPath)),
		zap.Float64("size_mb", sizeMB),
		zap.String("model", c.config.Model))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := apiErrorMessage(respBody)
		if wait, ok := ParseRateLimitWait(msg); ok {
			return nil, fmt.Errorf("transcription API rate limited, retry in %s: %s", wait, msg)
		}
		return nil, fmt.Errorf("transcription API error (%d): %s", resp.StatusCode, msg)
	}

	var transcript Transcript
	if err := json.Unmarshal(respBody, &transcript); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}

	c.logger.Info("transcription complete",
		zap.String("language", transcript.Language),
		zap.Float64("duration_s", transcript.Duration),
		zap.Int("segments", len(transcript.Segments)))
	return &transcript, nil
}

// buildRequestBody assembles the multipart form the API expects.
func (c *TranscriptionClient) buildRequestBody(audioPath string) (*bytes.Buffer, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy audio: %w", err)
	}

	_ = w.WriteField("model", c.config.Model)
	_ = w.WriteField("response_format", "verbose_json")
	if c.config.Language != "" {
		_ = w.WriteField("language", c.config.Language)
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// FormatTimestamps renders segments as "[MM:SS - MM:SS] text" lines.
func FormatTimestamps(segments []TranscriptSegment) string {
	var buf bytes.Buffer
	for _, s := range segments {
		fmt.Fprintf(&buf, "[%s - %s] %s\n", formatClock(s.Start), formatClock(s.End), s.Text)
	}
	return buf.String()
}

func formatClock(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// apiErrorMessage extracts the error message from an API error payload.
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return string(body)
}

var rateLimitWaitPattern = regexp.MustCompile(`try again in (?:(\d+)m)?([\d.]+)s`)

// ParseRateLimitWait extracts the suggested wait from a rate-limit error
// message like "Please try again in 7m12.34s".
func ParseRateLimitWait(msg string) (time.Duration, bool) {
	m := rateLimitWaitPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	var wait time.Duration
	if m[1] != "" {
		mins, _ := strconv.Atoi(m[1])
		wait += time.Duration(mins) * time.Minute
	}
	secs, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}
	wait += time.Duration(secs * float64(time.Second))
	return wait, true
}
