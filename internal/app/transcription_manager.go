package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tubescribe/internal/domain"
	"github.com/yourusername/tubescribe/internal/infrastructure"
)

// TranscriptionManager runs the two-phase transcription pipeline: an
// ffmpeg extraction job on the transcription slot, then an API upload
// of the resulting audio. The extraction phase is an ordinary job, so
// progress, cancellation and timeout all flow through the orchestrator.
type TranscriptionManager struct {
	orchestrator *Orchestrator
	client       *infrastructure.TranscriptionClient
	config       domain.TranscriptionConfig
	transcriptDir string
	logger       *zap.Logger
}

// NewTranscriptionManager wires the pipeline against an orchestrator.
func NewTranscriptionManager(
	orchestrator *Orchestrator,
	client *infrastructure.TranscriptionClient,
	config domain.TranscriptionConfig,
	transcriptDir string,
	logger *zap.Logger,
) *TranscriptionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptionManager{
		orchestrator:  orchestrator,
		client:        client,
		config:        config,
		transcriptDir: transcriptDir,
		logger:        logger,
	}
}

// Transcribe starts transcription of a local media file. It returns as
// soon as the extraction job is accepted; the transcript is written
// asynchronously once the upload completes. A busy transcription slot
// fails with ErrAlreadyRunning.
func (m *TranscriptionManager) Transcribe(sourcePath string) (*JobHandle, error) {
	if !m.client.Configured() {
		return nil, fmt.Errorf("transcription API key is not configured")
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("source file not accessible: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	audioPath := filepath.Join(os.TempDir(), fmt.Sprintf("tubescribe-audio-%s.mp3", infrastructure.SanitizeFilename(stem)))

	spec := domain.NewJobSpec(domain.KindTranscribe, sourcePath, "", audioPath)
	handle, err := m.orchestrator.Start(domain.SlotTranscription, spec)
	if err != nil {
		return nil, err
	}

	go m.awaitAndUpload(handle, sourcePath, audioPath)
	return handle, nil
}

// awaitAndUpload waits for the extraction job to settle, uploads the
// audio on success, and always removes the temporary audio file.
func (m *TranscriptionManager) awaitAndUpload(handle *JobHandle, sourcePath, audioPath string) {
	defer os.Remove(audioPath)

	<-handle.Done()
	result := handle.Result()
	if !result.Succeeded() {
		m.logger.Warn("audio extraction did not succeed, skipping upload",
			zap.String("job_id", handle.ID),
			zap.String("status", string(result.Status)),
			zap.String("message", result.Message))
		return
	}

	timeout := m.config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	transcript, err := m.client.Transcribe(ctx, result.ArtifactPath)
	if err != nil {
		m.logger.Error("transcription upload failed",
			zap.String("job_id", handle.ID),
			zap.Error(err))
		return
	}

	path, err := m.writeTranscript(sourcePath, transcript)
	if err != nil {
		m.logger.Error("failed to write transcript",
			zap.String("job_id", handle.ID),
			zap.Error(err))
		return
	}

	m.logger.Info("transcript written",
		zap.String("job_id", handle.ID),
		zap.String("path", path),
		zap.String("language", transcript.Language),
		zap.Float64("duration", transcript.Duration))
}

// writeTranscript renders the transcript to the transcript directory,
// timestamped or plain per configuration.
func (m *TranscriptionManager) writeTranscript(sourcePath string, transcript *infrastructure.Transcript) (string, error) {
	if err := infrastructure.EnsureDirectory(m.transcriptDir); err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	name := infrastructure.UniqueFilename(m.transcriptDir, infrastructure.OutputFilename(stem, domain.KindTranscribe))
	path := filepath.Join(m.transcriptDir, name)

	content := transcript.Text
	if m.config.Timestamps && len(transcript.Segments) > 0 {
		content = infrastructure.FormatTimestamps(transcript.Segments)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}
