package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJobSpec(t *testing.T) {
	spec := NewJobSpec(KindDownloadVideo, "https://youtube.com/watch?v=abc123", Quality720p, "/tmp/out.mp4")

	assert.NotEmpty(t, spec.ID)
	assert.Equal(t, KindDownloadVideo, spec.Kind)
	assert.Equal(t, "https://youtube.com/watch?v=abc123", spec.Target)
	assert.Equal(t, Quality720p, spec.Quality)
	assert.Equal(t, "/tmp/out.mp4", spec.Destination)
}

func TestJobSpec_Validate(t *testing.T) {
	spec := NewJobSpec(KindDownloadVideo, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", QualityBest, "/tmp/out.mp4")
	assert.NoError(t, spec.Validate())
}

func TestJobSpec_Validate_EmptyTarget(t *testing.T) {
	spec := NewJobSpec(KindDownloadVideo, "   ", QualityBest, "/tmp/out.mp4")
	err := spec.Validate()
	assert.ErrorIs(t, err, ErrInvalidJobSpec)
}

func TestJobSpec_Validate_UnknownKind(t *testing.T) {
	spec := NewJobSpec(JobKind("upload"), "https://youtu.be/abc123", QualityBest, "/tmp/out.mp4")
	err := spec.Validate()
	assert.ErrorIs(t, err, ErrInvalidJobSpec)
}

func TestJobSpec_Validate_RelativeDestination(t *testing.T) {
	spec := NewJobSpec(KindDownloadVideo, "https://youtu.be/abc123", QualityBest, "out.mp4")
	err := spec.Validate()
	assert.ErrorIs(t, err, ErrInvalidJobSpec)
}

func TestJobSpec_Validate_UnsupportedURL(t *testing.T) {
	spec := NewJobSpec(KindDownloadVideo, "https://example.com/video.mp4", QualityBest, "/tmp/out.mp4")
	err := spec.Validate()
	assert.ErrorIs(t, err, ErrInvalidJobSpec)
}

func TestJobSpec_Validate_TranscribeLocalPath(t *testing.T) {
	// Transcribe targets are local files, not URLs
	spec := NewJobSpec(KindTranscribe, "/home/user/video.mp4", "", "/tmp/audio.mp3")
	assert.NoError(t, spec.Validate())
}

func TestValidDownloadURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtube.com/watch?v=abc_123-X",
		"youtube.com/watch?v=abc123",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abc123",
		"https://www.youtube.com/embed/abc123",
	}
	for _, url := range valid {
		assert.True(t, ValidDownloadURL(url), url)
	}

	invalid := []string{
		"",
		"   ",
		"https://vimeo.com/12345",
		"https://example.com/watch?v=abc",
		"not a url at all",
	}
	for _, url := range invalid {
		assert.False(t, ValidDownloadURL(url), url)
	}
}

func TestJobKind_DefaultSlot(t *testing.T) {
	assert.Equal(t, SlotDownload, KindDownloadVideo.DefaultSlot())
	assert.Equal(t, SlotDownload, KindDownloadAudio.DefaultSlot())
	assert.Equal(t, SlotTranscription, KindTranscribe.DefaultSlot())
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusStarting.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusSucceeded.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusTimedOut.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestJobRecord_Lifecycle(t *testing.T) {
	spec := NewJobSpec(KindDownloadVideo, "https://youtu.be/abc123", QualityBest, "/tmp/out.mp4")
	record := NewJobRecord(SlotDownload, spec)

	assert.Equal(t, spec.ID, record.ID)
	assert.Equal(t, StatusStarting, record.Status)

	record.MarkRunning()
	assert.Equal(t, StatusRunning, record.Status)
	assert.NotNil(t, record.StartedAt)

	record.MarkFinished(JobResult{
		JobID:        spec.ID,
		Status:       StatusSucceeded,
		ArtifactPath: "/tmp/out.mp4",
	})
	assert.Equal(t, StatusSucceeded, record.Status)
	assert.Equal(t, "/tmp/out.mp4", record.ArtifactPath)
	assert.NotNil(t, record.FinishedAt)
}
