package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Slot identifies a single-job-at-a-time execution context.
type Slot string

const (
	SlotDownload      Slot = "download"
	SlotTranscription Slot = "transcription"
)

// ValidSlot checks if a slot identifier is known.
func ValidSlot(slot Slot) bool {
	return slot == SlotDownload || slot == SlotTranscription
}

// JobKind represents what kind of external job to run.
type JobKind string

const (
	KindDownloadVideo JobKind = "download-video"
	KindDownloadAudio JobKind = "download-audio"
	KindTranscribe    JobKind = "transcribe"
)

// ValidKind checks if a job kind is known.
func ValidKind(kind JobKind) bool {
	switch kind {
	case KindDownloadVideo, KindDownloadAudio, KindTranscribe:
		return true
	}
	return false
}

// DefaultSlot returns the slot a job kind runs on.
func (k JobKind) DefaultSlot() Slot {
	if k == KindTranscribe {
		return SlotTranscription
	}
	return SlotDownload
}

// Quality is a video quality selector. "best" adds no height constraint.
type Quality string

const (
	QualityBest  Quality = "best"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	Quality360p  Quality = "360p"
)

// JobStatus represents the runner state machine. Succeeded, Failed,
// TimedOut and Cancelled are terminal.
type JobStatus string

const (
	StatusStarting  JobStatus = "starting"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusTimedOut  JobStatus = "timed_out"
	StatusCancelled JobStatus = "cancelled"
)

// IsTerminal checks if the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusCancelled:
		return true
	}
	return false
}

// JobSpec is an immutable description of one external job. Created by the
// caller and never mutated after creation.
type JobSpec struct {
	ID          string
	Kind        JobKind
	Target      string  // URL for downloads, file path for transcription
	Quality     Quality // only meaningful for download-video
	Destination string  // absolute output path, parent must exist
}

// NewJobSpec creates a job spec with a fresh ID.
func NewJobSpec(kind JobKind, target string, quality Quality, destination string) JobSpec {
	return JobSpec{
		ID:          uuid.New().String(),
		Kind:        kind,
		Target:      target,
		Quality:     quality,
		Destination: destination,
	}
}

// youtubeURLPatterns match the URL shapes the downloader accepts.
var youtubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(https?://)?(www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`(?i)^(https?://)?(www\.)?youtube\.com/shorts/[\w-]+`),
	regexp.MustCompile(`(?i)^(https?://)?youtu\.be/[\w-]+`),
	regexp.MustCompile(`(?i)^(https?://)?(www\.)?youtube\.com/embed/[\w-]+`),
}

// ValidDownloadURL checks if a URL is an acceptable download target.
func ValidDownloadURL(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return false
	}
	for _, p := range youtubeURLPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}

// Validate checks the structural validity of the spec. It intentionally
// performs no filesystem access; the command builder checks the
// destination parent.
func (s JobSpec) Validate() error {
	if strings.TrimSpace(s.Target) == "" {
		return fmt.Errorf("%w: empty target", ErrInvalidJobSpec)
	}
	if !ValidKind(s.Kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidJobSpec, s.Kind)
	}
	if s.Destination == "" || !filepath.IsAbs(s.Destination) {
		return fmt.Errorf("%w: destination must be an absolute path", ErrInvalidJobSpec)
	}
	if s.Kind != KindTranscribe && !ValidDownloadURL(s.Target) {
		return fmt.Errorf("%w: unsupported URL %q", ErrInvalidJobSpec, s.Target)
	}
	return nil
}

// JobResult is the terminal value of a job. Exactly one is produced per
// job, always as the last event on the slot's stream.
type JobResult struct {
	JobID        string        `json:"job_id"`
	Status       JobStatus     `json:"status"`
	ArtifactPath string        `json:"artifact_path,omitempty"`
	Failure      FailureKind   `json:"failure,omitempty"`
	Message      string        `json:"message,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Succeeded reports whether the job reached the Succeeded state.
func (r JobResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// JobRecord is the persisted history row for one job.
type JobRecord struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	Slot         Slot        `json:"slot" gorm:"not null;index"`
	Kind         JobKind     `json:"kind" gorm:"not null"`
	Target       string      `json:"target" gorm:"not null"`
	Quality      Quality     `json:"quality,omitempty"`
	Destination  string      `json:"destination,omitempty"`
	Status       JobStatus   `json:"status" gorm:"not null;index"`
	Failure      FailureKind `json:"failure,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	ArtifactPath string      `json:"artifact_path,omitempty"`
	ElapsedMs    int64       `json:"elapsed_ms"`
	CreatedAt    time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
}

// NewJobRecord creates a history row for a starting job.
func NewJobRecord(slot Slot, spec JobSpec) *JobRecord {
	now := time.Now()
	return &JobRecord{
		ID:          spec.ID,
		Slot:        slot,
		Kind:        spec.Kind,
		Target:      spec.Target,
		Quality:     spec.Quality,
		Destination: spec.Destination,
		Status:      StatusStarting,
		CreatedAt:   now,
		UpdatedAt:   now,
		StartedAt:   &now,
	}
}

// MarkRunning records the spawn-succeeded transition.
func (r *JobRecord) MarkRunning() {
	r.Status = StatusRunning
	r.UpdatedAt = time.Now()
}

// MarkFinished records the terminal result.
func (r *JobRecord) MarkFinished(result JobResult) {
	now := time.Now()
	r.Status = result.Status
	r.Failure = result.Failure
	r.ErrorMessage = result.Message
	r.ArtifactPath = result.ArtifactPath
	r.ElapsedMs = result.Elapsed.Milliseconds()
	r.FinishedAt = &now
	r.UpdatedAt = now
}
