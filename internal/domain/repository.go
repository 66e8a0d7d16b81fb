package domain

// JobRepository defines the interface for job history persistence. The
// orchestrator records here; it never replays or retries from history.
type JobRepository interface {
	// Create creates a new job record
	Create(record *JobRecord) error

	// Update updates an existing job record
	Update(record *JobRecord) error

	// Delete deletes a job record by ID
	Delete(id string) error

	// FindByID finds a job record by ID
	FindByID(id string) (*JobRecord, error)

	// FindByStatus finds job records by status
	FindByStatus(status JobStatus) ([]*JobRecord, error)

	// FindAll finds all job records with optional filters, newest first
	FindAll(filters map[string]interface{}) ([]*JobRecord, error)

	// Count returns the total number of job records
	Count() (int64, error)

	// CountByStatus returns the number of job records by status
	CountByStatus(status JobStatus) (int64, error)

	// GetStats returns job statistics
	GetStats() (*JobStats, error)
}

// JobStats represents job history statistics
type JobStats struct {
	Total     int64 `json:"total"`
	Running   int64 `json:"running"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	TimedOut  int64 `json:"timed_out"`
	Cancelled int64 `json:"cancelled"`
}
