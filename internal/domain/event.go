package domain

import "time"

// EventType discriminates the values carried on a slot's event stream.
type EventType string

const (
	EventProgress EventType = "progress"
	EventLog      EventType = "log"
	EventResult   EventType = "result"
)

// Event is one item on a slot's event stream. Progress and result events
// are never dropped under backpressure; log events may be.
type Event interface {
	Type() EventType
	Job() string
}

// ProgressEvent is an immutable progress snapshot parsed from one tool
// output line. Percent is in [0,100] and non-decreasing within one job.
type ProgressEvent struct {
	JobID   string  `json:"job_id"`
	Percent float64 `json:"percent"`
	Size    string  `json:"size,omitempty"`
	Rate    string  `json:"rate,omitempty"`
	ETA     string  `json:"eta,omitempty"`
	Raw     string  `json:"raw,omitempty"` // source line, for diagnostics
}

func (e ProgressEvent) Type() EventType { return EventProgress }
func (e ProgressEvent) Job() string     { return e.JobID }

// LogStream identifies which output stream a log line came from.
type LogStream string

const (
	StreamStdout LogStream = "stdout"
	StreamStderr LogStream = "stderr"
	StreamRunner LogStream = "runner" // runner's own status messages
)

// LogEvent carries one verbatim line of tool output or a runner status
// message. Lines that fail progress parsing arrive here, never dropped
// silently at the parse stage.
type LogEvent struct {
	JobID  string    `json:"job_id"`
	Stream LogStream `json:"stream"`
	Line   string    `json:"line"`
	At     time.Time `json:"at"`
}

func (e LogEvent) Type() EventType { return EventLog }
func (e LogEvent) Job() string     { return e.JobID }

// ResultEvent wraps the terminal JobResult. It is always the last event
// emitted for a job.
type ResultEvent struct {
	Result JobResult `json:"result"`
}

func (e ResultEvent) Type() EventType { return EventResult }
func (e ResultEvent) Job() string     { return e.Result.JobID }
