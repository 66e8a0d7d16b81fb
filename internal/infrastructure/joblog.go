package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JobLog mirrors a job's raw tool output to a dated log file, one file
// per day, with start/end markers around each job. The event stream is
// the primary channel; this file is the durable copy.
type JobLog struct {
	mu   sync.Mutex
	file *os.File
}

// OpenJobLog opens (or creates) today's job log in logsDir and writes
// the start marker with the display-escaped command line.
func OpenJobLog(logsDir, jobID string, argv []string) (*JobLog, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	path := filepath.Join(logsDir, "job-"+dateStr+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	jl := &JobLog{file: file}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] Job: %s ===\n", timestamp, jobID)
	if len(argv) > 0 {
		// escaping is for display only; the process gets discrete tokens
		fmt.Fprintf(file, "$ %s\n", ShellEscapeCommand(argv[0], argv[1:]...))
	}
	return jl, nil
}

// WriteLine appends one line of tool output.
func (jl *JobLog) WriteLine(stream, line string) {
	jl.mu.Lock()
	defer jl.mu.Unlock()
	fmt.Fprintf(jl.file, "[%s] %s\n", stream, line)
}

// Close writes the end marker and closes the file.
func (jl *JobLog) Close(success bool, message string) error {
	jl.mu.Lock()
	defer jl.mu.Unlock()

	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(jl.file, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprintf(jl.file, "=== END ===\n\n")
	return jl.file.Close()
}
