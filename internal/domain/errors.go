package domain

import "errors"

// Sentinel errors for the orchestrator's public operations.
var (
	// ErrAlreadyRunning is returned by Start when the slot has a live job.
	// The running job is left untouched.
	ErrAlreadyRunning = errors.New("a job is already running on this slot")

	// ErrInvalidJobSpec is returned for structurally invalid specs, before
	// any process is spawned.
	ErrInvalidJobSpec = errors.New("invalid job spec")

	// ErrUnknownSlot is returned for slot identifiers outside the fixed set.
	ErrUnknownSlot = errors.New("unknown slot")
)

// FailureKind classifies why a job ended in a non-succeeded state.
// Cancellation is terminal but carries no failure kind: it is not an
// error for user-facing purposes.
type FailureKind string

const (
	FailureNone FailureKind = ""

	// FailureSpawn: the external tool is missing or not executable.
	FailureSpawn FailureKind = "spawn_failure"

	// Tool-reported failures, classified from stderr substrings.
	FailureInvalidResource     FailureKind = "invalid_resource"
	FailureResourceUnavailable FailureKind = "resource_unavailable"
	FailureFormatUnavailable   FailureKind = "format_unavailable"
	FailureToolGeneric         FailureKind = "tool_failure"

	// FailureTimeout: no output and no exit within the job's window.
	FailureTimeout FailureKind = "timeout"

	// FailureArtifactMissing: the process exited 0 but the declared output
	// file is absent or empty.
	FailureArtifactMissing FailureKind = "artifact_missing"
)
