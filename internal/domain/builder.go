package domain

// CommandBuilder turns a job spec into the argv for the external tool.
// Implementations are pure apart from checking that the destination's
// parent directory exists and is writable; they never spawn anything.
//
// The returned slice is always discrete tokens for exec, never a string
// for a shell: resource identifiers and file names cannot inject.
type CommandBuilder interface {
	// Build returns the ordered argument vector, binary first. It fails
	// only on a structurally invalid spec (wrapped ErrInvalidJobSpec).
	Build(spec JobSpec) ([]string, error)
}
