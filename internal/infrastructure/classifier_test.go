package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/tubescribe/internal/domain"
)

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		stderr string
		kind   domain.FailureKind
	}{
		{"ERROR: 'htp://nope' is not a valid URL", domain.FailureInvalidResource},
		{"ERROR: Unsupported URL: https://example.com/x", domain.FailureInvalidResource},
		{"ERROR: [youtube] abc: Video unavailable", domain.FailureResourceUnavailable},
		{"ERROR: [youtube] abc: Private video. Sign in if you've been granted access", domain.FailureResourceUnavailable},
		{"ERROR: This video is unavailable in your country", domain.FailureResourceUnavailable},
		{"ERROR: Sign in to confirm your age", domain.FailureResourceUnavailable},
		{"ERROR: Requested format is not available", domain.FailureFormatUnavailable},
		{"ERROR: Unable to extract player version", domain.FailureToolGeneric},
		{"some completely unknown failure output", domain.FailureToolGeneric},
		{"", domain.FailureToolGeneric},
	}

	for _, tt := range tests {
		kind, message := ClassifyStderr(tt.stderr)
		assert.Equal(t, tt.kind, kind, tt.stderr)
		assert.NotEmpty(t, message)
	}
}

func TestClassifyStderr_FirstMatchWins(t *testing.T) {
	// Invalid URL outranks the generic extraction failure
	kind, _ := ClassifyStderr("ERROR: Unable to extract; also 'x' is not a valid URL")
	assert.Equal(t, domain.FailureInvalidResource, kind)
}
