package infrastructure

import (
	"strings"

	"github.com/yourusername/tubescribe/internal/domain"
)

// stderrClassification maps a known yt-dlp failure substring to a
// failure kind. Order matters: first match wins.
type stderrClassification struct {
	substring string
	kind      domain.FailureKind
	message   string
}

var stderrClassifications = []stderrClassification{
	{"is not a valid URL", domain.FailureInvalidResource,
		"The URL is not valid."},
	{"Unsupported URL", domain.FailureInvalidResource,
		"The URL is not supported."},
	{"Video unavailable", domain.FailureResourceUnavailable,
		"This video is not available. It may be private or deleted."},
	{"Private video", domain.FailureResourceUnavailable,
		"This video is private."},
	{"This video is unavailable", domain.FailureResourceUnavailable,
		"This video is not available."},
	{"Sign in to confirm", domain.FailureResourceUnavailable,
		"This video requires sign-in or age verification."},
	{"age-restricted", domain.FailureResourceUnavailable,
		"This video is age-restricted."},
	{"Requested format is not available", domain.FailureFormatUnavailable,
		"The requested quality is not available for this video."},
	{"Unable to extract", domain.FailureToolGeneric,
		"The external tool could not extract the video."},
}

// ClassifyStderr derives a failure kind and a user-facing message from
// the accumulated stderr text of a failed process. Unmatched output
// falls back to the generic tool-failure classification.
func ClassifyStderr(stderr string) (domain.FailureKind, string) {
	for _, c := range stderrClassifications {
		if strings.Contains(stderr, c.substring) {
			return c.kind, c.message
		}
	}
	return domain.FailureToolGeneric, "The external tool failed. Check your connection and try again."
}
