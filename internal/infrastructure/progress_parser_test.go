package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProgressLine_Full(t *testing.T) {
	line := "[download]  45.2% of ~48.00MiB at  2.30MiB/s ETA 00:12"

	event, ok := ParseProgressLine("job-1", line)

	assert.True(t, ok)
	assert.Equal(t, "job-1", event.JobID)
	assert.Equal(t, 45.2, event.Percent)
	assert.Equal(t, "48.00MiB", event.Size)
	assert.Equal(t, "2.30MiB/s", event.Rate)
	assert.Equal(t, "00:12", event.ETA)
	assert.Equal(t, line, event.Raw)
}

func TestParseProgressLine_NoSizeEstimate(t *testing.T) {
	line := "[download] 100.0% of 12.34MiB at 5.67MiB/s ETA 00:00"

	event, ok := ParseProgressLine("job-1", line)

	assert.True(t, ok)
	assert.Equal(t, 100.0, event.Percent)
	assert.Equal(t, "12.34MiB", event.Size)
}

func TestParseProgressLine_PercentOnly(t *testing.T) {
	// Progress lines without rate/ETA still carry the percentage
	event, ok := ParseProgressLine("job-1", "[download]  73.1% of 10.00MiB")

	assert.True(t, ok)
	assert.Equal(t, 73.1, event.Percent)
	assert.Empty(t, event.Rate)
	assert.Empty(t, event.ETA)
}

func TestParseProgressLine_NonProgressLines(t *testing.T) {
	lines := []string{
		"",
		"[youtube] dQw4w9WgXcQ: Downloading webpage",
		"[download] Destination: /tmp/video.mp4",
		"[Merger] Merging formats into \"/tmp/video.mp4\"",
		"WARNING: unable to obtain file audio codec",
		"ERROR: Video unavailable",
	}
	for _, line := range lines {
		_, ok := ParseProgressLine("job-1", line)
		assert.False(t, ok, line)
	}
}

func TestParseProgressLine_PercentOutOfRange(t *testing.T) {
	_, ok := ParseProgressLine("job-1", "[download] 250.0% of 1.00MiB at 1.00MiB/s ETA 00:01")
	assert.False(t, ok)
}

func TestParseProgressLine_LongETA(t *testing.T) {
	event, ok := ParseProgressLine("job-1", "[download]   1.5% of ~2.10GiB at  800.00KiB/s ETA 1:12:45")

	assert.True(t, ok)
	assert.Equal(t, 1.5, event.Percent)
	assert.Equal(t, "2.10GiB", event.Size)
	assert.Equal(t, "800.00KiB/s", event.Rate)
	assert.Equal(t, "1:12:45", event.ETA)
}
