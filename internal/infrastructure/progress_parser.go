package infrastructure

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/tubescribe/internal/domain"
)

// yt-dlp progress grammar, one line per update thanks to --newline:
//
//	[download]  45.2% of ~48.00MiB at  2.30MiB/s ETA 00:12
//
// Size, rate and ETA are optional but appear in that fixed order when
// present. Rate and ETA stay free text; only the percentage is numeric.
var (
	progressFullPattern = regexp.MustCompile(
		`\[download\]\s+(\d+\.?\d*)%(?:\s+of\s+~?([\d.]+[KMGT]?i?B))?.*?at\s+([\d.]+\s*\w+/s).*?ETA\s+([\d:]+)`)
	progressPercentPattern = regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%`)
)

// ParseProgressLine parses one stdout line into a progress event. It is
// pure and stateless: unparseable lines return (zero, false) and the
// caller forwards them as log events so diagnostics are never lost. A
// percentage outside [0,100] is treated as a parse failure.
func ParseProgressLine(jobID, line string) (domain.ProgressEvent, bool) {
	if !strings.Contains(line, "[download]") {
		return domain.ProgressEvent{}, false
	}

	if m := progressFullPattern.FindStringSubmatch(line); m != nil {
		percent, err := strconv.ParseFloat(m[1], 64)
		if err != nil || percent < 0 || percent > 100 {
			return domain.ProgressEvent{}, false
		}
		return domain.ProgressEvent{
			JobID:   jobID,
			Percent: percent,
			Size:    m[2],
			Rate:    strings.TrimSpace(m[3]),
			ETA:     m[4],
			Raw:     line,
		}, true
	}

	if m := progressPercentPattern.FindStringSubmatch(line); m != nil {
		percent, err := strconv.ParseFloat(m[1], 64)
		if err != nil || percent < 0 || percent > 100 {
			return domain.ProgressEvent{}, false
		}
		return domain.ProgressEvent{
			JobID:   jobID,
			Percent: percent,
			Raw:     line,
		}, true
	}

	return domain.ProgressEvent{}, false
}
