package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLog_RoundTrip(t *testing.T) {
	logsDir := t.TempDir()

	jl, err := OpenJobLog(logsDir, "job-abc", []string{"yt-dlp", "-o", "/tmp/my video.mp4", "https://youtu.be/x"})
	require.NoError(t, err)

	jl.WriteLine("stdout", "[download]  50.0% of 1.00MiB")
	jl.WriteLine("stderr", "WARNING: something minor")
	require.NoError(t, jl.Close(true, "done"))

	path := filepath.Join(logsDir, "job-"+time.Now().Format("20060102")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Job: job-abc")
	// Paths with spaces are quoted in the display command line
	assert.Contains(t, content, `'/tmp/my video.mp4'`)
	assert.Contains(t, content, "[stdout] [download]  50.0% of 1.00MiB")
	assert.Contains(t, content, "[stderr] WARNING: something minor")
	assert.Contains(t, content, "SUCCESS: done")
	assert.Contains(t, content, "=== END ===")
}

func TestJobLog_FailureFooter(t *testing.T) {
	logsDir := t.TempDir()

	jl, err := OpenJobLog(logsDir, "job-def", []string{"ffmpeg", "-i", "in.mp4"})
	require.NoError(t, err)
	require.NoError(t, jl.Close(false, "no output within 10m0s"))

	path := filepath.Join(logsDir, "job-"+time.Now().Format("20060102")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), "FAILED: no output within 10m0s")
}

func TestJobLog_AppendsToSameDayFile(t *testing.T) {
	logsDir := t.TempDir()

	first, err := OpenJobLog(logsDir, "job-1", nil)
	require.NoError(t, err)
	require.NoError(t, first.Close(true, ""))

	second, err := OpenJobLog(logsDir, "job-2", nil)
	require.NoError(t, err)
	require.NoError(t, second.Close(true, ""))

	entries, err := os.ReadDir(logsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(logsDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "job-1")
	assert.Contains(t, string(data), "job-2")
}
