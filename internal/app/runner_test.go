package app

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tubescribe/internal/domain"
)

// newTestRunner wires a runner around a shell script standing in for
// the external tool.
func newTestRunner(t *testing.T, script, destination string, idleTimeout time.Duration) (*jobRunner, *Subscription) {
	t.Helper()
	spec := domain.NewJobSpec(domain.KindDownloadVideo, "https://youtu.be/test123", domain.QualityBest, destination)
	hub := NewHub(256, time.Second, nil)
	sub := hub.Subscribe()
	runner := newJobRunner(spec, []string{"/bin/sh", "-c", script}, hub, nil, nil,
		idleTimeout, 100*time.Millisecond, nil)
	return runner, sub
}

// drainEvents collects everything published so far.
func drainEvents(sub *Subscription) []domain.Event {
	var events []domain.Event
	for {
		select {
		case ev := <-sub.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestJobRunner_Success(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.mp4")
	script := fmt.Sprintf(`
echo "[youtube] test123: Downloading webpage"
echo "[download]  10.0%% of ~1.00MiB at  1.00MiB/s ETA 00:05"
echo "[download] 100.0%% of 1.00MiB at  1.00MiB/s ETA 00:00"
echo "payload" > %q
`, dest)

	runner, sub := newTestRunner(t, script, dest, 5*time.Second)
	result := runner.Run()

	assert.Equal(t, domain.StatusSucceeded, result.Status)
	assert.Equal(t, dest, result.ArtifactPath)
	assert.Empty(t, result.Failure)

	events := drainEvents(sub)
	require.NotEmpty(t, events)
	// Result is always the last event
	assert.Equal(t, domain.EventResult, events[len(events)-1].Type())
	// The non-progress line surfaced as a log event
	assert.Equal(t, domain.EventLog, events[0].Type())
}

func TestJobRunner_ExitZeroWithoutArtifactFails(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "never-created.mp4")
	runner, sub := newTestRunner(t, `echo "[download] 100.0%"; exit 0`, dest, 5*time.Second)

	result := runner.Run()

	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Equal(t, domain.FailureArtifactMissing, result.Failure)

	events := drainEvents(sub)
	last := events[len(events)-1]
	require.Equal(t, domain.EventResult, last.Type())
	assert.Equal(t, domain.FailureArtifactMissing, last.(domain.ResultEvent).Result.Failure)
}

func TestJobRunner_StderrClassification(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.mp4")
	runner, _ := newTestRunner(t,
		`echo "ERROR: [youtube] test123: Video unavailable" >&2; exit 1`, dest, 5*time.Second)

	result := runner.Run()

	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Equal(t, domain.FailureResourceUnavailable, result.Failure)
	assert.NotEmpty(t, result.Message)
}

func TestJobRunner_MonotonicProgress(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.mp4")
	script := fmt.Sprintf(`
echo "[download]  10.0%% of 1.00MiB at 1.00MiB/s ETA 00:09"
echo "[download]  50.0%% of 1.00MiB at 1.00MiB/s ETA 00:05"
echo "[download]  30.0%% of 1.00MiB at 1.00MiB/s ETA 00:07"
echo "[download]  80.0%% of 1.00MiB at 1.00MiB/s ETA 00:02"
echo "x" > %q
`, dest)

	runner, sub := newTestRunner(t, script, dest, 5*time.Second)
	result := runner.Run()
	require.Equal(t, domain.StatusSucceeded, result.Status)

	var percents []float64
	for _, ev := range drainEvents(sub) {
		if p, ok := ev.(domain.ProgressEvent); ok {
			percents = append(percents, p.Percent)
		}
	}
	// The regressive 30% update is suppressed
	assert.Equal(t, []float64{10, 50, 80}, percents)
}

func TestJobRunner_Cancel(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.mp4")
	runner, sub := newTestRunner(t, `echo started; exec sleep 30`, dest, time.Minute)

	resultCh := make(chan domain.JobResult, 1)
	go func() { resultCh <- runner.Run() }()

	// Wait for the first output line so the process is demonstrably up
	select {
	case <-sub.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("process produced no output")
	}

	runner.Cancel()
	runner.Cancel() // idempotent

	select {
	case result := <-resultCh:
		assert.Equal(t, domain.StatusCancelled, result.Status)
		assert.Empty(t, result.ArtifactPath)
	case <-time.After(10 * time.Second):
		t.Fatal("cancellation did not terminate the job")
	}
}

func TestJobRunner_IdleTimeout(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.mp4")
	runner, _ := newTestRunner(t, `exec sleep 30`, dest, 200*time.Millisecond)

	start := time.Now()
	result := runner.Run()

	assert.Equal(t, domain.StatusTimedOut, result.Status)
	assert.Equal(t, domain.FailureTimeout, result.Failure)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestJobRunner_OutputResetsIdleTimer(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.mp4")
	// Each line lands inside the idle window; total runtime exceeds it
	script := fmt.Sprintf(`
for i in 1 2 3 4 5; do
  echo "[download]  $i0.0%% of 1.00MiB at 1.00MiB/s ETA 00:01"
  sleep 0.2
done
echo "x" > %q
`, dest)

	runner, _ := newTestRunner(t, script, dest, 600*time.Millisecond)
	result := runner.Run()

	assert.Equal(t, domain.StatusSucceeded, result.Status)
}

func TestJobRunner_SpawnFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.mp4")
	spec := domain.NewJobSpec(domain.KindDownloadVideo, "https://youtu.be/test123", domain.QualityBest, dest)
	hub := NewHub(16, time.Second, nil)
	sub := hub.Subscribe()
	runner := newJobRunner(spec, []string{"/nonexistent/binary"}, hub, nil, nil,
		time.Second, 100*time.Millisecond, nil)

	result := runner.Run()

	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Equal(t, domain.FailureSpawn, result.Failure)

	events := drainEvents(sub)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventResult, events[0].Type())
}
