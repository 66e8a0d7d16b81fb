package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tubescribe/internal/domain"
	"github.com/yourusername/tubescribe/internal/infrastructure"
)

// outputLine is one line read from the child process.
type outputLine struct {
	stream domain.LogStream
	text   string
}

// stderrCap bounds how much stderr is accumulated for classification.
const stderrCap = 64 * 1024

// jobRunner owns one external-process invocation: it spawns the
// process, drains both output streams concurrently, applies the idle
// timeout, and reacts to cancellation. It emits progress, log and
// exactly one result event on the hub, the result last.
//
// State machine: Starting -> Running -> {Succeeded, Failed, TimedOut,
// Cancelled}. All four end states are terminal.
type jobRunner struct {
	spec        domain.JobSpec
	argv        []string
	hub         *Hub
	logger      *zap.Logger
	jobLog      *infrastructure.JobLog
	idleTimeout time.Duration
	gracePeriod time.Duration
	onStarted   func()

	cancelOnce sync.Once
	cancelCh   chan struct{}
	exitedCh   chan struct{}
}

func newJobRunner(spec domain.JobSpec, argv []string, hub *Hub, logger *zap.Logger,
	jobLog *infrastructure.JobLog, idleTimeout, gracePeriod time.Duration, onStarted func()) *jobRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jobRunner{
		spec:        spec,
		argv:        argv,
		hub:         hub,
		logger:      logger,
		jobLog:      jobLog,
		idleTimeout: idleTimeout,
		gracePeriod: gracePeriod,
		onStarted:   onStarted,
		cancelCh:    make(chan struct{}),
		exitedCh:    make(chan struct{}),
	}
}

// Cancel requests cancellation. It is idempotent and returns as soon as
// the request is accepted; the terminal result arrives on the hub.
func (r *jobRunner) Cancel() {
	r.cancelOnce.Do(func() {
		close(r.cancelCh)
	})
}

// Run executes the job to a terminal state. It blocks and is intended
// to run on its own goroutine; the result it returns is also published
// as the job's final event.
func (r *jobRunner) Run() domain.JobResult {
	start := time.Now()

	cmd := exec.Command(r.argv[0], r.argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return r.finish(r.spawnFailure(err, start))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return r.finish(r.spawnFailure(err, start))
	}

	if err := cmd.Start(); err != nil {
		return r.finish(r.spawnFailure(err, start))
	}
	if r.onStarted != nil {
		r.onStarted()
	}
	r.logger.Info("job started",
		zap.String("job_id", r.spec.ID),
		zap.String("kind", string(r.spec.Kind)),
		zap.Int("pid", cmd.Process.Pid))

	lineCh := make(chan outputLine, 64)
	var readers sync.WaitGroup
	readers.Add(2)
	go r.drain(stdout, domain.StreamStdout, lineCh, &readers)
	go r.drain(stderr, domain.StreamStderr, lineCh, &readers)
	go func() {
		readers.Wait()
		close(lineCh)
	}()

	var (
		stderrText []byte
		lastPct    = -1.0
		cancelled  bool
		timedOut   bool
	)

	timer := time.NewTimer(r.idleTimeout)
	defer timer.Stop()
	cancelCh := r.cancelCh
	timeoutCh := timer.C

	for lineCh != nil {
		select {
		case msg, ok := <-lineCh:
			if !ok {
				lineCh = nil
				continue
			}
			if !timedOut && !cancelled {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(r.idleTimeout)
			}
			stderrText = r.handleLine(msg, &lastPct, stderrText)

		case <-cancelCh:
			cancelled = true
			cancelCh = nil
			timeoutCh = nil
			r.publishRunnerLog("cancellation requested, terminating process")
			r.terminate(cmd)

		case <-timeoutCh:
			timedOut = true
			timeoutCh = nil
			cancelCh = nil
			r.publishRunnerLog(fmt.Sprintf("no output for %s, terminating process", r.idleTimeout))
			r.terminate(cmd)
		}
	}

	waitErr := cmd.Wait()
	close(r.exitedCh)

	result := r.classify(waitErr, cancelled, timedOut, string(stderrText), time.Since(start))
	return r.finish(result)
}

// drain reads one output stream line by line into the shared channel.
// Events from the same stream preserve source order.
func (r *jobRunner) drain(pipe io.Reader, stream domain.LogStream, lineCh chan<- outputLine, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lineCh <- outputLine{stream: stream, text: line}
	}
}

// handleLine parses one line into a progress or log event and mirrors
// it to the job log file. Returns the updated stderr accumulation.
func (r *jobRunner) handleLine(msg outputLine, lastPct *float64, stderrText []byte) []byte {
	if r.jobLog != nil {
		r.jobLog.WriteLine(string(msg.stream), msg.text)
	}

	if msg.stream == domain.StreamStderr {
		if len(stderrText) < stderrCap {
			stderrText = append(stderrText, msg.text...)
			stderrText = append(stderrText, '\n')
		}
		r.publish(domain.LogEvent{JobID: r.spec.ID, Stream: msg.stream, Line: msg.text, At: time.Now()})
		return stderrText
	}

	ev, ok := infrastructure.ParseProgressLine(r.spec.ID, msg.text)
	if !ok {
		// unmatched lines become log events, never silently dropped
		r.publish(domain.LogEvent{JobID: r.spec.ID, Stream: msg.stream, Line: msg.text, At: time.Now()})
		return stderrText
	}

	if ev.Percent < *lastPct {
		// tool output noise; suppress so percentages stay non-decreasing
		r.logger.Debug("suppressing regressive progress",
			zap.String("job_id", r.spec.ID),
			zap.Float64("percent", ev.Percent),
			zap.Float64("last", *lastPct))
		return stderrText
	}
	*lastPct = ev.Percent
	r.publish(ev)
	return stderrText
}

// terminate asks the process to exit and force-kills it after the
// grace period if it has not.
func (r *jobRunner) terminate(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = cmd.Process.Kill()
		return
	}
	go func() {
		select {
		case <-r.exitedCh:
		case <-time.After(r.gracePeriod):
			r.logger.Warn("process ignored termination signal, killing",
				zap.String("job_id", r.spec.ID))
			_ = cmd.Process.Kill()
		}
	}()
}

// classify maps the process outcome to the job's terminal result.
func (r *jobRunner) classify(waitErr error, cancelled, timedOut bool, stderr string, elapsed time.Duration) domain.JobResult {
	result := domain.JobResult{JobID: r.spec.ID, Elapsed: elapsed}

	switch {
	case cancelled:
		result.Status = domain.StatusCancelled
		result.Message = "cancelled by caller"

	case timedOut:
		result.Status = domain.StatusTimedOut
		result.Failure = domain.FailureTimeout
		result.Message = fmt.Sprintf("no output within %s", r.idleTimeout)

	case waitErr != nil:
		result.Status = domain.StatusFailed
		result.Failure, result.Message = infrastructure.ClassifyStderr(stderr)

	default:
		// exit 0 is not enough: the tool can report success while
		// producing no file, and that is a failed job
		if info, err := os.Stat(r.spec.Destination); err != nil || info.Size() == 0 {
			result.Status = domain.StatusFailed
			result.Failure = domain.FailureArtifactMissing
			result.Message = "process reported success but produced no output file"
		} else {
			result.Status = domain.StatusSucceeded
			result.ArtifactPath = r.spec.Destination
		}
	}

	return result
}

// spawnFailure builds the terminal result for a process that never ran.
func (r *jobRunner) spawnFailure(err error, start time.Time) domain.JobResult {
	r.logger.Error("failed to spawn external tool",
		zap.String("job_id", r.spec.ID),
		zap.String("binary", r.argv[0]),
		zap.Error(err))
	return domain.JobResult{
		JobID:   r.spec.ID,
		Status:  domain.StatusFailed,
		Failure: domain.FailureSpawn,
		Message: fmt.Sprintf("could not start %s: %v", r.argv[0], err),
		Elapsed: time.Since(start),
	}
}

// finish publishes the result as the job's last event and closes the
// job log file.
func (r *jobRunner) finish(result domain.JobResult) domain.JobResult {
	if r.jobLog != nil {
		r.jobLog.Close(result.Succeeded(), result.Message)
	}
	r.logger.Info("job finished",
		zap.String("job_id", r.spec.ID),
		zap.String("status", string(result.Status)),
		zap.String("failure", string(result.Failure)),
		zap.Duration("elapsed", result.Elapsed))
	r.publish(domain.ResultEvent{Result: result})
	return result
}

func (r *jobRunner) publish(ev domain.Event) {
	if r.hub != nil {
		r.hub.Publish(ev)
	}
}

func (r *jobRunner) publishRunnerLog(line string) {
	r.publish(domain.LogEvent{
		JobID:  r.spec.ID,
		Stream: domain.StreamRunner,
		Line:   line,
		At:     time.Now(),
	})
}
