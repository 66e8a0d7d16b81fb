package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tubescribe/internal/domain"
	"github.com/yourusername/tubescribe/internal/infrastructure"
)

// JobHandle is the orchestrator's live handle to a running job. It is
// owned exclusively by the orchestrator; no other component touches the
// child process.
type JobHandle struct {
	ID        string
	Slot      domain.Slot
	Spec      domain.JobSpec
	StartedAt time.Time

	runner *jobRunner
	done   chan struct{}

	mu     sync.Mutex
	result domain.JobResult
}

// Done is closed when the job reaches a terminal state.
func (h *JobHandle) Done() <-chan struct{} {
	return h.done
}

// Result returns the terminal result. Valid only after Done is closed.
func (h *JobHandle) Result() domain.JobResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

func (h *JobHandle) setResult(r domain.JobResult) {
	h.mu.Lock()
	h.result = r
	h.mu.Unlock()
}

// SlotStatus describes a slot for status queries.
type SlotStatus struct {
	Slot      domain.Slot    `json:"slot"`
	Busy      bool           `json:"busy"`
	JobID     string         `json:"job_id,omitempty"`
	Kind      domain.JobKind `json:"kind,omitempty"`
	Target    string         `json:"target,omitempty"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
}

// Orchestrator manages at most one running job per slot. The chosen
// concurrency policy is reject-new: starting on a busy slot fails with
// ErrAlreadyRunning and leaves the running job untouched. Retry is a
// caller-initiated new Start; the orchestrator never retries on its own.
type Orchestrator struct {
	builder  domain.CommandBuilder
	repo     domain.JobRepository // optional history recording
	notifier *infrastructure.NotificationService
	config   domain.JobsConfig
	logger   *zap.Logger

	mu    sync.Mutex
	slots map[domain.Slot]*JobHandle
	hubs  map[domain.Slot]*Hub
	wg    sync.WaitGroup
}

// NewOrchestrator creates an orchestrator with one hub per slot.
func NewOrchestrator(
	builder domain.CommandBuilder,
	repo domain.JobRepository,
	notifier *infrastructure.NotificationService,
	config domain.JobsConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		builder:  builder,
		repo:     repo,
		notifier: notifier,
		config:   config,
		logger:   logger,
		slots:    make(map[domain.Slot]*JobHandle),
		hubs:     make(map[domain.Slot]*Hub),
	}
	for _, slot := range []domain.Slot{domain.SlotDownload, domain.SlotTranscription} {
		o.hubs[slot] = NewHub(config.EventBufferSize, config.SubscriberDeadline, logger)
	}
	return o
}

// Start launches a job on the slot. It fails fast, before any process
// is spawned, on an invalid spec or a busy slot. The caller is never
// blocked by the running job: completion arrives on the event stream.
func (o *Orchestrator) Start(slot domain.Slot, spec domain.JobSpec) (*JobHandle, error) {
	if !domain.ValidSlot(slot) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSlot, slot)
	}

	argv, err := o.builder.Build(spec)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if _, busy := o.slots[slot]; busy {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: slot %q", domain.ErrAlreadyRunning, slot)
	}

	record := domain.NewJobRecord(slot, spec)
	jobLog, logErr := infrastructure.OpenJobLog(o.config.LogsDir, spec.ID, argv)
	if logErr != nil {
		o.logger.Warn("job log unavailable", zap.Error(logErr))
		jobLog = nil
	}

	runner := newJobRunner(
		spec, argv, o.hubs[slot], o.logger, jobLog,
		o.config.TimeoutFor(spec.Kind), o.config.CancelGracePeriod,
		func() { o.markRunning(record) },
	)

	handle := &JobHandle{
		ID:        spec.ID,
		Slot:      slot,
		Spec:      spec,
		StartedAt: time.Now(),
		runner:    runner,
		done:      make(chan struct{}),
	}
	o.slots[slot] = handle
	o.mu.Unlock()

	if o.repo != nil {
		if err := o.repo.Create(record); err != nil {
			o.logger.Error("failed to record job start", zap.Error(err))
		}
	}
	if o.notifier != nil {
		o.notifier.NotifyJobStarted(slot, spec.Target)
	}
	o.logger.Info("starting job",
		zap.String("job_id", spec.ID),
		zap.String("slot", string(slot)),
		zap.String("kind", string(spec.Kind)),
		zap.String("target", spec.Target))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		result := runner.Run()
		o.settle(slot, handle, record, result)
	}()

	return handle, nil
}

// Cancel requests cancellation of the slot's running job. Cancelling an
// idle slot is a no-op, not an error. Cancel returns once the request
// is accepted; the terminal result is reported on the event stream.
// Repeated cancellations of the same job are no-ops.
func (o *Orchestrator) Cancel(slot domain.Slot) error {
	if !domain.ValidSlot(slot) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownSlot, slot)
	}

	o.mu.Lock()
	handle := o.slots[slot]
	o.mu.Unlock()

	if handle == nil {
		return nil
	}

	o.logger.Info("cancelling job",
		zap.String("job_id", handle.ID),
		zap.String("slot", string(slot)))
	handle.runner.Cancel()
	return nil
}

// Subscribe returns an event stream for the slot's current or next job.
// Multiple subscribers observe the same events; only the orchestrator
// mutates job state.
func (o *Orchestrator) Subscribe(slot domain.Slot) (*Subscription, error) {
	if !domain.ValidSlot(slot) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSlot, slot)
	}
	return o.hubs[slot].Subscribe(), nil
}

// Unsubscribe detaches a subscription from the slot's hub.
func (o *Orchestrator) Unsubscribe(slot domain.Slot, sub *Subscription) {
	if hub, ok := o.hubs[slot]; ok {
		hub.Unsubscribe(sub)
	}
}

// Status reports whether the slot is busy and with what.
func (o *Orchestrator) Status(slot domain.Slot) (SlotStatus, error) {
	if !domain.ValidSlot(slot) {
		return SlotStatus{}, fmt.Errorf("%w: %q", domain.ErrUnknownSlot, slot)
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	status := SlotStatus{Slot: slot}
	if handle, busy := o.slots[slot]; busy {
		started := handle.StartedAt
		status.Busy = true
		status.JobID = handle.ID
		status.Kind = handle.Spec.Kind
		status.Target = handle.Spec.Target
		status.StartedAt = &started
	}
	return status, nil
}

// Shutdown cancels all running jobs and waits for them to settle, or
// until the context expires.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	for _, handle := range o.slots {
		handle.runner.Cancel()
	}
	o.mu.Unlock()

	settled := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(settled)
	}()

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// markRunning records the Starting -> Running transition.
func (o *Orchestrator) markRunning(record *domain.JobRecord) {
	record.MarkRunning()
	if o.repo != nil {
		if err := o.repo.Update(record); err != nil {
			o.logger.Error("failed to record job running", zap.Error(err))
		}
	}
}

// settle finalizes bookkeeping once a job reaches a terminal state. The
// handle is destroyed here: the slot frees only after the result has
// been published.
func (o *Orchestrator) settle(slot domain.Slot, handle *JobHandle, record *domain.JobRecord, result domain.JobResult) {
	record.MarkFinished(result)
	if o.repo != nil {
		if err := o.repo.Update(record); err != nil {
			o.logger.Error("failed to record job result", zap.Error(err))
		}
	}

	if o.notifier != nil {
		if result.Succeeded() {
			o.notifier.NotifyJobSucceeded(slot, result.ArtifactPath)
		} else {
			o.notifier.NotifyJobFailed(slot, result)
		}
	}

	o.mu.Lock()
	if o.slots[slot] == handle {
		delete(o.slots, slot)
	}
	o.mu.Unlock()

	handle.setResult(result)
	close(handle.done)
}
