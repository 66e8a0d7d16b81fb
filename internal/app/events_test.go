package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tubescribe/internal/domain"
)

func progressEvent(jobID string, pct float64) domain.ProgressEvent {
	return domain.ProgressEvent{JobID: jobID, Percent: pct}
}

func logEvent(jobID, line string) domain.LogEvent {
	return domain.LogEvent{JobID: jobID, Stream: domain.StreamStdout, Line: line, At: time.Now()}
}

func TestHub_PublishPreservesOrder(t *testing.T) {
	hub := NewHub(16, time.Second, nil)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	hub.Publish(logEvent("j1", "starting"))
	hub.Publish(progressEvent("j1", 10))
	hub.Publish(progressEvent("j1", 50))
	hub.Publish(domain.ResultEvent{Result: domain.JobResult{JobID: "j1", Status: domain.StatusSucceeded}})

	assert.Equal(t, domain.EventLog, (<-sub.Events()).Type())
	assert.Equal(t, domain.EventProgress, (<-sub.Events()).Type())
	assert.Equal(t, domain.EventProgress, (<-sub.Events()).Type())
	assert.Equal(t, domain.EventResult, (<-sub.Events()).Type())
}

func TestHub_MultipleSubscribersSeeSameEvents(t *testing.T) {
	hub := NewHub(16, time.Second, nil)
	a := hub.Subscribe()
	b := hub.Subscribe()
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Publish(progressEvent("j1", 42))

	evA := <-a.Events()
	evB := <-b.Events()
	assert.Equal(t, evA, evB)
}

func TestHub_FullBufferDropsLogEvents(t *testing.T) {
	hub := NewHub(1, time.Second, nil)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	hub.Publish(logEvent("j1", "fills the buffer"))
	hub.Publish(logEvent("j1", "dropped"))
	hub.Publish(logEvent("j1", "also dropped"))

	assert.Equal(t, int64(2), sub.Dropped())
	ev := <-sub.Events()
	assert.Equal(t, "fills the buffer", ev.(domain.LogEvent).Line)
}

func TestHub_SlowSubscriberEvictedOnProgress(t *testing.T) {
	hub := NewHub(1, 20*time.Millisecond, nil)
	sub := hub.Subscribe()

	hub.Publish(progressEvent("j1", 1))
	// Buffer is full and nobody is reading: the subscriber must be
	// evicted rather than dropping the progress event.
	hub.Publish(progressEvent("j1", 2))

	assert.Equal(t, 0, hub.SubscriberCount())

	// Channel drains the buffered event, then reports closed.
	<-sub.Events()
	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(4, time.Second, nil)
	sub := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-sub.Events()
	assert.False(t, open)

	// Unsubscribing twice is harmless
	hub.Unsubscribe(sub)
}

func TestHub_PublishWithNoSubscribers(t *testing.T) {
	hub := NewHub(4, time.Second, nil)
	// Must not block or panic
	hub.Publish(progressEvent("j1", 10))
	hub.Publish(domain.ResultEvent{Result: domain.JobResult{JobID: "j1", Status: domain.StatusFailed}})
}
