package app

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tubescribe/internal/domain"
)

// Hub is the ordered, back-pressured conduit between one slot's job
// runner and its subscribers. Publishing happens from the runner
// goroutine, never the caller's control thread, so blocking here never
// blocks a caller.
//
// Backpressure policy: each subscriber has a bounded buffer. Log events
// are dropped when a subscriber's buffer is full; progress and result
// events are never dropped — a subscriber that stays full past the send
// deadline is evicted instead, so the runner cannot be wedged forever.
type Hub struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	bufSize  int
	deadline time.Duration
	logger   *zap.Logger
}

// Subscription is one consumer's view of a slot's event stream. The
// channel is closed when the subscriber unsubscribes or is evicted.
type Subscription struct {
	ch      chan domain.Event
	closed  bool
	dropped int64
}

// Events returns the receive side of the subscription.
func (s *Subscription) Events() <-chan domain.Event {
	return s.ch
}

// Dropped returns how many log events were discarded for this subscriber.
func (s *Subscription) Dropped() int64 {
	return s.dropped
}

// NewHub creates an event hub for one slot.
func NewHub(bufSize int, deadline time.Duration, logger *zap.Logger) *Hub {
	if bufSize <= 0 {
		bufSize = 256
	}
	if deadline <= 0 {
		deadline = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:     make(map[*Subscription]struct{}),
		bufSize:  bufSize,
		deadline: deadline,
		logger:   logger,
	}
}

// Subscribe registers a new consumer. It observes the slot's current or
// next job from the moment of subscription.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan domain.Event, h.bufSize)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a consumer and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

// remove must be called with the lock held.
func (h *Hub) remove(sub *Subscription) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	sub.closed = true
	close(sub.ch)
}

// Publish fans an event out to all subscribers in source order. The
// lock is held across the fan-out so Unsubscribe can never close a
// channel mid-send.
func (h *Hub) Publish(ev domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- ev:
			continue
		default:
		}

		// Buffer full. Log lines are droppable; progress and results
		// must reach the subscriber or the subscriber goes.
		if ev.Type() == domain.EventLog {
			sub.dropped++
			continue
		}

		timer := time.NewTimer(h.deadline)
		select {
		case sub.ch <- ev:
			timer.Stop()
		case <-timer.C:
			h.logger.Warn("evicting slow event subscriber",
				zap.String("event_type", string(ev.Type())),
				zap.String("job_id", ev.Job()))
			h.remove(sub)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
