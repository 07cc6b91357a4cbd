// Package notify fans alert change events out to in-process subscribers,
// such as the server-sent events stream of `ovc serve`.
package notify

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ovc-go/internal/ovc"
)

var eventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ovc_alert_events_dropped_total",
	Help: "Alert events dropped because a subscriber was not keeping up.",
})

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Broadcaster implements ovc.Notifier by copying every event to each
// subscriber. Publishing never blocks: a subscriber whose queue is full
// misses the event.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[uint64]chan ovc.AlertEvent
	nextID uint64
	buffer int
	closed bool
}

var _ ovc.Notifier = (*Broadcaster)(nil)

// NewBroadcaster creates a Broadcaster with the given per-subscriber buffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subs:   make(map[uint64]chan ovc.AlertEvent),
		buffer: buffer,
	}
}

// AlertsChanged publishes event to every subscriber.
func (b *Broadcaster) AlertsChanged(event ovc.AlertEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			eventsDroppedTotal.Inc()
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func unsubscribes
// and closes the channel; it is safe to call more than once. After Close
// the channel is returned already closed.
func (b *Broadcaster) Subscribe() (<-chan ovc.AlertEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan ovc.AlertEvent, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later events are dropped.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
}
