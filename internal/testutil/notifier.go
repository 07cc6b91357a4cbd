package testutil

import (
	"sync"

	"ovc-go/internal/ovc"
)

// RecordingNotifier remembers every alert event it is given.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []ovc.AlertEvent
}

var _ ovc.Notifier = (*RecordingNotifier)(nil)

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) AlertsChanged(event ovc.AlertEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// Events returns a copy of the recorded events in arrival order.
func (n *RecordingNotifier) Events() []ovc.AlertEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ovc.AlertEvent, len(n.events))
	copy(out, n.events)
	return out
}
