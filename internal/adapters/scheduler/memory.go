// Package scheduler provides the in-memory day-keyed event scheduler the
// triggerEvent effect delegates to.
package scheduler

import (
	"sort"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/infrastructure/logging"
)

// FireFunc handles a fired event. The simulation host wires this to the
// engine's passive-trigger path.
type FireFunc func(eventID string, payload map[string]any)

// scheduledEvent is one queued event.
type scheduledEvent struct {
	EventID string
	DueDay  int
	Payload map[string]any
}

// MemoryScheduler queues events by due day and fires them as the day counter
// advances. It is single-threaded like the rest of the engine.
type MemoryScheduler struct {
	fire    FireFunc
	pending []scheduledEvent
	log     *logging.Logger
}

// New creates a scheduler that dispatches through fire.
func New(fire FireFunc, log *logging.Logger) *MemoryScheduler {
	if log == nil {
		log = logging.Default()
	}
	return &MemoryScheduler{fire: fire, log: log}
}

// FireNow dispatches an event immediately.
func (s *MemoryScheduler) FireNow(eventID string, payload map[string]any) {
	s.log.Debug("event fired", "event", eventID)
	if s.fire != nil {
		s.fire(eventID, payload)
	}
}

// Schedule queues an event for the given absolute day.
func (s *MemoryScheduler) Schedule(eventID string, dueDay int, payload map[string]any) {
	s.pending = append(s.pending, scheduledEvent{EventID: eventID, DueDay: dueDay, Payload: payload})
	s.log.Debug("event scheduled", "event", eventID, "due_day", dueDay)
}

// FireDue dispatches every event due on or before the given day, in due-day
// order, and removes them from the queue. Returns the number fired.
func (s *MemoryScheduler) FireDue(day int) int {
	var due []scheduledEvent
	var remaining []scheduledEvent
	for _, ev := range s.pending {
		if ev.DueDay <= day {
			due = append(due, ev)
		} else {
			remaining = append(remaining, ev)
		}
	}
	s.pending = remaining

	sort.SliceStable(due, func(i, j int) bool { return due[i].DueDay < due[j].DueDay })
	for _, ev := range due {
		s.FireNow(ev.EventID, ev.Payload)
	}
	return len(due)
}

// PendingCount returns the number of queued events.
func (s *MemoryScheduler) PendingCount() int {
	return len(s.pending)
}

// Ensure MemoryScheduler implements the port.
var _ ports.EventScheduler = (*MemoryScheduler)(nil)
