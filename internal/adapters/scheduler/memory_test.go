package scheduler

import "testing"

type firedEvent struct {
	id      string
	payload map[string]any
}

func newRecordingScheduler() (*MemoryScheduler, *[]firedEvent) {
	var fired []firedEvent
	s := New(func(eventID string, payload map[string]any) {
		fired = append(fired, firedEvent{id: eventID, payload: payload})
	}, nil)
	return s, &fired
}

func TestFireNow(t *testing.T) {
	s, fired := newRecordingScheduler()

	s.FireNow("epidemicStart", map[string]any{"severity": 2})
	if len(*fired) != 1 {
		t.Fatalf("expected 1 fired event, got %d", len(*fired))
	}
	if (*fired)[0].id != "epidemicStart" || (*fired)[0].payload["severity"] != 2 {
		t.Errorf("unexpected event: %+v", (*fired)[0])
	}
}

func TestFireDue_OrderAndRemoval(t *testing.T) {
	s, fired := newRecordingScheduler()

	s.Schedule("late", 7, nil)
	s.Schedule("early", 5, nil)
	s.Schedule("future", 9, nil)
	if s.PendingCount() != 3 {
		t.Fatalf("PendingCount = %d, want 3", s.PendingCount())
	}

	if n := s.FireDue(7); n != 2 {
		t.Fatalf("FireDue(7) = %d, want 2", n)
	}
	if len(*fired) != 2 || (*fired)[0].id != "early" || (*fired)[1].id != "late" {
		t.Errorf("events should fire in due-day order, got %+v", *fired)
	}
	if s.PendingCount() != 1 {
		t.Errorf("fired events should leave the queue, pending=%d", s.PendingCount())
	}

	// Already-fired events must not fire again.
	if n := s.FireDue(7); n != 0 {
		t.Errorf("second FireDue(7) = %d, want 0", n)
	}

	if n := s.FireDue(9); n != 1 {
		t.Errorf("FireDue(9) = %d, want 1", n)
	}
	if s.PendingCount() != 0 {
		t.Errorf("queue should be empty, pending=%d", s.PendingCount())
	}
}

func TestFireDue_PastDueFiresImmediately(t *testing.T) {
	s, fired := newRecordingScheduler()

	s.Schedule("overdue", 2, nil)
	if n := s.FireDue(10); n != 1 {
		t.Fatalf("FireDue(10) = %d, want 1", n)
	}
	if len(*fired) != 1 || (*fired)[0].id != "overdue" {
		t.Errorf("overdue event should fire, got %+v", *fired)
	}
}

func TestNilFireFuncIsSafe(t *testing.T) {
	s := New(nil, nil)
	s.Schedule("ev", 1, nil)
	s.FireNow("ev", nil)
	if n := s.FireDue(1); n != 1 {
		t.Errorf("FireDue should still drain the queue, got %d", n)
	}
}
