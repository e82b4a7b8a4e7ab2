package reminder

import (
	"errors"
	"testing"
	"time"
)

func TestFireDueDeliversAndMarks(t *testing.T) {
	s, now := openTestStore(t)
	r, _ := s.Add(1, 2, "stretch", now.Add(-time.Minute))

	var fired []string
	sched := NewScheduler(s, func(r *Reminder) error {
		fired = append(fired, r.ID)
		return nil
	}, SchedulerConfig{})

	sched.fireDue(*now)
	if len(fired) != 1 || fired[0] != r.ID {
		t.Fatalf("fired = %v", fired)
	}

	// second poll is a no-op; the reminder was marked fired
	sched.fireDue(*now)
	if len(fired) != 1 {
		t.Errorf("reminder fired twice: %v", fired)
	}
}

func TestFireDueRetriesOnError(t *testing.T) {
	s, now := openTestStore(t)
	s.Add(1, 2, "flaky", now.Add(-time.Minute))

	attempts := 0
	sched := NewScheduler(s, func(r *Reminder) error {
		attempts++
		if attempts == 1 {
			return errors.New("transport down")
		}
		return nil
	}, SchedulerConfig{})

	sched.fireDue(*now)
	sched.fireDue(*now)
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (failed delivery left reminder due)", attempts)
	}
	sched.fireDue(*now)
	if attempts != 2 {
		t.Errorf("reminder re-fired after success: attempts = %d", attempts)
	}
}

func TestValidateTrigger(t *testing.T) {
	s, now := openTestStore(t)
	sched := NewScheduler(s, func(r *Reminder) error { return nil }, SchedulerConfig{MaxFutureDays: 30})

	if !sched.ValidateTrigger(now.AddDate(0, 0, 29), *now) {
		t.Error("trigger inside the bound rejected")
	}
	if sched.ValidateTrigger(now.AddDate(0, 0, 31), *now) {
		t.Error("trigger past the bound accepted")
	}
	if !sched.ValidateTrigger(now.Add(-time.Hour), *now) {
		t.Error("past trigger rejected; it should fire on the next poll")
	}
}
