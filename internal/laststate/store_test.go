package laststate

import (
	"testing"
	"time"
)

func testStore(ttl time.Duration) (*Store, *time.Time) {
	s := NewStore(ttl)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestStickyFields(t *testing.T) {
	s, _ := testStore(0)

	s.Set(1, 2, Update{EventID: "evt-1"})
	s.Set(1, 2, Update{Query: "sushi"})

	state, ok := s.Get(1, 2)
	if !ok {
		t.Fatal("record absent")
	}
	if state.LastEventID != "evt-1" {
		t.Errorf("LastEventID = %q, want evt-1 (partial update cleared it)", state.LastEventID)
	}
	if state.LastQuery != "sushi" {
		t.Errorf("LastQuery = %q, want sushi", state.LastQuery)
	}
}

func TestBlankFieldsPreserve(t *testing.T) {
	s, _ := testStore(0)
	s.Set(1, 2, Update{Intent: "calendar.add", ReminderID: "rem-1"})
	s.Set(1, 2, Update{Intent: "  ", ReminderID: ""})

	state, _ := s.Get(1, 2)
	if state.LastIntent != "calendar.add" || state.LastReminderID != "rem-1" {
		t.Errorf("blank update overwrote fields: %+v", state)
	}
}

func TestOverwrite(t *testing.T) {
	s, _ := testStore(0)
	s.Set(1, 2, Update{EventID: "evt-1"})
	s.Set(1, 2, Update{EventID: "evt-2"})

	state, _ := s.Get(1, 2)
	if state.LastEventID != "evt-2" {
		t.Errorf("LastEventID = %q, want evt-2", state.LastEventID)
	}
}

func TestUpdatedAtAlwaysStamped(t *testing.T) {
	s, now := testStore(0)
	s.Set(1, 2, Update{EventID: "evt-1"})
	first, _ := s.Get(1, 2)
	firstStamp := first.UpdatedAt

	*now = now.Add(time.Hour)
	s.Set(1, 2, Update{}) // no fields, still touches the record
	state, _ := s.Get(1, 2)
	if !state.UpdatedAt.After(firstStamp) {
		t.Error("UpdatedAt not refreshed by empty update")
	}
}

func TestTTLExpiry(t *testing.T) {
	s, now := testStore(time.Hour)
	s.Set(1, 2, Update{EventID: "evt-1"})

	*now = now.Add(59 * time.Minute)
	if _, ok := s.Get(1, 2); !ok {
		t.Error("record gone before TTL")
	}

	*now = now.Add(2 * time.Minute)
	if _, ok := s.Get(1, 2); ok {
		t.Error("record alive past TTL")
	}
	// purged on that check, stays gone even if the clock rewinds
	*now = now.Add(-2 * time.Minute)
	if _, ok := s.Get(1, 2); ok {
		t.Error("purged record came back")
	}
}

func TestPairsAreIndependent(t *testing.T) {
	s, _ := testStore(0)
	s.Set(1, 2, Update{EventID: "evt-1"})
	s.Set(1, 3, Update{EventID: "evt-9"})

	a, _ := s.Get(1, 2)
	b, _ := s.Get(1, 3)
	if a.LastEventID != "evt-1" || b.LastEventID != "evt-9" {
		t.Errorf("records bled across pairs: %q / %q", a.LastEventID, b.LastEventID)
	}
	if _, ok := s.Get(2, 2); ok {
		t.Error("record found for unknown chat")
	}
}
