package action

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func testStore(cfg StoreConfig) (*Store, *time.Time) {
	s := NewStore(cfg)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s, _ := testStore(StoreConfig{})

	a := Action{ID: "calendar.move", Label: "Move", Payload: map[string]any{"event_id": "evt-1"}}
	token, err := s.Put(a, 10, 20)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(token) != 11 {
		t.Errorf("expected 11-char token, got %q (%d chars)", token, len(token))
	}

	stored, ok := s.Get(10, 20, token)
	if !ok {
		t.Fatal("Get returned absent for freshly stored action")
	}
	if stored.Intent != "calendar.move" {
		t.Errorf("intent = %q, want calendar.move", stored.Intent)
	}
	if stored.Payload["event_id"] != "evt-1" {
		t.Errorf("payload event_id = %v, want evt-1", stored.Payload["event_id"])
	}
}

func TestStoreOwnerScoping(t *testing.T) {
	s, _ := testStore(StoreConfig{})
	token, err := s.Put(Action{ID: "x"}, 10, 20)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, ok := s.Get(11, 20, token); ok {
		t.Error("Get succeeded for wrong user")
	}
	if _, ok := s.Get(10, 21, token); ok {
		t.Error("Get succeeded for wrong chat")
	}
	if lk := s.Resolve(11, 20, token); lk.Status != LookupMismatch {
		t.Errorf("Resolve status = %q, want mismatch", lk.Status)
	}
}

func TestStoreTTLBoundary(t *testing.T) {
	s, now := testStore(StoreConfig{TTL: 900 * time.Second})
	token, err := s.Put(Action{ID: "x"}, 1, 2)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	*now = now.Add(900*time.Second - time.Millisecond)
	if _, ok := s.Get(1, 2, token); !ok {
		t.Error("Get failed just before TTL")
	}

	*now = now.Add(2 * time.Millisecond)
	if _, ok := s.Get(1, 2, token); ok {
		t.Error("Get succeeded just after TTL")
	}
	// lazy expiry purged the entry, so a later Resolve reports missing
	if lk := s.Resolve(1, 2, token); lk.Status != LookupMissing {
		t.Errorf("Resolve after purge = %q, want missing", lk.Status)
	}
}

func TestStoreResolveExpired(t *testing.T) {
	s, now := testStore(StoreConfig{TTL: 10 * time.Second})
	token, err := s.Put(Action{ID: "x"}, 1, 2)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	*now = now.Add(11 * time.Second)
	// Resolve sweeps expired entries up front, so the entry is already
	// gone by the time the token is looked up.
	lk := s.Resolve(1, 2, token)
	if lk.Status != LookupMissing {
		t.Errorf("status = %q, want missing", lk.Status)
	}
	if lk.Action != nil {
		t.Error("expired lookup carried an action")
	}
}

func TestStorePayloadCeiling(t *testing.T) {
	s, _ := testStore(StoreConfig{MaxPayloadBytes: 64})
	big := Action{ID: "x", Payload: map[string]any{"blob": strings.Repeat("a", 100)}}
	if _, err := s.Put(big, 1, 2); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestStoreCapacityEvictsOldestFirst(t *testing.T) {
	s, now := testStore(StoreConfig{MaxItems: 5})

	tokens := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		*now = now.Add(time.Second)
		token, err := s.Put(Action{ID: fmt.Sprintf("a%d", i)}, 1, 2)
		if err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
		tokens = append(tokens, token)
	}

	// Cleanup runs before every operation and evicts oldest-created
	// entries until back under the cap: the 5 newest survive.
	for i, token := range tokens {
		_, ok := s.Get(1, 2, token)
		wantAlive := i >= 3
		if ok != wantAlive {
			t.Errorf("entry %d alive=%v, want %v", i, ok, wantAlive)
		}
	}
}

func TestStoreResolveAges(t *testing.T) {
	s, now := testStore(StoreConfig{TTL: 100 * time.Second})
	token, _ := s.Put(Action{ID: "x"}, 1, 2)

	*now = now.Add(40 * time.Second)
	lk := s.Resolve(1, 2, token)
	if lk.Status != LookupOK {
		t.Fatalf("status = %q, want ok", lk.Status)
	}
	if lk.Age != 40*time.Second {
		t.Errorf("age = %v, want 40s", lk.Age)
	}
	if lk.TTL != 100*time.Second {
		t.Errorf("ttl = %v, want 100s", lk.TTL)
	}
}
