package action

import (
	"strings"
	"testing"
)

func TestBuildKeyboardLayout(t *testing.T) {
	s, _ := testStore(StoreConfig{})
	actions := []Action{
		{ID: "a", Label: "A", Payload: map[string]any{"op": OpMenuOpen}},
		{ID: "b", Label: "B", Payload: map[string]any{"op": OpMenuCancel}},
		{ID: "c", Label: "C", Payload: map[string]any{"op": OpMenuSection, "section": "chat"}},
	}

	kb := BuildKeyboard(actions, s, 1, 2, 2)
	if kb == nil {
		t.Fatal("keyboard is nil")
	}
	if len(kb.Rows) != 2 || len(kb.Rows[0]) != 2 || len(kb.Rows[1]) != 1 {
		t.Fatalf("unexpected layout: %d rows", len(kb.Rows))
	}
	if kb.Rows[0][0].Data != "cb:menu:open" {
		t.Errorf("first button data = %q", kb.Rows[0][0].Data)
	}
}

func TestBuildKeyboardStaticSkipsStore(t *testing.T) {
	s, _ := testStore(StoreConfig{})
	catalogued := []Action{{ID: "m", Label: "Menu", Payload: map[string]any{"op": OpMenuOpen}}}
	BuildKeyboard(catalogued, s, 1, 2, 1)
	if len(s.items) != 0 {
		t.Errorf("catalogued action consumed %d store slots", len(s.items))
	}

	dynamic := []Action{{ID: "d", Label: "Dyn", Payload: map[string]any{"event_id": "evt-1"}}}
	kb := BuildKeyboard(dynamic, s, 1, 2, 1)
	if len(s.items) != 1 {
		t.Errorf("dynamic action consumed %d store slots, want 1", len(s.items))
	}
	if !strings.HasPrefix(kb.Rows[0][0].Data, CallbackPrefix) {
		t.Errorf("dynamic button data %q lacks token prefix", kb.Rows[0][0].Data)
	}
}

func TestBuildKeyboardDropsOversized(t *testing.T) {
	s, _ := testStore(StoreConfig{MaxPayloadBytes: 32})
	actions := []Action{
		{ID: "big", Label: "Big", Payload: map[string]any{"blob": strings.Repeat("x", 64)}},
		// static identifier longer than 64 bytes once encoded
		{ID: "long", Label: "Long", Payload: map[string]any{"op": OpMenuSection, "section": strings.Repeat("s", 80)}},
		{ID: "ok", Label: "OK", Payload: map[string]any{"op": OpMenuOpen}},
	}

	kb := BuildKeyboard(actions, s, 1, 2, 2)
	if kb == nil {
		t.Fatal("keyboard is nil")
	}
	if len(kb.Rows) != 1 || len(kb.Rows[0]) != 1 {
		t.Fatalf("expected single surviving button, got %v", kb.Rows)
	}
	if kb.Rows[0][0].Label != "OK" {
		t.Errorf("surviving button = %q, want OK", kb.Rows[0][0].Label)
	}
}

func TestBuildKeyboardEmpty(t *testing.T) {
	s, _ := testStore(StoreConfig{})
	if kb := BuildKeyboard(nil, s, 1, 2, 2); kb != nil {
		t.Error("expected nil keyboard for no actions")
	}

	// all actions unusable is also nil, distinguished upstream by len(actions)
	s2, _ := testStore(StoreConfig{MaxPayloadBytes: 8})
	unusable := []Action{{ID: "big", Payload: map[string]any{"blob": strings.Repeat("x", 64)}}}
	if kb := BuildKeyboard(unusable, s2, 1, 2, 2); kb != nil {
		t.Error("expected nil keyboard when every action was dropped")
	}
}
