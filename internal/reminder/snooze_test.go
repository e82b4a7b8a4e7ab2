package reminder

import (
	"testing"

	"github.com/tmatv/minder/internal/action"
)

func TestSnoozeActionsEncodeStatically(t *testing.T) {
	actions := SnoozeActions("rem-abc123")
	if len(actions) != len(SnoozePresetMinutes)+1 {
		t.Fatalf("got %d actions", len(actions))
	}

	data, ok := action.StaticCallbackData(actions[0])
	if !ok {
		t.Fatal("first snooze action not statically encodable")
	}
	if data != "cb:REM:SNOOZE:5:rem-abc123" {
		t.Errorf("data = %q", data)
	}

	// every snooze button must survive a restart, i.e. need no store entry
	for _, a := range actions {
		if _, ok := action.StaticCallbackData(a); !ok {
			t.Errorf("action %s not in static catalogue", a.ID)
		}
	}
}

func TestPresetLabels(t *testing.T) {
	if got := presetLabel(15); got != "15 min" {
		t.Errorf("presetLabel(15) = %q", got)
	}
	if got := presetLabel(60); got != "1 hour" {
		t.Errorf("presetLabel(60) = %q", got)
	}
}
