package laststate

import (
	"testing"

	"github.com/tmatv/minder/internal/recurrence"
)

func TestResolveEmpty(t *testing.T) {
	r := Resolve("", &State{LastEventID: "evt-1"})
	if r.Status != StatusSkip || r.Reason != "empty" {
		t.Errorf("got %+v, want skip/empty", r)
	}
	r = Resolve("   ", nil)
	if r.Status != StatusSkip || r.Reason != "empty" {
		t.Errorf("whitespace: got %+v, want skip/empty", r)
	}
}

func TestResolveMoveTomorrow(t *testing.T) {
	r := Resolve("move it to tomorrow", &State{LastEventID: "evt-1"})
	if r.Status != StatusMatched || r.Action != ActionMoveTomorrow {
		t.Fatalf("got %+v", r)
	}
	if r.Target != "event" || r.TargetID != "evt-1" || r.MatchedRef != "last_event_id" {
		t.Errorf("target fields wrong: %+v", r)
	}
}

func TestResolveMoveTomorrowWithoutEvent(t *testing.T) {
	r := Resolve("move it to tomorrow", &State{})
	if r.Status != StatusFallback || r.Reason != "missing_last_event" || r.Action != ActionMoveTomorrow {
		t.Errorf("got %+v", r)
	}
}

func TestResolveMoveAlwaysFallsBack(t *testing.T) {
	// no last-state field can supply a target date
	r := Resolve("move it", &State{LastEventID: "evt-1"})
	if r.Status != StatusFallback || r.Reason != "missing_date" || r.Action != ActionMove {
		t.Errorf("got %+v", r)
	}
}

func TestResolveCancelPrefersReminder(t *testing.T) {
	r := Resolve("cancel it", &State{LastReminderID: "rem-1", LastEventID: "evt-9"})
	if r.Status != StatusMatched || r.Action != ActionCancel {
		t.Fatalf("got %+v", r)
	}
	if r.Target != "reminder" || r.TargetID != "rem-1" || r.MatchedRef != "last_reminder_id" {
		t.Errorf("reminder should win over event: %+v", r)
	}
}

func TestResolveCancelFallsBackToEvent(t *testing.T) {
	r := Resolve("cancel it", &State{LastEventID: "evt-9"})
	if r.Status != StatusMatched || r.Target != "event" || r.TargetID != "evt-9" {
		t.Errorf("got %+v", r)
	}

	r = Resolve("cancel it", &State{})
	if r.Status != StatusFallback || r.Reason != "missing_last_target" {
		t.Errorf("neither ref: got %+v", r)
	}
}

func TestResolveWithoutLastState(t *testing.T) {
	r := Resolve("cancel it", nil)
	if r.Status != StatusFallback || r.Reason != "missing_last_state" || r.Action != ActionCancel {
		t.Errorf("got %+v", r)
	}
}

func TestResolveRepeatSearch(t *testing.T) {
	r := Resolve("do it like last time", &State{LastQuery: "pizza"})
	if r.Status != StatusMatched || r.Action != ActionRepeatSearch {
		t.Fatalf("got %+v", r)
	}
	if r.Target != "search" || r.Query != "pizza" || r.MatchedRef != "last_query" {
		t.Errorf("query fields wrong: %+v", r)
	}

	r = Resolve("repeat that", &State{})
	if r.Status != StatusFallback || r.Reason != "missing_last_query" {
		t.Errorf("no query: got %+v", r)
	}
}

func TestResolveSkipsLongUnrelatedText(t *testing.T) {
	r := Resolve("could you please add a dentist appointment for next thursday morning", &State{LastEventID: "evt-1"})
	if r.Status != StatusSkip || r.Reason != "not_short" {
		t.Errorf("got %+v", r)
	}
}

func TestResolveShortButNoAction(t *testing.T) {
	r := Resolve("hello there", &State{LastEventID: "evt-1"})
	if r.Status != StatusSkip || r.Reason != "no_action_match" {
		t.Errorf("got %+v", r)
	}
}

func TestResolveTriggerWordBeatsLength(t *testing.T) {
	// longer than five words, but "cancel" is a trigger
	r := Resolve("please just go ahead and cancel it for me thanks", &State{LastReminderID: "rem-1"})
	if r.Status != StatusMatched || r.TargetID != "rem-1" {
		t.Errorf("got %+v", r)
	}
}

func TestResolveThreadsScope(t *testing.T) {
	r := Resolve("cancel it, only this time", &State{LastReminderID: "rem-1"})
	if r.Status != StatusMatched || r.Scope != recurrence.ScopeThis {
		t.Errorf("got %+v, want matched with THIS scope", r)
	}

	// scope rides along even on a fallback
	r = Resolve("cancel it going forward", nil)
	if r.Status != StatusFallback || r.Scope != recurrence.ScopeFuture {
		t.Errorf("got %+v, want fallback with FUTURE scope", r)
	}
}
