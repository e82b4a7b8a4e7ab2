package bot

import (
	"testing"

	"github.com/tmatv/minder/internal/action"
)

func TestNormalizeCommand(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/start", "/start"},
		{"  /HELP  ", "/help"},
		{"/remind@minderbot walk the dog", "/remind"},
		{"hello", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeCommand(tc.in); got != tc.want {
			t.Errorf("NormalizeCommand(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveTextRoute(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", RouteEmpty},
		{"   ", RouteEmpty},
		{"/menu", RouteCommand},
		{"❓ Help", RouteMenu},
		{"cancel it", RouteChat},
	}
	for _, tc := range cases {
		if got := ResolveTextRoute(tc.in); got != tc.want {
			t.Errorf("ResolveTextRoute(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMenuActionsEncodeStatically(t *testing.T) {
	for _, a := range MenuActions() {
		data, ok := action.StaticCallbackData(a)
		if !ok {
			t.Errorf("menu action %s has no static encoding", a.ID)
			continue
		}
		if len(data) > action.MaxCallbackBytes {
			t.Errorf("menu action %s data %q exceeds %d bytes", a.ID, data, action.MaxCallbackBytes)
		}
	}
}

func TestTimezoneByIndex(t *testing.T) {
	if name, ok := TimezoneByIndex(0); !ok || name != "Europe/Moscow" {
		t.Errorf("index 0 = %q, %t", name, ok)
	}
	if _, ok := TimezoneByIndex(len(TimezoneOptions)); ok {
		t.Error("out-of-range index accepted")
	}
	if _, ok := TimezoneByIndex(-1); ok {
		t.Error("negative index accepted")
	}
}

func TestTimezoneActionsRoundTrip(t *testing.T) {
	for i, a := range TimezoneActions() {
		data, ok := action.StaticCallbackData(a)
		if !ok {
			t.Fatalf("timezone action %d has no static encoding", i)
		}
		decoded, ok := action.DecodeStatic(data)
		if !ok {
			t.Fatalf("timezone data %q does not decode", data)
		}
		if got := decoded.Payload["index"]; got != i {
			t.Errorf("decoded index = %v, want %d", got, i)
		}
	}
}
