package recurrence

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		text  string
		want  Scope
		match bool
	}{
		{"only this time", ScopeThis, true},
		{"just today please", ScopeThis, true},
		{"just this once", ScopeThis, true},
		{"the whole series", ScopeAll, true},
		{"always", ScopeAll, true},
		{"delete all of them", ScopeAll, true},
		{"every", ScopeAll, true},
		{"starting from next week", ScopeFuture, true},
		{"from next time", ScopeFuture, true},
		{"going forward", ScopeFuture, true},
		{"hello", "", false},
		{"", "", false},
		{"tall tales", "", false}, // "all" inside a word doesn't count
	}

	for _, c := range cases {
		got, ok := Parse(c.text)
		if ok != c.match || got != c.want {
			t.Errorf("Parse(%q) = (%q, %v), want (%q, %v)", c.text, got, ok, c.want, c.match)
		}
	}
}

func TestParseFirstCategoryWins(t *testing.T) {
	// THIS phrases take precedence over an ALL word in the same text
	got, ok := Parse("only this one, not all")
	if !ok || got != ScopeThis {
		t.Errorf("expected THIS, got (%q, %v)", got, ok)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		value string
		want  Scope
		match bool
	}{
		{"THIS", ScopeThis, true},
		{"this", ScopeThis, true},
		{" All ", ScopeAll, true},
		{"Future", ScopeFuture, true},
		{"never", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		got, ok := Normalize(c.value)
		if ok != c.match || got != c.want {
			t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", c.value, got, ok, c.want, c.match)
		}
	}
}
