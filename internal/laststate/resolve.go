package laststate

import (
	"regexp"
	"strings"

	"github.com/tsawler/prose/v3"

	"github.com/tmatv/minder/internal/recurrence"
)

// Status of a resolution attempt. A fallback or skip is a normal
// outcome (ask a clarifying question, or handle the message the
// ordinary way), never an error.
type Status string

const (
	StatusMatched  Status = "matched"
	StatusFallback Status = "fallback"
	StatusSkip     Status = "skip"
)

// Continuable actions a short message can refer to.
const (
	ActionMove         = "move"
	ActionMoveTomorrow = "move_tomorrow"
	ActionCancel       = "cancel"
	ActionRepeatSearch = "repeat_search"
)

// Resolution describes which entity, if any, a short follow-up message
// refers to. Scope is "" when the text named no recurrence scope.
type Resolution struct {
	Status     Status
	Reason     string
	Action     string
	Target     string
	TargetID   string
	Query      string
	MatchedRef string
	Scope      recurrence.Scope
}

// maxContinuationTokens is the word-count ceiling for a message to be
// treated as a candidate continuation without a trigger word.
const maxContinuationTokens = 5

// Deictic pronouns and the continuation verbs that mark a short message
// as referring to prior context.
var triggerTokens = map[string]bool{
	"it":         true,
	"that":       true,
	"this":       true,
	"there":      true,
	"tomorrow":   true,
	"cancel":     true,
	"move":       true,
	"reschedule": true,
	"repeat":     true,
}

var repeatPhrases = []string{
	"like last time",
	"same as last time",
}

var wordRe = regexp.MustCompile(`\w+`)

// Resolve decides whether text is a terse continuation of a prior
// action and, if so, which stored reference it points at. Pure: the
// store record is only read. state may be nil.
func Resolve(text string, state *State) Resolution {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return Resolution{Status: StatusSkip, Reason: "empty"}
	}
	lowered := strings.ToLower(cleaned)
	scope, _ := recurrence.Parse(lowered)

	tokens := tokenize(lowered)
	hasTrigger := false
	for _, token := range tokens {
		if triggerTokens[token] {
			hasTrigger = true
			break
		}
	}
	if !hasTrigger {
		for _, phrase := range repeatPhrases {
			if strings.Contains(lowered, phrase) {
				hasTrigger = true
				break
			}
		}
	}
	if len(tokens) > maxContinuationTokens && !hasTrigger {
		return Resolution{Status: StatusSkip, Reason: "not_short", Scope: scope}
	}

	act := inferAction(lowered)
	if act == "" {
		return Resolution{Status: StatusSkip, Reason: "no_action_match", Scope: scope}
	}
	if state == nil {
		return Resolution{Status: StatusFallback, Reason: "missing_last_state", Action: act, Scope: scope}
	}

	switch act {
	case ActionRepeatSearch:
		if strings.TrimSpace(state.LastQuery) != "" {
			return Resolution{
				Status: StatusMatched, Reason: "matched_last_query", Action: act,
				Target: "search", Query: state.LastQuery, MatchedRef: "last_query", Scope: scope,
			}
		}
		return Resolution{Status: StatusFallback, Reason: "missing_last_query", Action: act, Scope: scope}
	case ActionMove:
		// nothing in last-state can supply a target date; the caller
		// must prompt for one
		return Resolution{Status: StatusFallback, Reason: "missing_date", Action: act, Scope: scope}
	case ActionMoveTomorrow:
		if strings.TrimSpace(state.LastEventID) != "" {
			return Resolution{
				Status: StatusMatched, Reason: "matched_last_event", Action: act,
				Target: "event", TargetID: state.LastEventID, MatchedRef: "last_event_id", Scope: scope,
			}
		}
		return Resolution{Status: StatusFallback, Reason: "missing_last_event", Action: act, Scope: scope}
	case ActionCancel:
		if strings.TrimSpace(state.LastReminderID) != "" {
			return Resolution{
				Status: StatusMatched, Reason: "matched_last_reminder", Action: act,
				Target: "reminder", TargetID: state.LastReminderID, MatchedRef: "last_reminder_id", Scope: scope,
			}
		}
		if strings.TrimSpace(state.LastEventID) != "" {
			return Resolution{
				Status: StatusMatched, Reason: "matched_last_event", Action: act,
				Target: "event", TargetID: state.LastEventID, MatchedRef: "last_event_id", Scope: scope,
			}
		}
		return Resolution{Status: StatusFallback, Reason: "missing_last_target", Action: act, Scope: scope}
	}
	return Resolution{Status: StatusSkip, Reason: "unsupported_action", Scope: scope}
}

// inferAction applies the fixed keyword rules, most specific first.
// A closed decision table: a new continuable action is one more rule.
func inferAction(lowered string) string {
	if strings.Contains(lowered, "move") || strings.Contains(lowered, "reschedule") {
		if strings.Contains(lowered, "tomorrow") {
			return ActionMoveTomorrow
		}
		return ActionMove
	}
	if strings.Contains(lowered, "cancel") {
		return ActionCancel
	}
	if strings.Contains(lowered, "repeat") {
		return ActionRepeatSearch
	}
	for _, phrase := range repeatPhrases {
		if strings.Contains(lowered, phrase) {
			return ActionRepeatSearch
		}
	}
	return ""
}

// tokenize splits the message into word tokens. The prose tokenizer
// handles contractions and punctuation; non-word tokens are filtered
// out so the short-message count sees only words. Falls back to a plain
// regex split if the NLP pipeline rejects the input.
func tokenize(text string) []string {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return wordRe.FindAllString(text, -1)
	}
	var words []string
	for _, token := range doc.Tokens() {
		if isWord(token.Text) {
			words = append(words, strings.ToLower(token.Text))
		}
	}
	return words
}

func isWord(s string) bool {
	for _, r := range s {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 127 {
			return true
		}
	}
	return false
}
