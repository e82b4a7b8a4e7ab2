// Package laststate keeps short-term memory of the entities a user last
// referred to, and resolves elliptical follow-ups ("cancel it") against
// it.
package laststate

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long an untouched record survives.
const DefaultTTL = 7 * 24 * time.Hour

// State is one (chat, user) pair's short-term reference memory. Fields
// are independently sticky: updates that omit a field preserve it.
type State struct {
	LastIntent        string
	LastEventID       string
	LastReminderID    string
	LastCalendarID    string
	LastQuery         string
	LastCorrelationID string
	UpdatedAt         time.Time
}

// Update carries the fields to overwrite; blank fields preserve the
// stored value.
type Update struct {
	Intent        string
	CorrelationID string
	EventID       string
	ReminderID    string
	CalendarID    string
	Query         string
}

type stateKey struct {
	chatID int64
	userID int64
}

// Store holds last-state records with lazy TTL expiry. Volatile by
// design: dropped wholesale on restart.
type Store struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[stateKey]*State

	now func() time.Time // test hook
}

// NewStore creates a last-state store. ttl <= 0 takes the default.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:    ttl,
		states: make(map[stateKey]*State),
		now:    time.Now,
	}
}

// Get returns the record for (chat, user), purging and reporting absent
// when its age exceeds the TTL.
func (s *Store) Get(chatID, userID int64) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey{chatID, userID}
	state, ok := s.states[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(state.UpdatedAt) > s.ttl {
		delete(s.states, key)
		return nil, false
	}
	return state, true
}

// Set applies an update to the record for (chat, user). Present,
// non-blank fields overwrite; the rest stay as they were. UpdatedAt is
// stamped on every call.
func (s *Store) Set(chatID, userID int64, upd Update) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey{chatID, userID}
	state, ok := s.states[key]
	if !ok {
		state = &State{}
		s.states[key] = state
	}
	applyField(&state.LastIntent, upd.Intent)
	applyField(&state.LastCorrelationID, upd.CorrelationID)
	applyField(&state.LastEventID, upd.EventID)
	applyField(&state.LastReminderID, upd.ReminderID)
	applyField(&state.LastCalendarID, upd.CalendarID)
	applyField(&state.LastQuery, upd.Query)
	state.UpdatedAt = s.now()
	return state
}

func applyField(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}
