// Package wizard runs short multi-step dialogs as explicit per-(user,
// chat) state machines. The step graph is defined by registration, not
// hardcoded; sessions are volatile and advisory-timeout only.
package wizard

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout is the advisory inactivity timeout for sessions.
const DefaultTimeout = 900 * time.Second

var (
	// ErrUnknownWizard means Start was called with an unregistered wizard id.
	ErrUnknownWizard = errors.New("unknown wizard")
	// ErrUnknownStep means a step id has no handler for its wizard.
	ErrUnknownStep = errors.New("unknown wizard step")
	// ErrUnknownNextStep means a handler advanced to an unregistered step.
	ErrUnknownNextStep = errors.New("unknown next wizard step")
	// ErrNoActiveSession means HandleText was called with no session live.
	ErrNoActiveSession = errors.New("no active wizard session")
)

// Session is the live state of one wizard instance for one (user, chat).
type Session struct {
	WizardID       string
	StepID         string
	Data           map[string]any
	StartedAt      time.Time
	LastActivityAt time.Time
}

// StepResult is a handler's verdict: stay on the current step (show a
// validation message and wait again) or advance to a named step.
type StepResult struct {
	advance bool
	next    string
}

// Stay keeps the session on its current step.
func Stay() StepResult { return StepResult{} }

// Advance moves the session to the named step.
func Advance(next string) StepResult { return StepResult{advance: true, next: next} }

// StepHandler mutates the session from the user's raw text and decides
// the transition.
type StepHandler func(sess *Session, text string) StepResult

type sessionKey struct {
	userID int64
	chatID int64
}

// Manager holds the step registry and the active sessions. One session
// per (user, chat); starting a wizard discards any prior session for
// that pair.
type Manager struct {
	mu       sync.Mutex
	timeout  time.Duration
	registry map[string]map[string]StepHandler
	active   map[sessionKey]*Session

	now func() time.Time // test hook
}

// NewManager creates a wizard manager. timeout <= 0 takes the default.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		timeout:  timeout,
		registry: make(map[string]map[string]StepHandler),
		active:   make(map[sessionKey]*Session),
		now:      time.Now,
	}
}

// RegisterStep adds a handler for (wizardID, stepID).
func (m *Manager) RegisterStep(wizardID, stepID string, handler StepHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	steps, ok := m.registry[wizardID]
	if !ok {
		steps = make(map[string]StepHandler)
		m.registry[wizardID] = steps
	}
	steps[stepID] = handler
}

// HasWizard reports whether any step is registered for the wizard id.
func (m *Manager) HasWizard(wizardID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.registry[wizardID]
	return ok
}

// GetActive returns the live session for (user, chat), if any.
func (m *Manager) GetActive(userID, chatID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.active[sessionKey{userID, chatID}]
	return sess, ok
}

// IsActive reports whether a session exists for (user, chat).
func (m *Manager) IsActive(userID, chatID int64) bool {
	_, ok := m.GetActive(userID, chatID)
	return ok
}

// Start creates (or overwrites) the session for (user, chat) at the
// given step. Unregistered wizard or step ids are caller bugs and fail
// immediately.
func (m *Manager) Start(userID, chatID int64, wizardID, startStepID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	steps, ok := m.registry[wizardID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWizard, wizardID)
	}
	if _, ok := steps[startStepID]; !ok {
		return nil, fmt.Errorf("%w: %s:%s", ErrUnknownStep, wizardID, startStepID)
	}
	now := m.now()
	sess := &Session{
		WizardID:       wizardID,
		StepID:         startStepID,
		Data:           make(map[string]any),
		StartedAt:      now,
		LastActivityAt: now,
	}
	m.active[sessionKey{userID, chatID}] = sess
	return sess, nil
}

// Cancel removes and returns the session for (user, chat), if any.
func (m *Manager) Cancel(userID, chatID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{userID, chatID}
	sess, ok := m.active[key]
	if ok {
		delete(m.active, key)
	}
	return sess, ok
}

// HandleText feeds the user's text to the current step's handler,
// applies the transition, and refreshes LastActivityAt.
func (m *Manager) HandleText(userID, chatID int64, text string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.active[sessionKey{userID, chatID}]
	if !ok {
		return nil, ErrNoActiveSession
	}
	handler, ok := m.registry[sess.WizardID][sess.StepID]
	if !ok {
		// should not occur given Start's validation
		return nil, fmt.Errorf("%w: %s:%s", ErrUnknownStep, sess.WizardID, sess.StepID)
	}
	result := handler(sess, text)
	if result.advance {
		if _, ok := m.registry[sess.WizardID][result.next]; !ok {
			return nil, fmt.Errorf("%w: %s:%s", ErrUnknownNextStep, sess.WizardID, result.next)
		}
		sess.StepID = result.next
	}
	sess.LastActivityAt = m.now()
	return sess, nil
}

// IsTimedOut reports whether the session has been inactive longer than
// the configured timeout. Advisory only: callers decide what to do
// (typically auto-cancel); the manager never expires sessions itself.
func (m *Manager) IsTimedOut(sess *Session, now time.Time) bool {
	return now.Sub(sess.LastActivityAt) > m.timeout
}
