package wizard

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingRenderer means a step was registered without a renderer.
// This is a configuration fault; Validate catches it at startup.
var ErrMissingRenderer = errors.New("no renderer for wizard step")

// Renderer produces the text shown to the user for the session's
// current step.
type Renderer func(sess *Session) string

// View is what the user is shown after a wizard operation.
type View struct {
	Text string
}

// Runtime layers presentation over the state machine: each step carries
// both a transition handler and a renderer, so "what happens" stays
// separate from "what the user sees".
type Runtime struct {
	manager   *Manager
	renderers map[string]map[string]Renderer
}

// NewRuntime wraps a manager.
func NewRuntime(manager *Manager) *Runtime {
	return &Runtime{
		manager:   manager,
		renderers: make(map[string]map[string]Renderer),
	}
}

// RegisterStep registers the transition handler and the renderer for a
// step in one call.
func (r *Runtime) RegisterStep(wizardID, stepID string, handler StepHandler, renderer Renderer) {
	r.manager.RegisterStep(wizardID, stepID, handler)
	steps, ok := r.renderers[wizardID]
	if !ok {
		steps = make(map[string]Renderer)
		r.renderers[wizardID] = steps
	}
	steps[stepID] = renderer
}

// Validate checks that every registered step has both a handler and a
// renderer, converting would-be runtime faults into startup faults.
// Call it before accepting traffic.
func (r *Runtime) Validate() error {
	r.manager.mu.Lock()
	defer r.manager.mu.Unlock()
	for wizardID, steps := range r.manager.registry {
		for stepID := range steps {
			if r.renderers[wizardID][stepID] == nil {
				return fmt.Errorf("%w: %s:%s", ErrMissingRenderer, wizardID, stepID)
			}
		}
	}
	return nil
}

// HasActive reports whether a session exists for (user, chat).
func (r *Runtime) HasActive(userID, chatID int64) bool {
	return r.manager.IsActive(userID, chatID)
}

// GetActive returns the live session for (user, chat), if any.
func (r *Runtime) GetActive(userID, chatID int64) (*Session, bool) {
	return r.manager.GetActive(userID, chatID)
}

// Start begins a wizard and renders its first step.
func (r *Runtime) Start(userID, chatID int64, wizardID, startStepID string) (View, error) {
	sess, err := r.manager.Start(userID, chatID, wizardID, startStepID)
	if err != nil {
		return View{}, err
	}
	return r.render(sess)
}

// HandleText advances the state machine and renders the resulting step.
func (r *Runtime) HandleText(userID, chatID int64, text string) (View, error) {
	sess, err := r.manager.HandleText(userID, chatID, text)
	if err != nil {
		return View{}, err
	}
	return r.render(sess)
}

// Cancel removes and returns the session for (user, chat), if any.
func (r *Runtime) Cancel(userID, chatID int64) (*Session, bool) {
	return r.manager.Cancel(userID, chatID)
}

// IsTimedOut delegates the advisory timeout check to the state machine.
func (r *Runtime) IsTimedOut(sess *Session, now time.Time) bool {
	return r.manager.IsTimedOut(sess, now)
}

func (r *Runtime) render(sess *Session) (View, error) {
	renderer := r.renderers[sess.WizardID][sess.StepID]
	if renderer == nil {
		return View{}, fmt.Errorf("%w: %s:%s", ErrMissingRenderer, sess.WizardID, sess.StepID)
	}
	return View{Text: renderer(sess)}, nil
}
