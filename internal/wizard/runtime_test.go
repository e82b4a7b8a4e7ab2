package wizard

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func echoRuntime() *Runtime {
	r := NewRuntime(NewManager(0))
	r.RegisterStep("echo", "prompt",
		func(sess *Session, text string) StepResult {
			if strings.TrimSpace(text) == "" {
				return Stay()
			}
			sess.Data["text"] = text
			return Advance("done")
		},
		func(sess *Session) string { return "Say something" },
	)
	r.RegisterStep("echo", "done",
		func(sess *Session, text string) StepResult { return Stay() },
		func(sess *Session) string { return fmt.Sprintf("You said: %v", sess.Data["text"]) },
	)
	return r
}

func TestRuntimeRendersResultingStep(t *testing.T) {
	r := echoRuntime()

	view, err := r.Start(1, 2, "echo", "prompt")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if view.Text != "Say something" {
		t.Errorf("start view = %q", view.Text)
	}

	view, err = r.HandleText(1, 2, "hello")
	if err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}
	if view.Text != "You said: hello" {
		t.Errorf("post-transition view = %q", view.Text)
	}
}

func TestRuntimeMissingRenderer(t *testing.T) {
	r := NewRuntime(NewManager(0))
	// register directly on the manager so the renderer is absent
	r.manager.RegisterStep("broken", "start", func(sess *Session, text string) StepResult { return Stay() })

	if err := r.Validate(); !errors.Is(err, ErrMissingRenderer) {
		t.Errorf("Validate err = %v, want ErrMissingRenderer", err)
	}
	if _, err := r.Start(1, 2, "broken", "start"); !errors.Is(err, ErrMissingRenderer) {
		t.Errorf("Start err = %v, want ErrMissingRenderer", err)
	}
}

func TestRuntimeValidateOK(t *testing.T) {
	if err := echoRuntime().Validate(); err != nil {
		t.Errorf("Validate on complete registry failed: %v", err)
	}
}

func TestRuntimeCancelAndActive(t *testing.T) {
	r := echoRuntime()
	if r.HasActive(1, 2) {
		t.Error("active before Start")
	}
	r.Start(1, 2, "echo", "prompt")
	if !r.HasActive(1, 2) {
		t.Error("not active after Start")
	}
	sess, ok := r.Cancel(1, 2)
	if !ok || sess.WizardID != "echo" {
		t.Errorf("Cancel = (%+v, %v)", sess, ok)
	}
	if r.HasActive(1, 2) {
		t.Error("still active after Cancel")
	}
}
