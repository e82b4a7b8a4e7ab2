package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tmatv/minder/internal/wizard"
)

// Wizard and step ids for the built-in dialogs.
const (
	WizardReminderAdd = "reminder_add"
	WizardEchoConfirm = "echo_confirm"

	StepTitle   = "title"
	StepWhen    = "when"
	StepConfirm = "confirm"
	StepAsk     = "ask"
)

// registerWizards wires the built-in wizards into the runtime. The
// confirm steps stay in place; the actual commit happens when the user
// taps the Confirm button (wizard_confirm op in the router).
func (r *Router) registerWizards() {
	r.wizards.RegisterStep(WizardReminderAdd, StepTitle,
		func(sess *wizard.Session, text string) wizard.StepResult {
			title := strings.TrimSpace(text)
			if title == "" {
				return wizard.Stay()
			}
			sess.Data["title"] = title
			return wizard.Advance(StepWhen)
		},
		func(sess *wizard.Session) string {
			if _, ok := sess.Data["title"]; ok {
				// re-rendered after a blank reply
				return "I need a title first. What should I remind you about?"
			}
			return "What should I remind you about?"
		},
	)
	r.wizards.RegisterStep(WizardReminderAdd, StepWhen,
		func(sess *wizard.Session, text string) wizard.StepResult {
			when, ok := parseWhen(text, r.now(), r.location())
			if !ok {
				return wizard.Stay()
			}
			sess.Data["trigger_at"] = when
			return wizard.Advance(StepConfirm)
		},
		func(sess *wizard.Session) string {
			return "When? Try \"in 20 min\", \"15:30\" or \"tomorrow 09:00\"."
		},
	)
	r.wizards.RegisterStep(WizardReminderAdd, StepConfirm,
		func(sess *wizard.Session, text string) wizard.StepResult {
			return wizard.Stay()
		},
		func(sess *wizard.Session) string {
			title, _ := sess.Data["title"].(string)
			when, _ := sess.Data["trigger_at"].(time.Time)
			return fmt.Sprintf("Set a reminder?\nTitle: %s\nWhen: %s\n\nTap Confirm or Cancel.",
				title, when.In(r.location()).Format("Mon 2 Jan 15:04"))
		},
	)

	r.wizards.RegisterStep(WizardEchoConfirm, StepAsk,
		func(sess *wizard.Session, text string) wizard.StepResult {
			draft := strings.TrimSpace(text)
			if draft == "" {
				return wizard.Stay()
			}
			sess.Data["draft"] = draft
			return wizard.Advance(StepConfirm)
		},
		func(sess *wizard.Session) string { return "Send me the text to confirm." },
	)
	r.wizards.RegisterStep(WizardEchoConfirm, StepConfirm,
		func(sess *wizard.Session, text string) wizard.StepResult {
			return wizard.Stay()
		},
		func(sess *wizard.Session) string {
			draft, _ := sess.Data["draft"].(string)
			return fmt.Sprintf("Draft:\n%s\n\nConfirm?", draft)
		},
	)
}

var (
	inRe    = regexp.MustCompile(`^in\s+(\d{1,3})\s*(m|min|mins|minutes|h|hour|hours)$`)
	clockRe = regexp.MustCompile(`^(?:(tomorrow)\s+)?(\d{1,2}):(\d{2})$`)
)

// parseWhen understands three deliberately small shapes: "in N
// min/hours", "HH:MM" (next occurrence), and "tomorrow HH:MM". Anything
// richer is out of scope for this bot's keyword-level parsing.
func parseWhen(text string, now time.Time, loc *time.Location) (time.Time, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if m := inRe.FindStringSubmatch(lowered); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return time.Time{}, false
		}
		unit := time.Minute
		if strings.HasPrefix(m[2], "h") {
			unit = time.Hour
		}
		return now.Add(time.Duration(n) * unit), true
	}
	if m := clockRe.FindStringSubmatch(lowered); m != nil {
		hour, _ := strconv.Atoi(m[2])
		minute, _ := strconv.Atoi(m[3])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
		local := now.In(loc)
		candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		if m[1] == "tomorrow" {
			candidate = candidate.AddDate(0, 0, 1)
		} else if !candidate.After(local) {
			// bare time already passed today rolls to tomorrow
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate, true
	}
	return time.Time{}, false
}
