package bot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmatv/minder/internal/action"
	"github.com/tmatv/minder/internal/laststate"
	"github.com/tmatv/minder/internal/logging"
	"github.com/tmatv/minder/internal/recurrence"
	"github.com/tmatv/minder/internal/reminder"
	"github.com/tmatv/minder/internal/wizard"
)

// Reply is what goes back to the user: text plus an optional button grid.
type Reply struct {
	Text     string
	Keyboard *action.Keyboard
}

// Calendar is the external calendar collaborator. The core only ever
// passes opaque event ids through to it.
type Calendar interface {
	CancelEvent(eventID string, scope recurrence.Scope) error
	MoveEventToDate(eventID string, day time.Time, scope recurrence.Scope) error
}

// Searcher is the external search collaborator used by "repeat last
// search" continuations.
type Searcher interface {
	Search(query string) (string, error)
}

// Deps are the router's collaborators. Calendar and Searcher may be
// nil; the router degrades to a clarifying message.
type Deps struct {
	Actions   *action.Store
	LastState *laststate.Store
	Reminders *reminder.Store
	Scheduler *reminder.Scheduler
	Calendar  Calendar
	Searcher  Searcher
	// Status returns a health summary for the /status command.
	Status func() string
}

// Config tunes presentation and dialog behavior.
type Config struct {
	Columns         int
	WizardTimeout   time.Duration
	DefaultTimezone string
}

// Router dispatches inbound messages and button taps.
type Router struct {
	deps    Deps
	wizards *wizard.Runtime
	columns int

	mu  sync.Mutex
	loc *time.Location

	now func() time.Time // test hook
}

// startSteps maps each wizard to its entry step.
var startSteps = map[string]string{
	WizardReminderAdd: StepTitle,
	WizardEchoConfirm: StepAsk,
}

// New builds a router, registers the built-in wizards, and validates
// the registry so renderer gaps fail here instead of mid-dialog.
func New(deps Deps, cfg Config) (*Router, error) {
	if cfg.Columns <= 0 {
		cfg.Columns = 2
	}
	loc := time.UTC
	if cfg.DefaultTimezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.DefaultTimezone)
		if err != nil {
			return nil, fmt.Errorf("bad default timezone %q: %w", cfg.DefaultTimezone, err)
		}
	}
	r := &Router{
		deps:    deps,
		wizards: wizard.NewRuntime(wizard.NewManager(cfg.WizardTimeout)),
		columns: cfg.Columns,
		loc:     loc,
		now:     time.Now,
	}
	r.registerWizards()
	if err := r.wizards.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Router) location() *time.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loc
}

func (r *Router) setLocation(loc *time.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loc = loc
}

// HandleMessage routes one inbound text message.
func (r *Router) HandleMessage(userID, chatID int64, text string) Reply {
	route := ResolveTextRoute(text)
	if route == RouteEmpty {
		return Reply{Text: "Say something and I'll try to help. /help lists what I can do."}
	}

	// a live wizard owns plain text, but commands and menu labels break out
	if sess, ok := r.wizards.GetActive(userID, chatID); ok {
		if r.wizards.IsTimedOut(sess, r.now()) {
			r.wizards.Cancel(userID, chatID)
			return Reply{Text: "That dialog timed out. Start over with /remind."}
		}
		if route == RouteChat {
			return r.advanceWizard(userID, chatID, text)
		}
	}

	switch route {
	case RouteCommand:
		return r.handleCommand(userID, chatID, text)
	case RouteMenu:
		return r.menuReply()
	}

	state, ok := r.deps.LastState.Get(chatID, userID)
	if !ok {
		state = nil
	}
	res := laststate.Resolve(text, state)
	switch res.Status {
	case laststate.StatusMatched:
		return r.performResolved(userID, chatID, res)
	case laststate.StatusFallback:
		return fallbackReply(res)
	}
	return Reply{Text: "I didn't catch that. /help lists what I can do."}
}

// HandleCallback routes one button tap. data is the identifier echoed
// back by the transport.
func (r *Router) HandleCallback(userID, chatID int64, data string) Reply {
	if token := action.ParseCallbackToken(data); token != "" {
		lk := r.deps.Actions.Resolve(userID, chatID, token)
		switch lk.Status {
		case action.LookupOK:
			return r.dispatch(userID, chatID, action.Action{ID: lk.Action.Intent, Payload: lk.Action.Payload})
		case action.LookupExpired:
			return Reply{Text: fmt.Sprintf("That button expired (valid for %s). Ask again for fresh options.", lk.TTL.Round(time.Second))}
		case action.LookupMismatch:
			return Reply{Text: "That button belongs to someone else's conversation."}
		default:
			return Reply{Text: "That button is no longer valid — I may have restarted. Ask again."}
		}
	}
	if a, ok := action.DecodeStatic(data); ok {
		return r.dispatch(userID, chatID, a)
	}
	logging.Warn("router", "unrecognized callback data: %s", logging.Truncate(data, 80))
	return Reply{Text: "I don't recognize that button."}
}

// ReminderFired prepares the delivery for a due reminder and records it
// as the last referenced reminder so "cancel it" works afterwards.
func (r *Router) ReminderFired(rem *reminder.Reminder) Reply {
	r.deps.LastState.Set(rem.ChatID, rem.UserID, laststate.Update{
		Intent:     "reminder.fired",
		ReminderID: rem.ID,
	})
	return Reply{
		Text:     "⏰ " + rem.Title,
		Keyboard: r.keyboard(reminder.SnoozeActions(rem.ID), rem.UserID, rem.ChatID),
	}
}

func (r *Router) keyboard(actions []action.Action, userID, chatID int64) *action.Keyboard {
	return action.BuildKeyboard(actions, r.deps.Actions, userID, chatID, r.columns)
}

func (r *Router) advanceWizard(userID, chatID int64, text string) Reply {
	view, err := r.wizards.HandleText(userID, chatID, text)
	if err != nil {
		logging.Warn("router", "wizard advance failed: %v", err)
		r.wizards.Cancel(userID, chatID)
		return Reply{Text: "Something went wrong with that dialog; I've cancelled it."}
	}
	reply := Reply{Text: view.Text}
	if sess, ok := r.wizards.GetActive(userID, chatID); ok && sess.StepID == StepConfirm {
		reply.Keyboard = r.keyboard(confirmActions(sess.WizardID), userID, chatID)
	}
	return reply
}

func confirmActions(wizardID string) []action.Action {
	return []action.Action{
		{ID: "wizard.confirm", Label: "✅ Confirm", Payload: map[string]any{"op": action.OpWizardConfirm, "wizard_id": wizardID}},
		{ID: "wizard.cancel", Label: "❌ Cancel", Payload: map[string]any{"op": action.OpWizardCancel, "wizard_id": wizardID}},
	}
}

func (r *Router) handleCommand(userID, chatID int64, text string) Reply {
	switch NormalizeCommand(text) {
	case "/start", "/help":
		return Reply{Text: helpText, Keyboard: r.keyboard(MenuActions(), userID, chatID)}
	case "/menu":
		return r.menuReply()
	case "/remind":
		return r.startWizard(userID, chatID, WizardReminderAdd)
	case "/echo":
		return r.startWizard(userID, chatID, WizardEchoConfirm)
	case "/reminders":
		return r.listReminders(userID, chatID)
	case "/timezone":
		return Reply{Text: "Pick your timezone:", Keyboard: r.keyboard(TimezoneActions(), userID, chatID)}
	case "/cancel":
		if _, ok := r.wizards.Cancel(userID, chatID); ok {
			return Reply{Text: "Cancelled."}
		}
		return Reply{Text: "Nothing to cancel."}
	case "/status":
		if r.deps.Status != nil {
			return Reply{Text: r.deps.Status()}
		}
		return Reply{Text: "I'm up."}
	}
	return Reply{Text: "Unknown command. /help lists what I can do."}
}

func (r *Router) menuReply() Reply {
	// the keyboard here is static-only, so user/chat scoping is moot
	return Reply{Text: "What do you want to do?", Keyboard: r.keyboard(MenuActions(), 0, 0)}
}

func (r *Router) startWizard(userID, chatID int64, wizardID string) Reply {
	startStep, ok := startSteps[wizardID]
	if !ok {
		return Reply{Text: "I don't know that dialog."}
	}
	view, err := r.wizards.Start(userID, chatID, wizardID, startStep)
	if err != nil {
		logging.Warn("router", "wizard start failed: %v", err)
		return Reply{Text: "I couldn't start that dialog."}
	}
	return Reply{Text: view.Text}
}

func (r *Router) listReminders(userID, chatID int64) Reply {
	list, err := r.deps.Reminders.ListUpcoming(chatID, userID, 10)
	if err != nil {
		logging.Warn("router", "list reminders failed: %v", err)
		return Reply{Text: "I couldn't read your reminders just now."}
	}
	if len(list) == 0 {
		return Reply{Text: "No upcoming reminders. Create one with /remind."}
	}
	var b strings.Builder
	b.WriteString("Upcoming reminders:\n")
	detailActions := make([]action.Action, 0, len(list))
	for _, rem := range list {
		fmt.Fprintf(&b, "• %s — %s\n", rem.Title, rem.TriggerAt.In(r.location()).Format("Mon 2 Jan 15:04"))
		detailActions = append(detailActions, action.Action{
			ID:      "reminder.detail:" + rem.ID,
			Label:   logging.Truncate(rem.Title, 20),
			Payload: map[string]any{"op": action.OpReminderDetail, "reminder_id": rem.ID},
		})
	}
	return Reply{Text: b.String(), Keyboard: r.keyboard(detailActions, userID, chatID)}
}

// dispatch executes a recovered action payload, whether it came from
// the token store or the static catalogue.
func (r *Router) dispatch(userID, chatID int64, a action.Action) Reply {
	op, _ := a.Payload["op"].(string)
	switch op {
	case action.OpMenuOpen:
		return r.menuReply()
	case action.OpMenuCancel:
		r.wizards.Cancel(userID, chatID)
		return Reply{Text: "Cancelled."}
	case action.OpMenuSection:
		section, _ := a.Payload["section"].(string)
		return r.menuSection(userID, chatID, section)
	case action.OpWizardStart, action.OpWizardRestart:
		wizardID, _ := a.Payload["wizard_id"].(string)
		return r.startWizard(userID, chatID, wizardID)
	case action.OpWizardCancel:
		if _, ok := r.wizards.Cancel(userID, chatID); ok {
			return Reply{Text: "Okay, dropped it."}
		}
		return Reply{Text: "Nothing to cancel."}
	case action.OpWizardContinue:
		if !r.wizards.HasActive(userID, chatID) {
			return Reply{Text: "That dialog is over. Start again with /remind."}
		}
		// blank input stays on the current step and re-renders it
		return r.advanceWizard(userID, chatID, "")
	case action.OpWizardEdit:
		sess, ok := r.wizards.GetActive(userID, chatID)
		if !ok {
			return Reply{Text: "Nothing to edit — that dialog is over."}
		}
		return r.startWizard(userID, chatID, sess.WizardID)
	case action.OpWizardConfirm:
		return r.confirmWizard(userID, chatID)
	case action.OpReminderSnooze:
		return r.snoozeReminder(userID, chatID, a)
	case action.OpReminderDetail:
		return r.reminderDetail(userID, chatID, a)
	case action.OpReminderRepeatMenu:
		reminderID, _ := a.Payload["reminder_id"].(string)
		return Reply{Text: "Snooze for how long?", Keyboard: r.keyboard(reminder.SnoozeActions(reminderID), userID, chatID)}
	case action.OpTimezoneSelect:
		return r.selectTimezone(a)
	}
	logging.Warn("router", "unhandled action op=%s intent=%s", op, a.ID)
	return Reply{Text: "I can't do that anymore."}
}

func (r *Router) menuSection(userID, chatID int64, section string) Reply {
	switch section {
	case SectionReminders:
		return r.listReminders(userID, chatID)
	case SectionSettings:
		return Reply{Text: "Pick your timezone:", Keyboard: r.keyboard(TimezoneActions(), userID, chatID)}
	case SectionHelp:
		return Reply{Text: helpText}
	case SectionHome:
		return r.menuReply()
	}
	return Reply{Text: "That menu section is gone."}
}

func (r *Router) confirmWizard(userID, chatID int64) Reply {
	sess, ok := r.wizards.GetActive(userID, chatID)
	if !ok {
		return Reply{Text: "Nothing to confirm — that dialog is over."}
	}
	if sess.StepID != StepConfirm {
		return Reply{Text: "We're not at the confirmation step yet."}
	}
	switch sess.WizardID {
	case WizardReminderAdd:
		title, _ := sess.Data["title"].(string)
		triggerAt, _ := sess.Data["trigger_at"].(time.Time)
		if r.deps.Scheduler != nil && !r.deps.Scheduler.ValidateTrigger(triggerAt, r.now()) {
			return Reply{Text: "That's too far in the future. Pick a closer time."}
		}
		rem, err := r.deps.Reminders.Add(chatID, userID, title, triggerAt)
		if err != nil {
			logging.Warn("router", "reminder add failed: %v", err)
			return Reply{Text: "I couldn't save that reminder. Try again."}
		}
		r.wizards.Cancel(userID, chatID)
		r.deps.LastState.Set(chatID, userID, laststate.Update{
			Intent:     "reminder.add",
			ReminderID: rem.ID,
		})
		return Reply{Text: fmt.Sprintf("Done — I'll remind you: %s (%s).",
			rem.Title, rem.TriggerAt.In(r.location()).Format("Mon 2 Jan 15:04"))}
	case WizardEchoConfirm:
		draft, _ := sess.Data["draft"].(string)
		r.wizards.Cancel(userID, chatID)
		return Reply{Text: draft}
	}
	return Reply{Text: "I don't know how to finish that dialog."}
}

func (r *Router) snoozeReminder(userID, chatID int64, a action.Action) Reply {
	reminderID, _ := a.Payload["reminder_id"].(string)
	minutes := 0
	switch v := a.Payload["minutes"].(type) {
	case int:
		minutes = v
	case float64:
		minutes = int(v)
	}
	if reminderID == "" || minutes < 1 {
		return Reply{Text: "I can't snooze that."}
	}
	rem, err := r.deps.Reminders.Snooze(reminderID, minutes)
	if err != nil {
		logging.Warn("router", "snooze failed: %v", err)
		return Reply{Text: "That reminder is gone; nothing to snooze."}
	}
	r.deps.LastState.Set(chatID, userID, laststate.Update{
		Intent:     "reminder.snooze",
		ReminderID: rem.ID,
	})
	return Reply{Text: fmt.Sprintf("Snoozed until %s.", rem.TriggerAt.In(r.location()).Format("15:04"))}
}

func (r *Router) reminderDetail(userID, chatID int64, a action.Action) Reply {
	reminderID, _ := a.Payload["reminder_id"].(string)
	rem, err := r.deps.Reminders.Get(reminderID)
	if err != nil {
		return Reply{Text: "That reminder is gone."}
	}
	r.deps.LastState.Set(chatID, userID, laststate.Update{
		Intent:     "reminder.detail",
		ReminderID: rem.ID,
	})
	text := fmt.Sprintf("%s\nWhen: %s", rem.Title, rem.TriggerAt.In(r.location()).Format("Mon 2 Jan 15:04"))
	return Reply{Text: text, Keyboard: r.keyboard(reminder.SnoozeActions(rem.ID), userID, chatID)}
}

func (r *Router) selectTimezone(a action.Action) Reply {
	index := -1
	switch v := a.Payload["index"].(type) {
	case int:
		index = v
	case float64:
		index = int(v)
	}
	name, ok := TimezoneByIndex(index)
	if !ok {
		return Reply{Text: "That timezone option is stale; run /timezone again."}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logging.Warn("router", "timezone load failed: %v", err)
		return Reply{Text: "I couldn't load that timezone."}
	}
	r.setLocation(loc)
	return Reply{Text: "Timezone set to " + name + "."}
}

// performResolved executes a matched continuation against the right
// collaborator.
func (r *Router) performResolved(userID, chatID int64, res laststate.Resolution) Reply {
	switch {
	case res.Action == laststate.ActionCancel && res.Target == "reminder":
		if err := r.deps.Reminders.Disable(res.TargetID); err != nil {
			return Reply{Text: "That reminder is already gone."}
		}
		r.deps.LastState.Set(chatID, userID, laststate.Update{Intent: "reminder.cancel"})
		return Reply{Text: "Cancelled that reminder."}
	case res.Action == laststate.ActionCancel && res.Target == "event":
		if r.deps.Calendar == nil {
			return Reply{Text: "No calendar is connected, so I can't cancel events."}
		}
		if err := r.deps.Calendar.CancelEvent(res.TargetID, res.Scope); err != nil {
			logging.Warn("router", "event cancel failed: %v", err)
			return Reply{Text: "The calendar refused to cancel that event."}
		}
		r.deps.LastState.Set(chatID, userID, laststate.Update{Intent: "event.cancel"})
		return Reply{Text: "Cancelled that event."}
	case res.Action == laststate.ActionMoveTomorrow:
		if r.deps.Calendar == nil {
			return Reply{Text: "No calendar is connected, so I can't move events."}
		}
		tomorrow := r.now().In(r.location()).AddDate(0, 0, 1)
		if err := r.deps.Calendar.MoveEventToDate(res.TargetID, tomorrow, res.Scope); err != nil {
			logging.Warn("router", "event move failed: %v", err)
			return Reply{Text: "The calendar refused to move that event."}
		}
		r.deps.LastState.Set(chatID, userID, laststate.Update{Intent: "event.move"})
		return Reply{Text: "Moved it to tomorrow."}
	case res.Action == laststate.ActionRepeatSearch:
		if r.deps.Searcher == nil {
			return Reply{Text: "Search isn't connected right now."}
		}
		result, err := r.deps.Searcher.Search(res.Query)
		if err != nil {
			logging.Warn("router", "repeat search failed: %v", err)
			return Reply{Text: "The search failed; try again."}
		}
		r.deps.LastState.Set(chatID, userID, laststate.Update{Intent: "search.repeat", Query: res.Query})
		return Reply{Text: result}
	}
	return Reply{Text: "I lost track of what that referred to."}
}

// fallbackReply turns a resolver fallback into the clarifying question
// the user actually needs. Never an error: fallback is a normal outcome.
func fallbackReply(res laststate.Resolution) Reply {
	switch res.Reason {
	case "missing_date":
		return Reply{Text: "Move it to when? Give me a date or time."}
	case "missing_last_event":
		return Reply{Text: "Which event do you mean? I don't have a recent one."}
	case "missing_last_query":
		return Reply{Text: "I don't have a recent search to repeat."}
	case "missing_last_target":
		return Reply{Text: "Cancel what? I don't have a recent reminder or event."}
	}
	return Reply{Text: "I think you're referring to something earlier, but I've lost the context. Can you spell it out?"}
}

const helpText = `I'm minder, your reminder assistant.

/remind — set a reminder (guided)
/reminders — list what's coming up
/timezone — set your timezone
/menu — show the menu
/cancel — abort the current dialog
/status — am I healthy?

You can also just say things like "cancel it" or "move it to tomorrow"
right after we've talked about a reminder or event.`
