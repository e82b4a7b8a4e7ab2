// Package bot routes inbound messages and button taps to the
// conversational core: wizards, the token store, the last-state
// resolver, and the reminder store.
package bot

import (
	"strings"

	"github.com/tmatv/minder/internal/action"
)

// Menu sections offered by the home menu.
const (
	SectionHome      = "home"
	SectionReminders = "reminders"
	SectionSettings  = "settings"
	SectionHelp      = "help"
)

var menuLabels = map[string]bool{
	"🏠 Menu":      true,
	"⏰ Reminders": true,
	"⚙️ Settings":  true,
	"❓ Help":      true,
	"❌ Cancel":    true,
}

// IsMenuLabel reports whether the text is one of the reply-keyboard
// menu labels, which should open the menu instead of going through
// normal text handling.
func IsMenuLabel(text string) bool {
	return menuLabels[strings.TrimSpace(text)]
}

// MenuActions is the home menu: every entry encodes statically.
func MenuActions() []action.Action {
	return []action.Action{
		{ID: "menu.reminders", Label: "⏰ Reminders", Payload: map[string]any{"op": action.OpMenuSection, "section": SectionReminders}},
		{ID: "menu.settings", Label: "⚙️ Settings", Payload: map[string]any{"op": action.OpMenuSection, "section": SectionSettings}},
		{ID: "menu.help", Label: "❓ Help", Payload: map[string]any{"op": action.OpMenuSection, "section": SectionHelp}},
		{ID: "menu.cancel", Label: "❌ Cancel", Payload: map[string]any{"op": action.OpMenuCancel}},
	}
}
