package action

import (
	"fmt"
	"strconv"
	"strings"
)

// Op names recognized by the static catalogue. These are the
// highest-frequency interactions; encoding them without a store entry
// keeps token pressure low and makes the buttons valid across restarts.
const (
	OpMenuOpen    = "menu_open"
	OpMenuCancel  = "menu_cancel"
	OpMenuSection = "menu_section"

	OpWizardConfirm  = "wizard_confirm"
	OpWizardCancel   = "wizard_cancel"
	OpWizardEdit     = "wizard_edit"
	OpWizardContinue = "wizard_continue"
	OpWizardRestart  = "wizard_restart"
	OpWizardStart    = "wizard_start"

	OpReminderSnooze     = "reminder_snooze"
	OpReminderDetail     = "reminder_detail"
	OpReminderRepeatMenu = "reminder_repeat_menu"

	OpTimezoneSelect = "timezone_select"
)

var wizardOpSuffixes = map[string]string{
	OpWizardConfirm:  "confirm",
	OpWizardCancel:   "cancel",
	OpWizardEdit:     "edit",
	OpWizardContinue: "continue",
	OpWizardRestart:  "restart",
	OpWizardStart:    "start",
}

// wizard verbs that are meaningless without a wizard id
var wizardOpNeedsID = map[string]bool{
	OpWizardStart:    true,
	OpWizardContinue: true,
	OpWizardRestart:  true,
}

// StaticCallbackData maps a catalogued action to its deterministic
// identifier. Returns false for anything outside the catalogue,
// signaling the caller to fall back to the token store.
func StaticCallbackData(a Action) (string, bool) {
	op, _ := a.Payload["op"].(string)
	if op == "" {
		return "", false
	}
	switch op {
	case OpMenuOpen:
		return StaticCallbackPrefix + "menu:open", true
	case OpMenuCancel:
		return StaticCallbackPrefix + "menu:cancel", true
	case OpMenuSection:
		section, _ := a.Payload["section"].(string)
		if section == "" {
			return "", false
		}
		return StaticCallbackPrefix + "menu:section:" + section, true
	case OpReminderSnooze:
		reminderID := payloadReminderID(a.Payload)
		minutes := payloadInt(a.Payload, "minutes")
		if reminderID == "" || minutes < 1 {
			return "", false
		}
		return fmt.Sprintf("%sREM:SNOOZE:%d:%s", StaticCallbackPrefix, minutes, reminderID), true
	case OpReminderDetail:
		reminderID := payloadReminderID(a.Payload)
		if reminderID == "" {
			return "", false
		}
		return StaticCallbackPrefix + "REM:DETAIL:" + reminderID, true
	case OpReminderRepeatMenu:
		reminderID := payloadReminderID(a.Payload)
		if reminderID == "" {
			return "", false
		}
		return StaticCallbackPrefix + "REM:REPEAT:" + reminderID, true
	case OpTimezoneSelect:
		index := payloadInt(a.Payload, "index")
		if index < 0 {
			return "", false
		}
		return fmt.Sprintf("%sTZ:%d", StaticCallbackPrefix, index), true
	}
	if suffix, ok := wizardOpSuffixes[op]; ok {
		wizardID, _ := a.Payload["wizard_id"].(string)
		if wizardOpNeedsID[op] && wizardID == "" {
			return "", false
		}
		data := StaticCallbackPrefix + "wiz:" + suffix
		if wizardID != "" {
			data += ":" + wizardID
		}
		return data, true
	}
	return "", false
}

// DecodeStatic reverses StaticCallbackData: given callback data with the
// static prefix, it rebuilds the op payload for the router. Returns
// false for token-backed data or an unknown suffix.
func DecodeStatic(data string) (Action, bool) {
	if !strings.HasPrefix(data, StaticCallbackPrefix) {
		return Action{}, false
	}
	parts := strings.Split(data[len(StaticCallbackPrefix):], ":")
	switch {
	case len(parts) == 2 && parts[0] == "menu" && parts[1] == "open":
		return Action{ID: "menu.open", Payload: map[string]any{"op": OpMenuOpen}}, true
	case len(parts) == 2 && parts[0] == "menu" && parts[1] == "cancel":
		return Action{ID: "menu.cancel", Payload: map[string]any{"op": OpMenuCancel}}, true
	case len(parts) == 3 && parts[0] == "menu" && parts[1] == "section" && parts[2] != "":
		return Action{ID: "menu." + parts[2], Payload: map[string]any{"op": OpMenuSection, "section": parts[2]}}, true
	case len(parts) >= 2 && parts[0] == "wiz":
		op, ok := wizardOpFromSuffix(parts[1])
		if !ok {
			return Action{}, false
		}
		payload := map[string]any{"op": op}
		if len(parts) == 3 && parts[2] != "" {
			payload["wizard_id"] = parts[2]
		} else if wizardOpNeedsID[op] {
			return Action{}, false
		}
		return Action{ID: "wizard." + parts[1], Payload: payload}, true
	case len(parts) == 4 && parts[0] == "REM" && parts[1] == "SNOOZE":
		minutes, err := strconv.Atoi(parts[2])
		if err != nil || minutes < 1 || parts[3] == "" {
			return Action{}, false
		}
		return Action{
			ID:      "reminder.snooze",
			Payload: map[string]any{"op": OpReminderSnooze, "reminder_id": parts[3], "minutes": minutes},
		}, true
	case len(parts) == 3 && parts[0] == "REM" && parts[1] == "DETAIL" && parts[2] != "":
		return Action{ID: "reminder.detail", Payload: map[string]any{"op": OpReminderDetail, "reminder_id": parts[2]}}, true
	case len(parts) == 3 && parts[0] == "REM" && parts[1] == "REPEAT" && parts[2] != "":
		return Action{ID: "reminder.repeat_menu", Payload: map[string]any{"op": OpReminderRepeatMenu, "reminder_id": parts[2]}}, true
	case len(parts) == 2 && parts[0] == "TZ":
		index, err := strconv.Atoi(parts[1])
		if err != nil || index < 0 {
			return Action{}, false
		}
		return Action{ID: "timezone.select", Payload: map[string]any{"op": OpTimezoneSelect, "index": index}}, true
	}
	return Action{}, false
}

func wizardOpFromSuffix(suffix string) (string, bool) {
	for op, s := range wizardOpSuffixes {
		if s == suffix {
			return op, true
		}
	}
	return "", false
}

func payloadReminderID(payload map[string]any) string {
	if id, _ := payload["reminder_id"].(string); id != "" {
		return id
	}
	id, _ := payload["id"].(string)
	return id
}

// payloadInt tolerates both int and float64 (JSON round-trips payloads
// through float64). Returns -1 when absent or non-numeric.
func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return -1
}
