package reminder

import (
	"fmt"

	"github.com/tmatv/minder/internal/action"
)

// SnoozePresetMinutes is the single source of truth for snooze buttons.
// Do not duplicate in other packages.
var SnoozePresetMinutes = []int{5, 15, 30, 60}

// SnoozeActions builds the button actions offered under a fired
// reminder: one per preset plus a detail button. All of them encode
// statically, so they stay valid across a restart.
func SnoozeActions(reminderID string) []action.Action {
	actions := make([]action.Action, 0, len(SnoozePresetMinutes)+1)
	for _, minutes := range SnoozePresetMinutes {
		actions = append(actions, action.Action{
			ID:    fmt.Sprintf("reminder.snooze:%s:%d", reminderID, minutes),
			Label: presetLabel(minutes),
			Payload: map[string]any{
				"op":          action.OpReminderSnooze,
				"reminder_id": reminderID,
				"minutes":     minutes,
			},
		})
	}
	actions = append(actions, action.Action{
		ID:    "reminder.detail:" + reminderID,
		Label: "Details",
		Payload: map[string]any{
			"op":          action.OpReminderDetail,
			"reminder_id": reminderID,
		},
	})
	return actions
}

func presetLabel(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return "1 hour"
}
