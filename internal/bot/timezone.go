package bot

import (
	"github.com/tmatv/minder/internal/action"
)

// TimezoneOptions is the fixed list offered by the timezone picker.
// Buttons address entries by index (cb:TZ:<i>), so order matters:
// appending is safe, reordering breaks buttons already on screen.
var TimezoneOptions = []string{
	"Europe/Moscow",
	"Europe/Vilnius",
	"Europe/Berlin",
	"Europe/London",
	"Europe/Kyiv",
	"Asia/Tokyo",
	"America/New_York",
	"UTC",
}

// TimezoneByIndex returns the option at the given index, or false when
// the index is out of range (e.g. a stale button from an older build).
func TimezoneByIndex(index int) (string, bool) {
	if index < 0 || index >= len(TimezoneOptions) {
		return "", false
	}
	return TimezoneOptions[index], true
}

// TimezoneActions builds one button per option.
func TimezoneActions() []action.Action {
	actions := make([]action.Action, 0, len(TimezoneOptions))
	for i, name := range TimezoneOptions {
		actions = append(actions, action.Action{
			ID:      "timezone." + name,
			Label:   name,
			Payload: map[string]any{"op": action.OpTimezoneSelect, "index": i},
		})
	}
	return actions
}
