package action

import (
	"github.com/tmatv/minder/internal/logging"
)

// Button is one tappable cell: a label the user sees and the identifier
// the transport echoes back verbatim on tap.
type Button struct {
	Label string
	Data  string
}

// Keyboard is an ordered grid of buttons, transport-agnostic.
type Keyboard struct {
	Rows [][]Button
}

// BuildKeyboard lays the given actions out into rows of `columns`
// buttons (last row may be short). Catalogued actions encode statically;
// the rest mint tokens in the store. Actions whose payload is too large
// or whose identifier exceeds the 64-byte ceiling are dropped with a
// warning rather than failing the whole render. Returns nil when no
// action produced a usable button.
func BuildKeyboard(actions []Action, store *Store, userID, chatID int64, columns int) *Keyboard {
	if len(actions) == 0 {
		return nil
	}
	if columns < 1 {
		columns = 1
	}
	var rows [][]Button
	var row []Button
	for _, a := range actions {
		data, ok := StaticCallbackData(a)
		if !ok {
			token, err := store.Put(a, userID, chatID)
			if err != nil {
				logging.Warn("actions", "dropping button, payload too large: action_id=%s", a.ID)
				continue
			}
			data = CallbackPrefix + token
		}
		if len(data) > MaxCallbackBytes {
			logging.Warn("actions", "dropping button, callback data too long: action_id=%s data=%s", a.ID, logging.Truncate(data, 80))
			continue
		}
		row = append(row, Button{Label: a.Label, Data: data})
		if len(row) == columns {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return &Keyboard{Rows: rows}
}
