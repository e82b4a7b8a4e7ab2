// Package action turns "offer the user N choices" intents into compact,
// replay-safe button identifiers. Dynamic actions live in a bounded
// token store; a fixed catalogue of common shapes encodes statically and
// survives restarts.
package action

// Action is a named, parameterized operation a user can trigger from a button.
// Produced by callers; the store keeps its own copy of the payload reference.
type Action struct {
	ID      string
	Label   string
	Payload map[string]any
}

const (
	// CallbackPrefix marks token-backed identifiers: "a:<token>"
	CallbackPrefix = "a:"
	// StaticCallbackPrefix marks catalogue identifiers: "cb:<suffix>"
	StaticCallbackPrefix = "cb:"

	// MaxCallbackBytes is the transport's hard ceiling for a button
	// identifier, UTF-8 encoded.
	MaxCallbackBytes = 64
)

// ParseCallbackToken extracts the store token from callback data if it
// carries the dynamic prefix. Returns "" otherwise.
func ParseCallbackToken(data string) string {
	if len(data) > len(CallbackPrefix) && data[:len(CallbackPrefix)] == CallbackPrefix {
		return data[len(CallbackPrefix):]
	}
	return ""
}
