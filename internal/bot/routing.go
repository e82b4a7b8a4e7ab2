package bot

import "strings"

// Routes for inbound text.
const (
	RouteEmpty   = "empty"
	RouteCommand = "command"
	RouteMenu    = "menu"
	RouteChat    = "chat"
)

// NormalizeCommand extracts the lowercased command from a "/cmd args"
// message, dropping a "@botname" suffix. Returns "" for non-commands.
func NormalizeCommand(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return ""
	}
	command := strings.Fields(trimmed)[0]
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command)
}

// ResolveTextRoute classifies a message before any handler runs.
func ResolveTextRoute(text string) string {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return RouteEmpty
	case strings.HasPrefix(trimmed, "/"):
		return RouteCommand
	case IsMenuLabel(trimmed):
		return RouteMenu
	default:
		return RouteChat
	}
}
