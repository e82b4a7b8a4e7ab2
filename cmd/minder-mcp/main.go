// minder-mcp exposes the reminder database as MCP tools so an agent
// can inspect and manage reminders alongside the running bot.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tmatv/minder/internal/reminder"
)

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[minder-mcp] ")

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	statePath := os.Getenv("STATE_PATH")
	if statePath == "" {
		statePath = "state"
	}

	store, err := reminder.Open(statePath)
	if err != nil {
		log.Fatalf("Failed to open reminder store: %v", err)
	}
	defer store.Close()

	s := server.NewMCPServer(
		"minder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(listTool(), handleList(store))
	s.AddTool(addTool(), handleAdd(store))
	s.AddTool(snoozeTool(), handleSnooze(store))
	s.AddTool(deleteTool(), handleDelete(store))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func listTool() mcp.Tool {
	return mcp.NewTool("reminders_list",
		mcp.WithDescription("List upcoming reminders for a chat/user pair, soonest first."),
		mcp.WithString("chat_id",
			mcp.Required(),
			mcp.Description("Numeric chat (channel) id the reminders belong to"),
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Numeric user id the reminders belong to"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 20)"),
		),
	)
}

func handleList(store *reminder.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		chatID, err := argID(args, "chat_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		userID, err := argID(args, "user_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := 20
		if n, ok := args["limit"].(float64); ok && n > 0 {
			limit = int(n)
		}

		list, err := store.ListUpcoming(chatID, userID, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list reminders: %v", err)), nil
		}
		if len(list) == 0 {
			return mcp.NewToolResultText("No upcoming reminders."), nil
		}

		var b strings.Builder
		for _, rem := range list {
			fmt.Fprintf(&b, "%s  %s  %s\n", rem.ID, rem.TriggerAt.UTC().Format(time.RFC3339), rem.Title)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func addTool() mcp.Tool {
	return mcp.NewTool("reminder_add",
		mcp.WithDescription("Create a reminder. The bot delivers it to the chat when it comes due."),
		mcp.WithString("chat_id",
			mcp.Required(),
			mcp.Description("Numeric chat (channel) id to deliver to"),
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Numeric user id the reminder belongs to"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("What to remind about"),
		),
		mcp.WithString("trigger_at",
			mcp.Required(),
			mcp.Description("When to fire, RFC3339 (e.g. 2026-09-01T09:00:00Z)"),
		),
	)
}

func handleAdd(store *reminder.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		chatID, err := argID(args, "chat_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		userID, err := argID(args, "user_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		title, _ := args["title"].(string)
		if strings.TrimSpace(title) == "" {
			return mcp.NewToolResultError("title is required"), nil
		}
		raw, _ := args["trigger_at"].(string)
		triggerAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("bad trigger_at: %v", err)), nil
		}
		if !triggerAt.After(time.Now()) {
			return mcp.NewToolResultError("trigger_at must be in the future"), nil
		}

		rem, err := store.Add(chatID, userID, strings.TrimSpace(title), triggerAt)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created %s, fires %s", rem.ID, rem.TriggerAt.UTC().Format(time.RFC3339))), nil
	}
}

func snoozeTool() mcp.Tool {
	return mcp.NewTool("reminder_snooze",
		mcp.WithDescription("Push a reminder's trigger time forward by a number of minutes. Re-arms a fired reminder."),
		mcp.WithString("reminder_id",
			mcp.Required(),
			mcp.Description("Reminder id, e.g. rem-AbCdEf12"),
		),
		mcp.WithNumber("minutes",
			mcp.Required(),
			mcp.Description("How many minutes to push forward"),
		),
	)
}

func handleSnooze(store *reminder.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		id, _ := args["reminder_id"].(string)
		minutes, _ := args["minutes"].(float64)
		if id == "" || minutes < 1 {
			return mcp.NewToolResultError("reminder_id and positive minutes are required"), nil
		}
		rem, err := store.Snooze(id, int(minutes))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to snooze: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Snoozed %s until %s", rem.ID, rem.TriggerAt.UTC().Format(time.RFC3339))), nil
	}
}

func deleteTool() mcp.Tool {
	return mcp.NewTool("reminder_delete",
		mcp.WithDescription("Delete a reminder permanently."),
		mcp.WithString("reminder_id",
			mcp.Required(),
			mcp.Description("Reminder id to delete"),
		),
	)
}

func handleDelete(store *reminder.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		id, _ := args["reminder_id"].(string)
		if id == "" {
			return mcp.NewToolResultError("reminder_id is required"), nil
		}
		if err := store.Delete(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to delete: %v", err)), nil
		}
		return mcp.NewToolResultText("Deleted " + id), nil
	}
}

func argID(args map[string]any, key string) (int64, error) {
	raw, _ := args[key].(string)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s: %v", key, err)
	}
	return n, nil
}
