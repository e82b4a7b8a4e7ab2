// minder-state inspects and prunes the bot's reminder database from
// the command line. It uses the pure-Go SQLite driver so it can be
// cross-compiled and run on hosts without a C toolchain, independent
// of the bot binary.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

func main() {
	statePath := os.Getenv("STATE_PATH")
	if statePath == "" {
		statePath = "state"
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	db, err := openDB(statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "summary", "":
		handleSummary(db)
	case "list":
		handleList(db, os.Args[2:])
	case "show":
		handleShow(db, os.Args[2:])
	case "delete":
		handleDelete(db, os.Args[2:])
	case "prune":
		handlePrune(db, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`minder-state - Inspect and manage minder's reminder database

Usage: minder-state <command> [options]

Commands:
  summary              Counts by status (default)
  list                 List upcoming reminders
  list --all           Include fired and disabled reminders
  show <id>            Show one reminder in full
  delete <id>          Delete a reminder permanently
  prune                Delete fired reminders older than 30 days
  prune --days=N       Use a different age cutoff

Environment:
  STATE_PATH           State directory (default: "state")`)
}

func openDB(statePath string) (*sql.DB, error) {
	dbPath := filepath.Join(statePath, "reminders.db")
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no reminder database at %s", dbPath)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func handleSummary(db *sql.DB) {
	var total, upcoming, fired, disabled int
	row := db.QueryRow(`SELECT
		COUNT(*),
		SUM(CASE WHEN enabled = 1 AND fired = 0 THEN 1 ELSE 0 END),
		SUM(CASE WHEN fired = 1 THEN 1 ELSE 0 END),
		SUM(CASE WHEN enabled = 0 THEN 1 ELSE 0 END)
		FROM reminders`)
	if err := row.Scan(&total, &upcoming, &fired, &disabled); err != nil {
		fail(err)
	}
	fmt.Println("Reminder Summary")
	fmt.Println("================")
	fmt.Printf("Total:     %d\n", total)
	fmt.Printf("Upcoming:  %d\n", upcoming)
	fmt.Printf("Fired:     %d\n", fired)
	fmt.Printf("Disabled:  %d\n", disabled)
}

func handleList(db *sql.DB, args []string) {
	all := len(args) > 0 && args[0] == "--all"
	query := `SELECT id, chat_id, user_id, title, trigger_at, enabled, fired FROM reminders`
	if !all {
		query += ` WHERE enabled = 1 AND fired = 0`
	}
	query += ` ORDER BY trigger_at ASC`

	rows, err := db.Query(query)
	if err != nil {
		fail(err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id, title string
		var chatID, userID int64
		var triggerAt time.Time
		var enabled, fired bool
		if err := rows.Scan(&id, &chatID, &userID, &title, &triggerAt, &enabled, &fired); err != nil {
			fail(err)
		}
		status := "upcoming"
		switch {
		case !enabled:
			status = "disabled"
		case fired:
			status = "fired"
		}
		fmt.Printf("%-14s %-9s %s  %s\n", id, status, triggerAt.UTC().Format(time.RFC3339), title)
		count++
	}
	if err := rows.Err(); err != nil {
		fail(err)
	}
	if count == 0 {
		fmt.Println("No reminders.")
	}
}

func handleShow(db *sql.DB, args []string) {
	if len(args) < 1 {
		fail(fmt.Errorf("usage: minder-state show <id>"))
	}
	row := db.QueryRow(
		`SELECT id, chat_id, user_id, title, trigger_at, enabled, fired, created_at FROM reminders WHERE id = ?`,
		args[0])
	var id, title string
	var chatID, userID int64
	var triggerAt, createdAt time.Time
	var enabled, fired bool
	if err := row.Scan(&id, &chatID, &userID, &title, &triggerAt, &enabled, &fired, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			fail(fmt.Errorf("no reminder with id %s", args[0]))
		}
		fail(err)
	}
	fmt.Printf("ID:         %s\n", id)
	fmt.Printf("Chat/User:  %d / %d\n", chatID, userID)
	fmt.Printf("Title:      %s\n", title)
	fmt.Printf("Trigger:    %s\n", triggerAt.UTC().Format(time.RFC3339))
	fmt.Printf("Enabled:    %t\n", enabled)
	fmt.Printf("Fired:      %t\n", fired)
	fmt.Printf("Created:    %s\n", createdAt.UTC().Format(time.RFC3339))
}

func handleDelete(db *sql.DB, args []string) {
	if len(args) < 1 {
		fail(fmt.Errorf("usage: minder-state delete <id>"))
	}
	res, err := db.Exec(`DELETE FROM reminders WHERE id = ?`, args[0])
	if err != nil {
		fail(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		fail(fmt.Errorf("no reminder with id %s", args[0]))
	}
	fmt.Printf("Deleted %s\n", args[0])
}

func handlePrune(db *sql.DB, args []string) {
	days := 30
	for _, arg := range args {
		if strings.HasPrefix(arg, "--days=") {
			fmt.Sscanf(arg, "--days=%d", &days)
		}
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	res, err := db.Exec(`DELETE FROM reminders WHERE fired = 1 AND trigger_at < ?`, cutoff)
	if err != nil {
		fail(err)
	}
	n, _ := res.RowsAffected()
	fmt.Printf("Pruned %d fired reminders older than %d days\n", n, days)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
