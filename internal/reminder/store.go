// Package reminder persists reminders in SQLite and fires them from a
// polling scheduler. A collaborator of the conversational core, not
// part of it: the core only ever sees reminder ids.
package reminder

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a reminder id does not exist.
var ErrNotFound = errors.New("reminder not found")

// Reminder is one scheduled nudge for a (chat, user) pair.
type Reminder struct {
	ID        string
	ChatID    int64
	UserID    int64
	Title     string
	TriggerAt time.Time
	Enabled   bool
	Fired     bool
	CreatedAt time.Time
}

// Store wraps the SQLite database holding reminders.
type Store struct {
	mu sync.Mutex
	db *sql.DB

	now func() time.Time // test hook
}

// Open opens or creates the reminder database under statePath.
func Open(statePath string) (*Store, error) {
	dbPath := filepath.Join(statePath, "reminders.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		chat_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		trigger_at DATETIME NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		fired INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(fired, enabled, trigger_at);
	CREATE INDEX IF NOT EXISTS idx_reminders_owner ON reminders(chat_id, user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add inserts a reminder and returns it with a fresh id.
func (s *Store) Add(chatID, userID int64, title string, triggerAt time.Time) (*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Reminder{
		ID:        newReminderID(),
		ChatID:    chatID,
		UserID:    userID,
		Title:     title,
		TriggerAt: triggerAt.UTC(),
		Enabled:   true,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO reminders (id, chat_id, user_id, title, trigger_at, enabled, fired, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, 0, ?)`,
		r.ID, r.ChatID, r.UserID, r.Title, r.TriggerAt, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reminder: %w", err)
	}
	return r, nil
}

// Get returns one reminder by id.
func (s *Store) Get(id string) (*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *Store) getLocked(id string) (*Reminder, error) {
	row := s.db.QueryRow(
		`SELECT id, chat_id, user_id, title, trigger_at, enabled, fired, created_at
		 FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// ListUpcoming returns the enabled, unfired reminders for a (chat,
// user) pair, soonest first.
func (s *Store) ListUpcoming(chatID, userID int64, limit int) ([]*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, chat_id, user_id, title, trigger_at, enabled, fired, created_at
		 FROM reminders
		 WHERE chat_id = ? AND user_id = ? AND enabled = 1 AND fired = 0
		 ORDER BY trigger_at ASC LIMIT ?`,
		chatID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

// Due returns the enabled, unfired reminders whose trigger time has
// passed, soonest first. The scheduler polls this.
func (s *Store) Due(now time.Time) ([]*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		`SELECT id, chat_id, user_id, title, trigger_at, enabled, fired, created_at
		 FROM reminders
		 WHERE enabled = 1 AND fired = 0 AND trigger_at <= ?
		 ORDER BY trigger_at ASC`,
		now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

// MarkFired flags a reminder as delivered.
func (s *Store) MarkFired(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execOne(`UPDATE reminders SET fired = 1 WHERE id = ?`, id)
}

// Snooze pushes the trigger time `minutes` into the future, from the
// later of now and the current trigger, and re-arms the reminder.
func (s *Store) Snooze(id string, minutes int) (*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	base := s.now().UTC()
	if r.TriggerAt.After(base) {
		base = r.TriggerAt
	}
	r.TriggerAt = base.Add(time.Duration(minutes) * time.Minute)
	r.Fired = false
	r.Enabled = true
	if err := s.execOne(
		`UPDATE reminders SET trigger_at = ?, fired = 0, enabled = 1 WHERE id = ?`,
		r.TriggerAt, id); err != nil {
		return nil, err
	}
	return r, nil
}

// Disable switches a reminder off without deleting it.
func (s *Store) Disable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execOne(`UPDATE reminders SET enabled = 0 WHERE id = ?`, id)
}

// Delete removes a reminder.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execOne(`DELETE FROM reminders WHERE id = ?`, id)
}

func (s *Store) execOne(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("reminder update failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %v", ErrNotFound, args[len(args)-1])
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*Reminder, error) {
	var r Reminder
	var enabled, fired int
	if err := row.Scan(&r.ID, &r.ChatID, &r.UserID, &r.Title, &r.TriggerAt, &enabled, &fired, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Enabled = enabled != 0
	r.Fired = fired != 0
	return &r, nil
}

func collectReminders(rows *sql.Rows) ([]*Reminder, error) {
	var out []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// newReminderID draws a short URL-safe random id, same shape as the
// action store's tokens.
func newReminderID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		panic("reminder: rand.Read: " + err.Error())
	}
	return "rem-" + base64.RawURLEncoding.EncodeToString(buf)
}
