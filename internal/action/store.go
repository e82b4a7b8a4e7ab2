package action

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a stored action stays redeemable.
	DefaultTTL = 900 * time.Second
	// DefaultMaxItems caps the live population; oldest entries are
	// evicted first on overflow.
	DefaultMaxItems = 2000
	// DefaultMaxPayloadBytes caps the JSON-serialized payload size.
	DefaultMaxPayloadBytes = 2048
)

// ErrPayloadTooLarge is returned by Put when the serialized payload
// exceeds the store's byte ceiling. It indicates a caller bug.
var ErrPayloadTooLarge = errors.New("action payload too large")

// StoredAction is one stored action: owner, intent, payload, TTL window.
type StoredAction struct {
	UserID    int64
	ChatID    int64
	Intent    string
	Payload   map[string]any
	CreatedAt time.Time
	ExpiresAt time.Time
}

// LookupStatus says whether a token resolved and, if not, why.
type LookupStatus string

const (
	LookupOK       LookupStatus = "ok"
	LookupMissing  LookupStatus = "missing"
	LookupMismatch LookupStatus = "mismatch"
	LookupExpired  LookupStatus = "expired"
)

// Lookup is the result of resolving a callback token. Action is non-nil
// only for LookupOK. Age/TTL are zero when the token was never found.
type Lookup struct {
	Action *StoredAction
	Status LookupStatus
	Age    time.Duration
	TTL    time.Duration
}

// Store is an in-memory registry of pending actions keyed by short
// unguessable tokens. It does not survive a restart, so callers must
// tolerate missing/expired lookups.
type Store struct {
	mu              sync.Mutex
	ttl             time.Duration
	maxItems        int
	maxPayloadBytes int
	items           map[string]*StoredAction

	now func() time.Time // test hook
}

// StoreConfig carries the store's bounds; zero values take defaults.
type StoreConfig struct {
	TTL             time.Duration
	MaxItems        int
	MaxPayloadBytes int
}

// NewStore creates an action store with the given bounds.
func NewStore(cfg StoreConfig) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	return &Store{
		ttl:             cfg.TTL,
		maxItems:        cfg.MaxItems,
		maxPayloadBytes: cfg.MaxPayloadBytes,
		items:           make(map[string]*StoredAction),
		now:             time.Now,
	}
}

// Put stores an action for a (user, chat) pair and returns the token to
// embed in callback data. Fails with ErrPayloadTooLarge when the
// serialized payload exceeds the ceiling.
func (s *Store) Put(a Action, userID, chatID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()

	payload := a.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if len(encoded) > s.maxPayloadBytes {
		return "", ErrPayloadTooLarge
	}

	token := s.generateTokenLocked()
	now := s.now()
	s.items[token] = &StoredAction{
		UserID:    userID,
		ChatID:    chatID,
		Intent:    a.ID,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	return token, nil
}

// Get resolves a token for its owner. Absent on unknown token, owner
// mismatch, or expiry (expired entries are purged on access).
func (s *Store) Get(userID, chatID int64, token string) (*StoredAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()

	item, ok := s.items[token]
	if !ok || item.UserID != userID || item.ChatID != chatID {
		return nil, false
	}
	if item.ExpiresAt.Before(s.now()) {
		delete(s.items, token)
		return nil, false
	}
	return item, true
}

// Resolve works like Get but reports why a token failed to resolve, so
// the user can be told "this button is no longer valid" instead of
// getting silence.
func (s *Store) Resolve(userID, chatID int64, token string) Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()

	now := s.now()
	item, ok := s.items[token]
	if !ok {
		return Lookup{Status: LookupMissing, TTL: s.ttl}
	}
	if item.UserID != userID || item.ChatID != chatID {
		return Lookup{Status: LookupMismatch, TTL: s.ttl}
	}
	age := now.Sub(item.CreatedAt)
	ttl := item.ExpiresAt.Sub(item.CreatedAt)
	if item.ExpiresAt.Before(now) {
		delete(s.items, token)
		return Lookup{Status: LookupExpired, Age: age, TTL: ttl}
	}
	return Lookup{Action: item, Status: LookupOK, Age: age, TTL: ttl}
}

// generateTokenLocked draws an 11-char URL-safe token (8 random bytes),
// retrying a few times on collision, then falls back to a longer draw
// that is accepted unconditionally.
func (s *Store) generateTokenLocked() string {
	for i := 0; i < 5; i++ {
		token := randomToken(8)
		if _, exists := s.items[token]; !exists {
			return token
		}
	}
	return randomToken(12)
}

func randomToken(numBytes int) string {
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic("action: rand.Read: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// cleanupLocked sweeps expired entries and enforces the population cap,
// evicting oldest-created entries first. O(live entries) per call, fine
// because the population is capped.
func (s *Store) cleanupLocked() {
	now := s.now()
	for token, item := range s.items {
		if item.ExpiresAt.Before(now) {
			delete(s.items, token)
		}
	}
	if len(s.items) <= s.maxItems {
		return
	}
	type entry struct {
		token   string
		created time.Time
	}
	byAge := make([]entry, 0, len(s.items))
	for token, item := range s.items {
		byAge = append(byAge, entry{token, item.CreatedAt})
	}
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].created.Before(byAge[j].created) })
	overage := len(s.items) - s.maxItems
	for _, e := range byAge[:overage] {
		delete(s.items, e.token)
	}
}
