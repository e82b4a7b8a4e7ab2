package reminder

import (
	"time"

	"github.com/tmatv/minder/internal/logging"
)

const (
	// DefaultPollInterval is how often the scheduler checks for due reminders.
	DefaultPollInterval = 15 * time.Second
	// DefaultMaxFutureDays bounds how far out a reminder may be scheduled.
	DefaultMaxFutureDays = 365
)

// FireFunc delivers a due reminder to the user. Returning an error
// leaves the reminder unfired so the next poll retries it.
type FireFunc func(r *Reminder) error

// Scheduler polls the store and fires due reminders. The conversational
// core never spawns timers; this is the surrounding system's wall-clock
// component.
type Scheduler struct {
	store         *Store
	fire          FireFunc
	pollInterval  time.Duration
	maxFutureDays int
	stopChan      chan struct{}
}

// SchedulerConfig carries poll cadence and bounds; zero values take defaults.
type SchedulerConfig struct {
	PollInterval  time.Duration
	MaxFutureDays int
}

// NewScheduler creates a scheduler over the store.
func NewScheduler(store *Store, fire FireFunc, cfg SchedulerConfig) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxFutureDays <= 0 {
		cfg.MaxFutureDays = DefaultMaxFutureDays
	}
	return &Scheduler{
		store:         store,
		fire:          fire,
		pollInterval:  cfg.PollInterval,
		maxFutureDays: cfg.MaxFutureDays,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the poll loop.
func (s *Scheduler) Start() {
	go s.pollLoop()
	logging.Info("scheduler", "started, polling every %s", s.pollInterval)
}

// Stop halts the poll loop.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// ValidateTrigger rejects trigger times farther out than the
// max-future-days bound. Past triggers are allowed; they fire on the
// next poll.
func (s *Scheduler) ValidateTrigger(triggerAt, now time.Time) bool {
	return !triggerAt.After(now.AddDate(0, 0, s.maxFutureDays))
}

func (s *Scheduler) pollLoop() {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.fireDue(time.Now())
		}
	}
}

func (s *Scheduler) fireDue(now time.Time) {
	due, err := s.store.Due(now)
	if err != nil {
		logging.Warn("scheduler", "due query failed: %v", err)
		return
	}
	for _, r := range due {
		if err := s.fire(r); err != nil {
			logging.Warn("scheduler", "failed to fire reminder %s: %v", r.ID, err)
			continue
		}
		if err := s.store.MarkFired(r.ID); err != nil {
			logging.Warn("scheduler", "failed to mark reminder %s fired: %v", r.ID, err)
			continue
		}
		logging.Info("scheduler", "fired reminder %s (%s)", r.ID, logging.Truncate(r.Title, 40))
	}
}
