// Package health watches the bot's own process and answers the
// /status command.
package health

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/tmatv/minder/internal/logging"
)

// Thresholds define when the watchdog starts complaining.
type Thresholds struct {
	CPUPercent float64 // average CPU % considered unhealthy
	RSSMB      int     // resident memory in MB considered unhealthy
}

// Snapshot is one health reading.
type Snapshot struct {
	CPUPercent float64
	RSSMB      float64
	Healthy    bool
	Uptime     time.Duration
	TakenAt    time.Time
}

// Watchdog polls the bot's own process and keeps a short CPU history
// so a single spike doesn't flip the health status.
type Watchdog struct {
	mu sync.Mutex

	proc         *process.Process
	thresholds   Thresholds
	pollInterval time.Duration
	startedAt    time.Time

	cpuHistory []float64
	lastRSSMB  float64
	unhealthy  bool

	stopChan chan struct{}
	running  bool
}

// NewWatchdog creates a watchdog over the current process.
func NewWatchdog(thresholds Thresholds) (*Watchdog, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to attach to own process: %w", err)
	}
	if thresholds.CPUPercent <= 0 {
		thresholds.CPUPercent = 80
	}
	if thresholds.RSSMB <= 0 {
		thresholds.RSSMB = 512
	}
	return &Watchdog{
		proc:         proc,
		thresholds:   thresholds,
		pollInterval: 10 * time.Second,
		startedAt:    time.Now(),
		cpuHistory:   make([]float64, 0, 5),
		stopChan:     make(chan struct{}),
	}, nil
}

// Start begins polling.
func (w *Watchdog) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.mu.Unlock()

	go w.watchLoop()
	logging.Info("health", "watchdog started (cpu>%.0f%%, rss>%dMB, poll=%v)",
		w.thresholds.CPUPercent, w.thresholds.RSSMB, w.pollInterval)
}

// Stop halts polling.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopChan)
		w.running = false
	}
}

func (w *Watchdog) watchLoop() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watchdog) poll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	cpu, err := w.proc.CPUPercent()
	if err == nil {
		// keep last 5 readings
		w.cpuHistory = append(w.cpuHistory, cpu)
		if len(w.cpuHistory) > 5 {
			w.cpuHistory = w.cpuHistory[1:]
		}
	}
	if mem, err := w.proc.MemoryInfo(); err == nil && mem != nil {
		w.lastRSSMB = float64(mem.RSS) / (1024 * 1024)
	}

	avgCPU := avg(w.cpuHistory)
	wasUnhealthy := w.unhealthy
	w.unhealthy = avgCPU > w.thresholds.CPUPercent || w.lastRSSMB > float64(w.thresholds.RSSMB)
	if w.unhealthy && !wasUnhealthy {
		logging.Warn("health", "unhealthy: cpu=%.1f%% rss=%.0fMB", avgCPU, w.lastRSSMB)
	}
	if !w.unhealthy && wasUnhealthy {
		logging.Info("health", "recovered: cpu=%.1f%% rss=%.0fMB", avgCPU, w.lastRSSMB)
	}
}

// Snapshot returns the latest reading.
func (w *Watchdog) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		CPUPercent: avg(w.cpuHistory),
		RSSMB:      w.lastRSSMB,
		Healthy:    !w.unhealthy,
		Uptime:     time.Since(w.startedAt),
		TakenAt:    time.Now(),
	}
}

// Summary renders a snapshot for chat.
func (w *Watchdog) Summary() string {
	s := w.Snapshot()
	status := "healthy"
	if !s.Healthy {
		status = "struggling"
	}
	return fmt.Sprintf("I'm %s. Up %s, cpu %.1f%%, rss %.0fMB.",
		status, s.Uptime.Round(time.Second), s.CPUPercent, s.RSSMB)
}

func avg(history []float64) float64 {
	if len(history) == 0 {
		return 0
	}
	var sum float64
	for _, v := range history {
		sum += v
	}
	return sum / float64(len(history))
}
