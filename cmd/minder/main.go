package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tmatv/minder/internal/action"
	"github.com/tmatv/minder/internal/bot"
	"github.com/tmatv/minder/internal/config"
	"github.com/tmatv/minder/internal/discord"
	"github.com/tmatv/minder/internal/health"
	"github.com/tmatv/minder/internal/laststate"
	"github.com/tmatv/minder/internal/reminder"
)

func main() {
	log.Println("minder - conversational reminder assistant")
	log.Println("==========================================")

	// Load .env file (optional - won't error if missing)
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	} else {
		log.Println("[config] Loaded .env file")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "minder.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Discord.Token == "" {
		log.Fatal("DISCORD_TOKEN environment variable required")
	}

	os.MkdirAll(cfg.StatePath, 0755)

	reminders, err := reminder.Open(cfg.StatePath)
	if err != nil {
		log.Fatalf("Failed to open reminder store: %v", err)
	}
	defer reminders.Close()

	actions := action.NewStore(action.StoreConfig{
		TTL:             cfg.ActionTTL(),
		MaxItems:        cfg.ActionMaxItems,
		MaxPayloadBytes: cfg.ActionMaxPayloadBytes,
	})
	lastState := laststate.NewStore(cfg.LastStateTTL())

	watchdog, err := health.NewWatchdog(health.Thresholds{
		CPUPercent: cfg.Health.CPUPercent,
		RSSMB:      cfg.Health.RSSMB,
	})
	if err != nil {
		log.Fatalf("Failed to create watchdog: %v", err)
	}

	// the scheduler's fire callback closes over router and adapter,
	// both assigned below before anything starts
	var router *bot.Router
	var adapter *discord.Adapter
	scheduler := reminder.NewScheduler(reminders, func(rem *reminder.Reminder) error {
		return adapter.Deliver(rem.ChatID, router.ReminderFired(rem))
	}, reminder.SchedulerConfig{
		PollInterval:  cfg.PollInterval(),
		MaxFutureDays: cfg.MaxFutureDays,
	})

	router, err = bot.New(bot.Deps{
		Actions:   actions,
		LastState: lastState,
		Reminders: reminders,
		Scheduler: scheduler,
		Status:    watchdog.Summary,
	}, bot.Config{
		Columns:         cfg.Columns,
		WizardTimeout:   cfg.WizardTimeout(),
		DefaultTimezone: cfg.Timezone,
	})
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	adapter, err = discord.New(discord.Config{
		Token:     cfg.Discord.Token,
		ChannelID: cfg.Discord.ChannelID,
		OwnerID:   cfg.Discord.OwnerID,
	}, router)
	if err != nil {
		log.Fatalf("Failed to create Discord adapter: %v", err)
	}

	if err := adapter.Start(); err != nil {
		log.Fatalf("Failed to connect to Discord: %v", err)
	}
	scheduler.Start()
	watchdog.Start()

	log.Println("[main] All subsystems started. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] Shutting down...")

	watchdog.Stop()
	scheduler.Stop()
	if err := adapter.Stop(); err != nil {
		log.Printf("Warning: failed to close Discord session: %v", err)
	}

	// give in-flight sends a moment to drain
	time.Sleep(250 * time.Millisecond)

	log.Println("[main] Goodbye!")
}
