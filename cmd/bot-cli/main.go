package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"jordanella.com/screenbot-go/internal/adb"
	"jordanella.com/screenbot-go/internal/config"
	"jordanella.com/screenbot-go/internal/cv"
	"jordanella.com/screenbot-go/internal/database"
	"jordanella.com/screenbot-go/internal/engine"
	"jordanella.com/screenbot-go/internal/events"
	"jordanella.com/screenbot-go/internal/logging"
	"jordanella.com/screenbot-go/pkg/templates"
)

func main() {
	settingsPath := flag.String("settings", "Settings.ini", "path to Settings.ini")
	device := flag.String("device", "", "ADB device selector, overrides [ADB] Device")
	flag.Parse()

	// Load configuration
	settings, err := config.Load(*settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *device != "" {
		settings.ADBDevice = *device
	}

	logger := logging.NewLogger("bot-cli").SetMinLevel(logging.ParseLevel(settings.LogLevel))

	// Load template and state manifests; malformed entries fail here
	registry := templates.NewRegistry(settings.TemplatesDir)
	if err := registry.LoadFromFile(settings.TemplateManifest); err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}
	classifier, err := engine.NewClassifierFromFile(settings.StatesManifest)
	if err != nil {
		log.Fatalf("Failed to load state rules: %v", err)
	}

	// Connect to the target device
	controller := adb.NewController(settings.ADBPath, settings.ADBDevice)
	if err := controller.Connect(); err != nil {
		log.Fatalf("Failed to connect ADB: %v", err)
	}
	defer controller.Disconnect()

	source, err := cv.NewADBCapture(controller, settings.CaptureTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize capture: %v", err)
	}

	// Run history
	db, err := database.Open(settings.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	bus := events.NewEventBus(64)

	recorder := database.NewRecorder(db)
	recorder.Attach(bus)
	// Stop drains the queue while the recorder is still subscribed, so the
	// final session write is never lost; Detach runs after.
	defer recorder.Detach()
	defer bus.Stop()

	// Mirror engine events into the log for operators
	bus.Subscribe(events.EventTypeStateChanged, func(e events.Event) {
		logger.InfoWithContext("state changed", e.Data)
	})
	bus.Subscribe(events.EventTypeTickFailed, func(e events.Event) {
		logger.WarnWithContext("tick failed", e.Data)
	})
	bus.Subscribe(events.EventTypeRunAborted, func(e events.Event) {
		logger.ErrorWithContext("run aborted", nil, e.Data)
	})

	executor := engine.NewExecutor(controller, settings.SettleTime)

	cfg := engine.Config{
		TickInterval: settings.TickInterval,
		Backoff: engine.Backoff{
			Initial: settings.BackoffInitial,
			Max:     settings.BackoffMax,
		},
		MaxConsecutiveFailures: settings.MaxConsecutiveFailures,
		Match:                  &cv.MatchConfig{ScaleTolerance: settings.ScaleTolerance},
	}

	// The game policy is injected here; the engine carries none of its own.
	// Without one the bot observes, classifies and records only.
	bot := engine.New(cfg, source, registry.All(), classifier, engine.NoopPolicy(), executor).
		WithBus(bus)

	if err := bot.Start(); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("interrupt received, stopping")
		bot.Stop()
	case <-bot.Done():
	}

	if err := bot.Err(); err != nil {
		logger.Error("engine terminated", err)
		os.Exit(1)
	}
	logger.Info("engine stopped")
}
