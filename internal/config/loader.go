package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// Settings holds everything loaded from Settings.ini. Durations are stored
// as milliseconds in the file.
type Settings struct {
	// [Engine]
	TickInterval           time.Duration
	CaptureTimeout         time.Duration
	SettleTime             time.Duration
	BackoffInitial         time.Duration
	BackoffMax             time.Duration
	MaxConsecutiveFailures int

	// [Matching]
	ScaleTolerance float64

	// [Paths]
	TemplatesDir     string
	TemplateManifest string
	StatesManifest   string
	DatabasePath     string

	// [ADB]
	ADBPath   string
	ADBDevice string

	// [Logging]
	LogLevel string
}

// Load reads Settings.ini from the given path, applying defaults for
// missing keys.
func Load(path string) (*Settings, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	engine := cfg.Section("Engine")
	matching := cfg.Section("Matching")
	paths := cfg.Section("Paths")
	adb := cfg.Section("ADB")
	logging := cfg.Section("Logging")

	s := &Settings{
		TickInterval:           msKey(engine, "TickIntervalMs", 400),
		CaptureTimeout:         msKey(engine, "CaptureTimeoutMs", 1500),
		SettleTime:             msKey(engine, "SettleTimeMs", 500),
		BackoffInitial:         msKey(engine, "BackoffInitialMs", 500),
		BackoffMax:             msKey(engine, "BackoffMaxMs", 15000),
		MaxConsecutiveFailures: engine.Key("MaxConsecutiveFailures").MustInt(5),

		ScaleTolerance: matching.Key("ScaleTolerance").MustFloat64(0.0),

		TemplatesDir:     paths.Key("TemplatesDir").MustString("templates"),
		TemplateManifest: paths.Key("TemplateManifest").MustString("config/templates.yaml"),
		StatesManifest:   paths.Key("StatesManifest").MustString("config/states.yaml"),
		DatabasePath:     paths.Key("DatabasePath").MustString("bot.db"),

		ADBPath:   adb.Key("Path").MustString("adb"),
		ADBDevice: adb.Key("Device").MustString("127.0.0.1:5555"),

		LogLevel: logging.Key("Level").MustString("INFO"),
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("MaxConsecutiveFailures must be at least 1, got %d", s.MaxConsecutiveFailures)
	}
	if s.BackoffMax < s.BackoffInitial {
		return fmt.Errorf("BackoffMaxMs (%v) must not be below BackoffInitialMs (%v)",
			s.BackoffMax, s.BackoffInitial)
	}
	if s.ScaleTolerance < 0 || s.ScaleTolerance >= 1 {
		return fmt.Errorf("ScaleTolerance must be in [0,1), got %v", s.ScaleTolerance)
	}
	return nil
}

func msKey(section *ini.Section, key string, def int) time.Duration {
	return time.Duration(section.Key(key).MustInt(def)) * time.Millisecond
}
