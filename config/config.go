package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

const (
	maxLoadRetries = 3
	loadRetryDelay = 100 * time.Millisecond
)

// Config holds the behavior settings for the quicksave utility. Extra carries
// keys from the file that this version doesn't know about, so a config written
// by a newer version survives a load/save round trip.
type Config struct {
	SaveDirectory          string         `toml:"save_directory"`
	ProcessName            string         `toml:"process_name"`
	CheckInterval          float64        `toml:"check_interval"`
	QuicksaveSave          bool           `toml:"quicksave_save"`
	QuicksaveInterval      float64        `toml:"quicksave_interval"`
	QuicksaveCopy          bool           `toml:"quicksave_copy"`
	DaysBeforePruningSaves int            `toml:"days_before_pruning_saves"`
	SaveCleanupDryRun      bool           `toml:"save_cleanup_dry_run"`
	EnableSounds           bool           `toml:"enable_sounds"`
	InfoVolume             float64        `toml:"info_volume"`
	ErrorVolume            float64        `toml:"error_volume"`
	ColorLog               bool           `toml:"color_log"`
	DebugLog               bool           `toml:"debug_log"`
	Extra                  map[string]any `toml:"-"`
}

// knownKeys must match the toml tags above. Anything else in the file is
// treated as an unknown key and preserved verbatim.
var knownKeys = []string{
	"save_directory",
	"process_name",
	"check_interval",
	"quicksave_save",
	"quicksave_interval",
	"quicksave_copy",
	"days_before_pruning_saves",
	"save_cleanup_dry_run",
	"enable_sounds",
	"info_volume",
	"error_volume",
	"color_log",
	"debug_log",
}

// Defaults returns the configuration used when no file exists yet.
func Defaults() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		SaveDirectory:          filepath.Join(home, "Documents", "My Games", "Starfield", "Saves"),
		ProcessName:            "Starfield",
		CheckInterval:          10.0,
		QuicksaveSave:          true,
		QuicksaveInterval:      240.0,
		QuicksaveCopy:          true,
		DaysBeforePruningSaves: 0,
		SaveCleanupDryRun:      true,
		EnableSounds:           true,
		InfoVolume:             0.1,
		ErrorVolume:            0.5,
		ColorLog:               true,
		DebugLog:               false,
	}
}

// CheckIntervalDuration returns the time between main loop ticks.
func (c Config) CheckIntervalDuration() time.Duration {
	return time.Duration(c.CheckInterval * float64(time.Second))
}

// QuicksaveIntervalDuration returns the minimum time between scheduled quicksaves.
func (c Config) QuicksaveIntervalDuration() time.Duration {
	return time.Duration(c.QuicksaveInterval * float64(time.Second))
}

// Store loads and saves the configuration file at a fixed path.
type Store struct {
	path  string
	clock clockwork.Clock
	log   zerolog.Logger
}

// NewStore creates a Store. A nil clock means the real clock.
func NewStore(path string, clock clockwork.Clock, logger zerolog.Logger) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{path: path, clock: clock, log: logger}
}

// Path returns the location of the configuration file on disk.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration file, creating it with defaults if it doesn't
// exist. Parse failures are retried a few times because the file may be
// mid-write by an editor when the watcher fires. Missing keys are filled from
// defaults and the file is rewritten so it always shows the full surface.
func (s *Store) Load() (Config, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		cfg := Defaults()
		s.log.Info().Str("path", s.path).Msg("no config file found, writing defaults")
		if err := s.Save(cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}

	var lastErr error
	for attempt := 0; attempt < maxLoadRetries; attempt++ {
		if attempt > 0 {
			s.clock.Sleep(loadRetryDelay)
		}
		cfg, rewrite, err := s.loadOnce()
		if err != nil {
			lastErr = err
			continue
		}
		if rewrite {
			s.log.Debug().Msg("config file missing keys, rewriting with defaults filled in")
			if err := s.Save(cfg); err != nil {
				s.log.Warn().Err(err).Msg("failed to rewrite config with defaults")
			}
		}
		return cfg, nil
	}
	return Config{}, fmt.Errorf("failed to load config after %d attempts: %w", maxLoadRetries, lastErr)
}

func (s *Store) loadOnce() (Config, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}, false, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so keys absent from the file keep their default values.
	cfg := Defaults()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("failed to parse config: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, false, fmt.Errorf("failed to parse config: %w", err)
	}

	missing := false
	for _, key := range knownKeys {
		if _, ok := raw[key]; !ok {
			missing = true
		}
		delete(raw, key)
	}
	if len(raw) > 0 {
		cfg.Extra = raw
	}

	return cfg, missing, nil
}

// Save writes the configuration, folding any unknown keys back in.
func (s *Store) Save(cfg Config) error {
	if s.path == "" {
		return errors.New("config path not set")
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if len(cfg.Extra) > 0 {
		var merged map[string]any
		if err := toml.Unmarshal(data, &merged); err != nil {
			return fmt.Errorf("failed to remarshal config: %w", err)
		}
		for k, v := range cfg.Extra {
			merged[k] = v
		}
		data, err = toml.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
