// Package config defines service configuration and its loading.
//
// Values are layered, lowest precedence first: defaults from New, an optional
// YAML file named by TRADEVALUE_CONFIG, then TRADEVALUE_* environment
// variables. A .env file is read into the environment before that.
package config

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// CORSOrigins lists browser origins allowed to call the API. Empty disables CORS.
	CORSOrigins []string `koanf:"cors_origins"`
	// MaxLeaderboardLimit caps the limit of list endpoints.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// QueueSize bounds the vote round queue.
	QueueSize int `koanf:"queue_size"`
	// DedupeSize is how many round ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// Store selects the backend: memory or sqlite.
	Store string `koanf:"store"`
	// PlayersFile is the JSON player catalog. The sqlite store is seeded from it.
	PlayersFile string `koanf:"players_file"`
	// PersistPlayers writes updated values back to PlayersFile (memory store).
	PersistPlayers bool `koanf:"persist_players"`
	// SnapshotDir holds <day>.json snapshots of the memory store.
	SnapshotDir string `koanf:"snapshot_dir"`
	// DBPath is the sqlite database file.
	DBPath string `koanf:"db_path"`

	// SnapshotIntervalMinutes schedules automatic snapshots; 0 disables them.
	SnapshotIntervalMinutes int `koanf:"snapshot_interval_minutes"`
	// MoverWindowDays is the default baseline window of the movers report.
	MoverWindowDays int `koanf:"mover_window_days"`

	// NATSURL publishes domain events to a NATS server when set.
	NATSURL string `koanf:"nats_url"`
	// NATSSubject prefixes event subjects.
	NATSSubject string `koanf:"nats_subject"`
	// NATSEmbedded starts an in-process NATS server and publishes to it.
	NATSEmbedded bool `koanf:"nats_embedded"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		MaxLeaderboardLimit:     100,
		QueueSize:               1024,
		DedupeSize:              50_000,
		Store:                   StoreMemory,
		PlayersFile:             "players.json",
		SnapshotDir:             "snapshots",
		DBPath:                  "tradevalue.db",
		SnapshotIntervalMinutes: 24 * 60,
		MoverWindowDays:         30,
		NATSSubject:             "tradevalue",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !slices.Contains([]string{"text", "json"}, c.LogFormat):
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreSQLite:
		return fmt.Errorf("%w: store must be %s or %s, got %q", ErrInvalidConfig, StoreMemory, StoreSQLite, c.Store)
	case c.Store == StoreSQLite && c.DBPath == "":
		return fmt.Errorf("%w: db_path is required for the sqlite store", ErrInvalidConfig)
	case c.PersistPlayers && c.PlayersFile == "":
		return fmt.Errorf("%w: persist_players needs players_file", ErrInvalidConfig)
	case c.SnapshotIntervalMinutes < 0:
		return fmt.Errorf("%w: snapshot_interval_minutes must not be negative", ErrInvalidConfig)
	case c.MoverWindowDays <= 0:
		return fmt.Errorf("%w: mover_window_days must be positive", ErrInvalidConfig)
	case c.NATSEmbedded && c.NATSURL != "":
		return fmt.Errorf("%w: nats_url and nats_embedded are mutually exclusive", ErrInvalidConfig)
	}
	return nil
}
