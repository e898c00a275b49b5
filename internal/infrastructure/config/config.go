package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/coni/hyperisle/internal/shared/types"
)

// Config holds all engine configuration.
type Config struct {
	Server  ServerConfig
	Engine  EngineConfig
	Storage StorageConfig
	Prefs   PrefsConfig
	Bridge  BridgeConfig
	Logging LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port      string `envconfig:"PORT" default:"8750"`
	Host      string `envconfig:"HOST" default:"127.0.0.1"`
	RateRPS   int    `envconfig:"SERVER_RATE_RPS" default:"200"`
	RateBurst int    `envconfig:"SERVER_RATE_BURST" default:"400"`
}

// EngineConfig holds pipeline timing and arbitration defaults.
// Preference flows can override most of these at runtime.
type EngineConfig struct {
	QueueSize       int    `envconfig:"ENGINE_QUEUE_SIZE" default:"256"`
	MinVisibleMs    int    `envconfig:"ENGINE_MIN_VISIBLE_MS" default:"700"`
	DedupeWindowMs  int    `envconfig:"ENGINE_DEDUPE_WINDOW_MS" default:"1500"`
	CooldownSeconds int    `envconfig:"ENGINE_COOLDOWN_SECONDS" default:"30"`
	FastDismissMs   int    `envconfig:"ENGINE_FAST_DISMISS_MS" default:"4000"`
	BurstWindowMs   int    `envconfig:"ENGINE_BURST_WINDOW_MS" default:"10000"`
	BurstSize       int    `envconfig:"ENGINE_BURST_SIZE" default:"3"`
	QuietHoursStart int    `envconfig:"ENGINE_QUIET_START" default:"22"`
	QuietHoursEnd   int    `envconfig:"ENGINE_QUIET_END" default:"7"`
	LimitMode       string `envconfig:"ENGINE_LIMIT_MODE" default:"PRIORITY"`
	Debug           bool   `envconfig:"ENGINE_DEBUG" default:"false"`
	DumpCapacity    int    `envconfig:"ENGINE_DUMP_CAPACITY" default:"256"`
}

// StorageConfig holds sqlite persistence configuration.
type StorageConfig struct {
	Path string `envconfig:"STORAGE_PATH" default:"hyperisle.db"`
}

// PrefsConfig holds preference file configuration.
type PrefsConfig struct {
	Path       string `envconfig:"PREFS_PATH" default:"prefs.toml"`
	PresetPath string `envconfig:"PRESET_PATH" default:"presets.yaml"`
	Watch      bool   `envconfig:"PREFS_WATCH" default:"true"`
}

// BridgeConfig holds the native island bridge client configuration.
type BridgeConfig struct {
	URL        string `envconfig:"BRIDGE_URL" default:""`
	Enabled    bool   `envconfig:"BRIDGE_ENABLED" default:"false"`
	RetryCount int    `envconfig:"BRIDGE_RETRY_COUNT" default:"3"`
	TimeoutMs  int    `envconfig:"BRIDGE_TIMEOUT_MS" default:"1500"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "8750",
			Host:      "127.0.0.1",
			RateRPS:   200,
			RateBurst: 400,
		},
		Engine: EngineConfig{
			QueueSize:       256,
			MinVisibleMs:    700,
			DedupeWindowMs:  1500,
			CooldownSeconds: 30,
			FastDismissMs:   4000,
			BurstWindowMs:   10000,
			BurstSize:       3,
			QuietHoursStart: 22,
			QuietHoursEnd:   7,
			LimitMode:       string(types.LimitPriority),
			DumpCapacity:    256,
		},
		Storage: StorageConfig{
			Path: "hyperisle.db",
		},
		Prefs: PrefsConfig{
			Path:       "prefs.toml",
			PresetPath: "presets.yaml",
			Watch:      true,
		},
		Bridge: BridgeConfig{
			RetryCount: 3,
			TimeoutMs:  1500,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// MinVisible returns the minimum visible window as a duration.
func (c EngineConfig) MinVisible() time.Duration {
	return time.Duration(c.MinVisibleMs) * time.Millisecond
}

// DedupeWindow returns the same-content dedupe window as a duration.
func (c EngineConfig) DedupeWindow() time.Duration {
	return time.Duration(c.DedupeWindowMs) * time.Millisecond
}

// Cooldown returns the dismiss cooldown as a duration.
func (c EngineConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// FastDismiss returns the fast-dismiss threshold as a duration.
func (c EngineConfig) FastDismiss() time.Duration {
	return time.Duration(c.FastDismissMs) * time.Millisecond
}

// BurstWindow returns the burst-control window as a duration.
func (c EngineConfig) BurstWindow() time.Duration {
	return time.Duration(c.BurstWindowMs) * time.Millisecond
}

// BridgeTimeout returns the native bridge request timeout.
func (c BridgeConfig) BridgeTimeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
