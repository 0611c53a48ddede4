// Package config defines service configuration structures and loading hooks.
package config

import "time"

// Local backend names.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// BaseTarget is the target score before hazards.
	BaseTarget int `koanf:"base_target" validate:"gt=0"`

	// GoalPoints is the bonus per achieved community goal.
	GoalPoints int `koanf:"goal_points" validate:"gt=0"`

	// PlayerRows is the number of rows on a blank score sheet.
	PlayerRows int `koanf:"player_rows" validate:"gt=0,lte=12"`

	// LeaderboardSize caps the rows of each leaderboard.
	LeaderboardSize int `koanf:"leaderboard_size" validate:"gt=0"`

	Remote  RemoteConfig  `koanf:"remote"`
	Local   LocalConfig   `koanf:"local"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RemoteConfig configures the PostgreSQL store. An empty DSN disables it.
type RemoteConfig struct {
	DSN       string `koanf:"dsn"`
	Table     string `koanf:"table" validate:"required"`
	TimeoutMS int    `koanf:"timeout_ms" validate:"gt=0"`
}

// LocalConfig configures the fallback store.
type LocalConfig struct {
	Backend   string `koanf:"backend" validate:"oneof=file redis memory"`
	Path      string `koanf:"path" validate:"required_if=Backend file"`
	Key       string `koanf:"key" validate:"required"`
	RedisAddr string `koanf:"redis_addr" validate:"required_if=Backend redis"`
}

// MetricsConfig shapes the Prometheus metrics served on /healthz. Labels are
// constant labels added to every metric; set them from the YAML file.
type MetricsConfig struct {
	Enabled   bool              `koanf:"enabled"`
	Namespace string            `koanf:"namespace" validate:"omitempty,metric_name"`
	Subsystem string            `koanf:"subsystem" validate:"omitempty,metric_name"`
	Prefix    string            `koanf:"prefix" validate:"omitempty,metric_name"`
	Labels    map[string]string `koanf:"labels" validate:"dive,keys,metric_name,endkeys"`
	RefreshMS int               `koanf:"refresh_ms" validate:"gt=0"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		BaseTarget:      56,
		GoalPoints:      6,
		PlayerRows:      4,
		LeaderboardSize: 10,
		Remote: RemoteConfig{
			Table:     "scores",
			TimeoutMS: 5000,
		},
		Local: LocalConfig{
			Backend:   BackendFile,
			Path:      "data/local_storage.json",
			Key:       "rbd_scores",
			RedisAddr: "localhost:6379",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "rbd",
			Subsystem: "scoreboard",
			RefreshMS: 10000,
		},
	}
}

// RemoteEnabled reports whether a remote store is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.DSN != ""
}

// RemoteTimeout returns the per-call remote store timeout.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutMS) * time.Millisecond
}

// MetricsRefresh returns how often the system gauges are refreshed.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.Metrics.RefreshMS) * time.Millisecond
}
