package config

import "time"

// Config is the root configuration for the exporter daemon.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Feed     FeedConfig     `yaml:"feed"`
	Poller   PollerConfig   `yaml:"poller"`
	Export   ExportConfig   `yaml:"export"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Database DBConfig       `yaml:"database"`
	Recorder RecorderConfig `yaml:"recorder"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// APIConfig holds StreamElements REST API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// FeedConfig holds live feed settings. Channels lists rooms to
// subscribe beyond the tracked set.
type FeedConfig struct {
	Enabled  bool     `yaml:"enabled"`
	URL      string   `yaml:"url"`
	Channels []string `yaml:"channels"`
}

// PollerConfig holds stats poller settings. Channels are pinned into
// the tracked set alongside "global"; TrackTop additionally tracks the
// N most active channels.
type PollerConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	Channels    []string      `yaml:"channels"`
	TrackTop    int           `yaml:"track_top"`
}

// ExportConfig selects the exported stat families.
type ExportConfig struct {
	Names []string `yaml:"names"`
}

// MetricsConfig holds the Prometheus scrape endpoint settings.
type MetricsConfig struct {
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// DBConfig holds the PostgreSQL connection for recorded stat changes.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RecorderConfig holds batch recorder settings. The recorder is off
// unless enabled; Database is only required when it is on.
type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
