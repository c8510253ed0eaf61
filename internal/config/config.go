// Package config loads service configuration from a YAML file with
// environment variable overrides (VANTAGE_*).
package config

import (
	"time"

	"github.com/vantage-review/vantage/internal/graph"
	"github.com/vantage-review/vantage/internal/queue"
)

// Config is the complete service configuration. It can be loaded from
// vantage.yml with environment variable overrides.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	GitHub    GitHubConfig    `yaml:"github" mapstructure:"github"`
	Reasoning ReasoningConfig `yaml:"reasoning" mapstructure:"reasoning"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Address       string `yaml:"address" mapstructure:"address"`
	WebhookSecret string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
}

// GitHubConfig configures the git host client.
type GitHubConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ReasoningConfig configures the external reasoning service.
type ReasoningConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	Model    string `yaml:"model" mapstructure:"model"`
}

// AnalysisConfig bounds context selection.
type AnalysisConfig struct {
	MaxDistance     int `yaml:"max_distance" mapstructure:"max_distance"`           // dependency graph traversal depth
	MaxContextFiles int `yaml:"max_context_files" mapstructure:"max_context_files"` // related files beyond the diff
	MaxTokens       int `yaml:"max_tokens" mapstructure:"max_tokens"`               // context token budget
}

// QueueConfig configures the review worker pool.
type QueueConfig struct {
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBase time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`
	RateLimit   int           `yaml:"rate_limit" mapstructure:"rate_limit"`   // job starts per window
	RateWindow  time.Duration `yaml:"rate_window" mapstructure:"rate_window"` // sliding window size
}

// StorageConfig locates the review database.
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite file, ":memory:" for ephemeral
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// Default returns a configuration with sensible defaults. Secrets have no
// defaults and must come from the file or environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
		},
		Reasoning: ReasoningConfig{
			Model: "deep-review-1",
		},
		Analysis: AnalysisConfig{
			MaxDistance:     graph.DefaultMaxDistance,
			MaxContextFiles: graph.DefaultMaxContextFiles,
			MaxTokens:       graph.DefaultMaxTokens,
		},
		Queue: QueueConfig{
			Concurrency: queue.DefaultConcurrency,
			MaxAttempts: queue.DefaultMaxAttempts,
			BackoffBase: queue.DefaultBackoffBase,
			RateLimit:   queue.DefaultRateLimit,
			RateWindow:  queue.DefaultRateWindow,
		},
		Storage: StorageConfig{
			Path: "vantage.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// QueueOptions maps the queue section onto pool options.
func (c *Config) QueueOptions() queue.Options {
	return queue.Options{
		Concurrency: c.Queue.Concurrency,
		MaxAttempts: c.Queue.MaxAttempts,
		BackoffBase: c.Queue.BackoffBase,
		RateLimit:   c.Queue.RateLimit,
		RateWindow:  c.Queue.RateWindow,
	}
}
