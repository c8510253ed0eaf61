package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults -> config file -> environment variables (env wins).
	Load() (*Config, error)
}

type loader struct {
	dir string
}

// NewLoader creates a loader that searches dir for vantage.yml.
func NewLoader(dir string) Loader {
	return &loader{dir: dir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("vantage")
	v.SetConfigType("yaml")
	v.AddConfigPath(l.dir)

	// Environment overrides, e.g. VANTAGE_GITHUB_TOKEN,
	// VANTAGE_SERVER_WEBHOOK_SECRET.
	v.SetEnvPrefix("VANTAGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"server.address",
		"server.webhook_secret",
		"github.token",
		"github.base_url",
		"reasoning.endpoint",
		"reasoning.api_key",
		"reasoning.model",
		"analysis.max_distance",
		"analysis.max_context_files",
		"analysis.max_tokens",
		"queue.concurrency",
		"queue.max_attempts",
		"queue.backoff_base",
		"queue.rate_limit",
		"queue.rate_window",
		"storage.path",
		"logging.level",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults plus env vars carry the
		// configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("server.address", defaults.Server.Address)
	v.SetDefault("github.base_url", defaults.GitHub.BaseURL)
	v.SetDefault("reasoning.model", defaults.Reasoning.Model)
	v.SetDefault("analysis.max_distance", defaults.Analysis.MaxDistance)
	v.SetDefault("analysis.max_context_files", defaults.Analysis.MaxContextFiles)
	v.SetDefault("analysis.max_tokens", defaults.Analysis.MaxTokens)
	v.SetDefault("queue.concurrency", defaults.Queue.Concurrency)
	v.SetDefault("queue.max_attempts", defaults.Queue.MaxAttempts)
	v.SetDefault("queue.backoff_base", defaults.Queue.BackoffBase)
	v.SetDefault("queue.rate_limit", defaults.Queue.RateLimit)
	v.SetDefault("queue.rate_window", defaults.Queue.RateWindow)
	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("logging.level", defaults.Logging.Level)
}

// LoadFromDir loads configuration from a specific directory.
func LoadFromDir(dir string) (*Config, error) {
	return NewLoader(dir).Load()
}
