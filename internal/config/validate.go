package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSecret indicates a required credential is absent.
	ErrMissingSecret = errors.New("missing required secret")

	// ErrInvalidAnalysis indicates out-of-range analysis bounds.
	ErrInvalidAnalysis = errors.New("invalid analysis settings")

	// ErrInvalidQueue indicates out-of-range queue settings.
	ErrInvalidQueue = errors.New("invalid queue settings")

	// ErrInvalidLogLevel indicates an unsupported logging level.
	ErrInvalidLogLevel = errors.New("invalid logging level")
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Server.WebhookSecret) == "" {
		errs = append(errs, fmt.Errorf("%w: server.webhook_secret is required", ErrMissingSecret))
	}
	if strings.TrimSpace(cfg.GitHub.Token) == "" {
		errs = append(errs, fmt.Errorf("%w: github.token is required", ErrMissingSecret))
	}
	if strings.TrimSpace(cfg.Reasoning.Endpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: reasoning.endpoint is required", ErrMissingSecret))
	}

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		errs = append(errs, err)
	}
	if err := validateQueue(&cfg.Queue); err != nil {
		errs = append(errs, err)
	}

	if !validLogLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, fmt.Errorf("%w: must be debug, info, warn or error, got '%s'", ErrInvalidLogLevel, cfg.Logging.Level))
	}

	return joinErrors(errs)
}

func validateAnalysis(cfg *AnalysisConfig) error {
	var errs []error

	if cfg.MaxDistance < 1 {
		errs = append(errs, fmt.Errorf("%w: max_distance must be at least 1, got %d", ErrInvalidAnalysis, cfg.MaxDistance))
	}
	if cfg.MaxContextFiles < 0 {
		errs = append(errs, fmt.Errorf("%w: max_context_files cannot be negative, got %d", ErrInvalidAnalysis, cfg.MaxContextFiles))
	}
	if cfg.MaxTokens < 1 {
		errs = append(errs, fmt.Errorf("%w: max_tokens must be positive, got %d", ErrInvalidAnalysis, cfg.MaxTokens))
	}

	return joinErrors(errs)
}

func validateQueue(cfg *QueueConfig) error {
	var errs []error

	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidQueue, cfg.Concurrency))
	}
	if cfg.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%w: max_attempts must be at least 1, got %d", ErrInvalidQueue, cfg.MaxAttempts))
	}
	if cfg.BackoffBase <= 0 {
		errs = append(errs, fmt.Errorf("%w: backoff_base must be positive, got %s", ErrInvalidQueue, cfg.BackoffBase))
	}
	if cfg.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("%w: rate_limit must be at least 1, got %d", ErrInvalidQueue, cfg.RateLimit))
	}
	if cfg.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("%w: rate_window must be positive, got %s", ErrInvalidQueue, cfg.RateWindow))
	}

	return joinErrors(errs)
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
