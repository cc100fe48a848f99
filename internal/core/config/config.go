// Package config provides configuration management for the printlijst service.
package config

import (
	"os"
	"strings"
	"time"
)

// Config holds configuration for the printlijst HTTP service and sync pipeline.
type Config struct {
	Host        string
	Port        int
	DatabaseURL string

	// GoedGepickt API connection. The API key and webhook secret are
	// environment-only (PL_SOURCE_API_KEY, PL_WEBHOOK_SECRET) and never
	// read from config files.
	SourceBaseURL string
	SourceAPIKey  string
	WebhookSecret string

	SyncPageSize   int
	SyncMaxPages   int
	SyncBatchSize  int
	SyncBatchDelay time.Duration
	SyncErrorCap   int

	LogHistory int
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           3000,
		DatabaseURL:    "sqlite://./printlijst.db",
		SourceBaseURL:  "https://account.goedgepickt.nl/api/v1",
		SyncPageSize:   100,
		SyncMaxPages:   10,
		SyncBatchSize:  10,
		SyncBatchDelay: 100 * time.Millisecond,
		SyncErrorCap:   10,
		LogHistory:     50,
	}
}

// SourceAPIKeyFromEnv reads the GoedGepickt API key from the environment.
// Returns empty string when unset; the key can also live in the settings
// table, which callers consult as a fallback.
func SourceAPIKeyFromEnv() string {
	return strings.TrimSpace(os.Getenv("PL_SOURCE_API_KEY"))
}

// WebhookSecretFromEnv reads the webhook signing secret from the environment.
// An empty secret disables signature verification.
func WebhookSecretFromEnv() string {
	return strings.TrimSpace(os.Getenv("PL_WEBHOOK_SECRET"))
}
