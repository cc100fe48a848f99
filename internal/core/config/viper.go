package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("database.url", "sqlite://./printlijst.db")
	v.SetDefault("source.base_url", "https://account.goedgepickt.nl/api/v1")
	v.SetDefault("sync.page_size", 100)
	v.SetDefault("sync.max_pages", 10)
	v.SetDefault("sync.batch_size", 10)
	v.SetDefault("sync.batch_delay", "100ms")
	v.SetDefault("sync.error_cap", 10)
	v.SetDefault("logs.history", 50)

	// Bind environment variables with PL_ prefix
	v.SetEnvPrefix("PL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Security check: reject secrets in config files
	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		DatabaseURL:    v.GetString("database.url"),
		SourceBaseURL:  v.GetString("source.base_url"),
		SourceAPIKey:   SourceAPIKeyFromEnv(),
		WebhookSecret:  WebhookSecretFromEnv(),
		SyncPageSize:   v.GetInt("sync.page_size"),
		SyncMaxPages:   v.GetInt("sync.max_pages"),
		SyncBatchSize:  v.GetInt("sync.batch_size"),
		SyncBatchDelay: v.GetDuration("sync.batch_delay"),
		SyncErrorCap:   v.GetInt("sync.error_cap"),
		LogHistory:     v.GetInt("logs.history"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive sync tunables.
func validateConfig(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database url must not be empty")
	}
	if cfg.SyncPageSize <= 0 {
		return fmt.Errorf("sync page_size must be positive, got %d", cfg.SyncPageSize)
	}
	if cfg.SyncMaxPages <= 0 {
		return fmt.Errorf("sync max_pages must be positive, got %d", cfg.SyncMaxPages)
	}
	if cfg.SyncBatchSize <= 0 {
		return fmt.Errorf("sync batch_size must be positive, got %d", cfg.SyncBatchSize)
	}
	if cfg.SyncBatchDelay < 0 {
		return fmt.Errorf("sync batch_delay must not be negative, got %v", cfg.SyncBatchDelay)
	}
	if cfg.SyncErrorCap <= 0 {
		return fmt.Errorf("sync error_cap must be positive, got %d", cfg.SyncErrorCap)
	}
	if cfg.LogHistory <= 0 {
		return fmt.Errorf("logs history must be positive, got %d", cfg.LogHistory)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.IsSet("source.api_key") || v.IsSet("source_api_key") {
		return fmt.Errorf("API keys not allowed in config files (use PL_SOURCE_API_KEY environment variable)")
	}
	if v.IsSet("webhook.secret") || v.IsSet("webhook_secret") {
		return fmt.Errorf("webhook secrets not allowed in config files (use PL_WEBHOOK_SECRET environment variable)")
	}
	return nil
}
