package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/printlijst/printlijst/internal/core/config"
	"github.com/printlijst/printlijst/internal/core/db"
	"github.com/printlijst/printlijst/internal/goedgepickt"
	"github.com/printlijst/printlijst/internal/store"
	"github.com/printlijst/printlijst/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:       "sync [orders|status|tags|priorities]",
	Short:     "Run one sync pass and print the summary",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"orders", "status", "tags", "priorities"},
	RunE:      runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := newLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	st := store.New(queries, log)

	apiKey := cfg.SourceAPIKey
	if apiKey == "" {
		apiKey, err = st.Setting(store.SettingAPIKey)
		if err != nil {
			return fmt.Errorf("failed to read stored api key: %w", err)
		}
	}
	if apiKey == "" {
		return fmt.Errorf("no GoedGepickt api key configured (set PL_SOURCE_API_KEY)")
	}

	source := goedgepickt.NewClient(cfg.SourceBaseURL, apiKey, log)
	orch := sync.New(st, source, sync.Options{
		PageSize:   cfg.SyncPageSize,
		MaxPages:   cfg.SyncMaxPages,
		BatchSize:  cfg.SyncBatchSize,
		BatchDelay: cfg.SyncBatchDelay,
		ErrorCap:   cfg.SyncErrorCap,
		LogHistory: cfg.LogHistory,
	}, log)

	var summary *sync.Summary
	switch args[0] {
	case "orders":
		summary, err = orch.RunOrderSync(ctx)
	case "status":
		summary, err = orch.RunStatusSync(ctx)
	case "tags":
		summary, err = orch.RunTagSync(ctx)
	case "priorities":
		summary, err = orch.RunPrioritySync(ctx)
	default:
		return fmt.Errorf("unknown sync kind %q", args[0])
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
