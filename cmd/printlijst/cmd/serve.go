package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/printlijst/printlijst/internal/core/config"
	"github.com/printlijst/printlijst/internal/core/db"
	"github.com/printlijst/printlijst/internal/core/server"
	"github.com/printlijst/printlijst/internal/goedgepickt"
	"github.com/printlijst/printlijst/internal/store"
	"github.com/printlijst/printlijst/internal/sync"
)

const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the printlijst HTTP service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	serveCmd.Flags().Int("port", 3000, "HTTP server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := newLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Port = port
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

	// The API key is environment-first with the settings table as fallback,
	// so a fresh install can be bootstrapped through the settings endpoint.
	apiKey := cfg.SourceAPIKey
	if apiKey == "" {
		apiKey, err = st.Setting(store.SettingAPIKey)
		if err != nil {
			return fmt.Errorf("failed to read stored api key: %w", err)
		}
	}
	if apiKey == "" {
		log.Warn().Msg("no GoedGepickt api key configured, source calls will fail until one is set")
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

	srv := server.New(cfg, st, orch, source, log)

	log.Info().
		Str("version", Version).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("starting printlijst")

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info().Msg("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
