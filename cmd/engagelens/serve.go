package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"engagelens/internal/genai"
	"engagelens/internal/server"
	"engagelens/internal/store"
	"engagelens/pkg/artifact"
	"engagelens/pkg/auth"
	"engagelens/pkg/config"
	"engagelens/pkg/instagram"
	"engagelens/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Start the engagement analysis API server.

The anonymous provider capability (post fetch, engagement reports) is always
available. Follower export requires Instagram credentials, supplied via
config, environment, or the system keychain.`,
	Example: `  # Serve with defaults (listens on :8000)
  engagelens serve

  # Serve with a config file
  engagelens serve --config engagelens.yaml`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(logger.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Set(log)

	log.Info().Str("version", version).Msg("engagelens starting")

	clientOpts := instagram.Options{
		BaseURL:           cfg.Instagram.BaseURL,
		UserAgent:         cfg.Instagram.UserAgent,
		Timeout:           cfg.Instagram.RequestTimeout,
		RequestsPerMinute: cfg.Instagram.RequestsPerMinute,
		Logger:            log,
	}
	client := instagram.NewClient(clientOpts)

	// Credentials from config/env win; otherwise fall back to the keychain
	// entry for the configured username. The follower capability stays off
	// when neither yields a complete pair.
	username, password := cfg.Instagram.Username, cfg.Instagram.Password
	if password == "" && username != "" {
		if account, err := auth.NewManager().Retrieve(username); err == nil {
			password = account.Password
		}
	}

	var followers server.FollowerFetcher
	if username != "" && password != "" {
		session, err := instagram.NewSession(clientOpts, username, password)
		if err != nil {
			return err
		}
		followers = session
		log.Info().Str("username", username).Msg("follower export enabled")
	} else {
		log.Warn().Msg("no provider credentials configured; follower export disabled")
	}

	artifacts, err := artifact.NewWriter(cfg.ObjectStore, log)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	generator := genai.NewClient(cfg.OpenAI, log)

	srv := server.New(cfg, client, followers, artifacts, generator, db, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
	return srv.Run(ctx)
}
