package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashishsumanth1/Resume-Council/internal/config"
	"github.com/ashishsumanth1/Resume-Council/internal/server"
	"github.com/ashishsumanth1/Resume-Council/internal/store"
)

var (
	serveConfigPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running the resume council pipeline, browsing saved runs, and managing master profiles.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by environment)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to COUNCIL_ADDR or :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	log := newLogger(false, false)

	pipeline, registry, err := buildCouncil(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer registry.Close() //nolint:errcheck

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:                cfg.Addr,
		ProfilePackMaxChars: cfg.ProfilePackMaxChars,
	}, pipeline, st, log)

	return srv.Start()
}
