package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/diasporabridge/bridge/internal/core"
	"github.com/diasporabridge/bridge/internal/photos"
	"github.com/diasporabridge/bridge/internal/storage"
	"github.com/diasporabridge/bridge/internal/stripe"
	"github.com/diasporabridge/bridge/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the platform API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig()
			if err := Validate(cfg); err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

			store, err := storage.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer store.Close()

			var uploader core.PhotoUploader
			if cfg.S3Bucket != "" {
				uploader, err = photos.NewS3Uploader(cmd.Context(), cfg.S3Bucket, cfg.AWSRegion, cfg.S3PublicURL)
				if err != nil {
					return fmt.Errorf("failed to create photo uploader: %w", err)
				}
			}

			platform := core.NewPlatform(core.PlatformDeps{
				Config:   cfg,
				Store:    store,
				Payments: stripe.NewClient(cfg.StripeSecretKey),
				Photos:   uploader,
				Logger:   logger,
			})

			server := web.NewServer(platform, web.NewJWTAuth(cfg.AdminJWTSecret), cfg, logger)

			logger.Info("starting server", "addr", addr)
			return server.Run(addr)
		},
	}

	defaultAddr := os.Getenv("BRIDGE_ADDR")
	if defaultAddr == "" {
		defaultAddr = ":8080"
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "server address")

	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig()

			store, err := storage.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer store.Close()

			fmt.Printf("Database ready at %s\n", cfg.DBPath)
			return nil
		},
	}
}
