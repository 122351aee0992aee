package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/auth"
	"github.com/evcraddock/rent-finder/internal/db"
	"github.com/evcraddock/rent-finder/internal/logging"
	"github.com/evcraddock/rent-finder/internal/media"
	"github.com/evcraddock/rent-finder/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		port   int
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the rent-finder JSON API.

Configuration comes from the environment: RF_JWT_SECRET, RF_ADMIN_EMAIL,
RF_BASE_URL, RF_DEV_MODE, RF_SMTP_* for email, and RF_MEDIA_PROVIDER
(imagekit or s3) with RF_IMAGEKIT_* or RF_S3_* for image uploads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runServe(ctx, port, dbPath)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: $RF_DB_PATH or ~/.config/rf/server.db)")

	return cmd
}

func runServe(ctx context.Context, port int, dbPath string) error {
	cfg := auth.ConfigFromEnv()
	logging.Setup(cfg.DevMode)

	if dbPath == "" {
		var err error
		dbPath, err = db.DefaultPath()
		if err != nil {
			return err
		}
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			slog.Warn("closing database", "error", cerr)
		}
	}()

	signer, err := media.NewSigner(ctx, media.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("configuring image uploads: %w", err)
	}
	if signer == nil {
		slog.Info("image uploads disabled", "hint", "set RF_MEDIA_PROVIDER")
	}

	srv, err := web.NewServer(database, cfg, signer)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(port)
}
