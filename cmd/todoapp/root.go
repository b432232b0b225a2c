package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/todoapp/todoapp-go/internal/config"
	"github.com/todoapp/todoapp-go/internal/repository"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "todoapp",
	Short: "Multi-user todo list API",
	Long:  `todoapp serves a JSON API where registered users manage their own todo items and admins can see and remove everyone's.`,
	Example: `todoapp
  DATABASE_DRIVER=mysql DATABASE_DSN='todo:todo@tcp(127.0.0.1:3306)/todos' todoapp serve
  todoapp create-admin --username root --email root@example.com`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file found, using environment variables")
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		setupLogger(cfg)
		return nil
	},
	RunE: serve,
}

// setupLogger installs a charm log handler as the slog default.
func setupLogger(cfg config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}

	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
	}
	if cfg.IsProduction() {
		opts.Formatter = log.JSONFormatter
	}

	slog.SetDefault(slog.New(log.NewWithOptions(os.Stderr, opts)))
}

// openDB connects to the configured database and applies migrations when
// migrate is set.
func openDB(ctx context.Context, migrate bool) (*sql.DB, error) {
	db, err := repository.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if migrate {
		if err := repository.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return db, nil
}
