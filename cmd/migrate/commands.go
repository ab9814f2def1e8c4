package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

// migrate up
var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  gooseCommand("up"),
}

// migrate down
var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE:  gooseCommand("down"),
}

// migrate status
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of each migration",
	RunE:  gooseCommand("status"),
}

// migrate version <YYYYMMDDHHMMSS>
var versionCmd = &cobra.Command{
	Use:   "version <version>",
	Short: "Migrate up or down to the given version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), "version", func(ctx context.Context, sqlDB *sql.DB, driver string) error {
			return migrate.MigrateToVersion(ctx, sqlDB, driver, migrationsDir, args[0])
		})
	},
}

// migrate create <name>
var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty SQL migration for every dialect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := migrate.CreateSQLMigration(authoringDir(), args[0], time.Now())
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", p)
		}
		return nil
	},
}

// migrate validate
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check migration filenames and goose headers across dialects",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := migrate.ValidateTree(authoringDir()); err != nil {
			return fmt.Errorf("migration validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
		return nil
	},
}

func authoringDir() string {
	if migrationsDir == "" {
		return migrate.DefaultDir
	}
	return migrationsDir
}

func gooseCommand(name string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), name, func(ctx context.Context, sqlDB *sql.DB, driver string) error {
			return migrate.Run(ctx, sqlDB, driver, migrationsDir, name)
		})
	}
}

// withDB loads config, opens the database and hands the raw connection to fn.
func withDB(ctx context.Context, name string, fn func(context.Context, *sql.DB, string) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"cmd":    name,
		"dir":    migrationsDir,
		"driver": cfg.DB.NormalizedDriver(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	logg.Info(ctx, "migrate ready")
	if err := fn(ctx, sqlDB, dbClient.Driver()); err != nil {
		logg.Error(ctx, "migrate failed", err)
		return err
	}
	logg.Info(ctx, "migrate complete")
	return nil
}
