package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// DefaultDir is the on-disk migrations root used by create and validate.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*/*.sql
var embedded embed.FS

// DialectDir returns the migrations subdirectory for a driver.
func DialectDir(driver string) (string, error) {
	switch driver {
	case config.DriverPostgres, config.DriverMySQL, config.DriverSQLite:
		return driver, nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

func gooseDialect(driver string) string {
	if driver == config.DriverSQLite {
		return "sqlite3"
	}
	return driver
}

// prepare points goose at the embedded migrations when dir is empty, or at
// the filesystem otherwise, and returns the directory goose should read.
func prepare(driver, dir string) (string, error) {
	sub, err := DialectDir(driver)
	if err != nil {
		return "", err
	}
	if err := goose.SetDialect(gooseDialect(driver)); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if dir == "" {
		goose.SetBaseFS(embedded)
		return path.Join("migrations", sub), nil
	}
	goose.SetBaseFS(nil)
	return path.Join(dir, sub), nil
}

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, driver, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	target, err := prepare(driver, dir)
	if err != nil {
		return err
	}

	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, db, target, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	migrationsDir, err := prepare(driver, dir)
	if err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, migrationsDir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	default:
		if err := goose.DownToContext(ctx, db, migrationsDir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}

// EmbeddedFiles lists the bundled migration filenames for a driver.
func EmbeddedFiles(driver string) ([]string, error) {
	sub, err := DialectDir(driver)
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(embedded, path.Join("migrations", sub))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
