package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var (
	nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)
)

// CreateSQLMigration creates the same goose SQL migration in every dialect
// directory under root:
//
//	<root>/<driver>/<YYYYMMDDHHMMSS>_<name>.sql
func CreateSQLMigration(root string, name string, now time.Time) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("dir is required")
	}
	safe, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}

	version := now.UTC().Format("20060102150405")
	filename := fmt.Sprintf("%s_%s.sql", version, safe)

	drivers := []string{config.DriverPostgres, config.DriverMySQL, config.DriverSQLite}
	paths := make([]string, 0, len(drivers))
	for _, driver := range drivers {
		dir := filepath.Join(root, driver)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %q: %w", dir, err)
		}
		fullpath := filepath.Join(dir, filename)
		if _, err := os.Stat(fullpath); err == nil {
			return nil, fmt.Errorf("migration already exists: %s", fullpath)
		}
		paths = append(paths, fullpath)
	}

	template := fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
-- %s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %s
-- +goose StatementEnd
`, safe, safe)

	for _, fullpath := range paths {
		if err := os.WriteFile(fullpath, []byte(template), 0o644); err != nil {
			return nil, fmt.Errorf("write migration %q: %w", fullpath, err)
		}
	}
	return paths, nil
}

func sanitizeName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	return safe, nil
}
