package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
)

func TestBundledMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateTree("migrations"))
}

func TestEmbeddedFilesMatchAcrossDialects(t *testing.T) {
	pg, err := EmbeddedFiles(config.DriverPostgres)
	require.NoError(t, err)
	my, err := EmbeddedFiles(config.DriverMySQL)
	require.NoError(t, err)
	lite, err := EmbeddedFiles(config.DriverSQLite)
	require.NoError(t, err)

	assert.NotEmpty(t, pg)
	assert.Equal(t, pg, my)
	assert.Equal(t, pg, lite)

	_, err = EmbeddedFiles("oracle")
	assert.Error(t, err)
}

func TestCartMigrationDeclaresUniqueConstraints(t *testing.T) {
	for _, driver := range []string{config.DriverPostgres, config.DriverMySQL, config.DriverSQLite} {
		matches, err := filepath.Glob(filepath.Join("migrations", driver, "*_create_carts.sql"))
		require.NoError(t, err)
		require.Len(t, matches, 1, driver)

		data, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "idx_carts_user_id", driver)
		assert.Contains(t, content, "idx_cart_items_cart_product", driver)
	}
}

func TestRunUpOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_run_up?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	client := db.NewFromGorm(conn, config.DriverSQLite)
	sqlDB, err := client.SQL()
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), sqlDB, config.DriverSQLite, "", "up"))

	for _, table := range []string{"users", "user_profiles", "follows", "products", "reviews", "review_replies", "carts", "cart_items"} {
		assert.True(t, conn.Migrator().HasTable(table), "expected table %s", table)
	}

	require.NoError(t, MigrateToVersion(context.Background(), sqlDB, config.DriverSQLite, "", "20260301120100"))
	assert.False(t, conn.Migrator().HasTable("carts"))
	assert.True(t, conn.Migrator().HasTable("products"))
}

func TestCreateSQLMigrationWritesEveryDialect(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	paths, err := CreateSQLMigration(root, "Add Wishlist!", now)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, p := range paths {
		assert.True(t, strings.HasSuffix(p, "20260401093000_add_wishlist.sql"), p)
	}
	require.NoError(t, ValidateTree(root))

	_, err = CreateSQLMigration(root, "Add Wishlist", now)
	assert.Error(t, err, "same version and name should collide")

	_, err = CreateSQLMigration(root, "!!!", now)
	assert.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}
