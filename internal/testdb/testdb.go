// Package testdb opens throwaway sqlite databases with the full schema for
// repository and service tests.
package testdb

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Open returns a migrated in-memory database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", unsafeName.ReplaceAllString(t.Name(), "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps conn in a db.Client so services get a real transaction runner.
func Client(conn *gorm.DB) *db.Client {
	return db.NewFromGorm(conn, config.DriverSQLite)
}

// SeedUser inserts a customer with the given email.
func SeedUser(t testing.TB, conn *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "hash", Role: enums.UserRoleCustomer}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedProduct inserts a product priced at price with the given stock.
func SeedProduct(t testing.TB, conn *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:   name,
		Slug:   strings.ToLower(unsafeName.ReplaceAllString(name, "-")),
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Rating: decimal.Zero,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}
