package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/testdb"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func TestEnsureForUserIsIdempotent(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	user := testdb.SeedUser(t, conn, "ensure@example.com")

	first, err := repo.EnsureForUser(ctx, user.ID)
	require.NoError(t, err)
	second, err := repo.EnsureForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Total.IsZero())

	var count int64
	require.NoError(t, conn.Model(&models.Cart{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertItemIncrementsWithoutTouchingPrice(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	user := testdb.SeedUser(t, conn, "upsert@example.com")
	product := testdb.SeedProduct(t, conn, "Bolt", "0.40", 500)

	cart, err := repo.EnsureForUser(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, repo.UpsertItem(ctx, cart.ID, product.ID, 5, decimal.RequireFromString("0.40")))
	require.NoError(t, repo.UpsertItem(ctx, cart.ID, product.ID, 7, decimal.RequireFromString("0.55")))

	item, err := repo.FindItemByProduct(ctx, cart.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, item.Quantity)
	assert.True(t, item.PriceAtTime.Equal(decimal.RequireFromString("0.40")))

	total, err := repo.RecomputeTotal(ctx, cart.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("4.80")), "got %s", total)
}

func TestRecomputeTotalOnEmptyCart(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	user := testdb.SeedUser(t, conn, "zero@example.com")

	cart, err := repo.EnsureForUser(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Cart{}).Where("id = ?", cart.ID).Update("total", decimal.NewFromInt(99)).Error)

	total, err := repo.RecomputeTotal(ctx, cart.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	reloaded, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Total.IsZero())
	assert.Empty(t, reloaded.Items)
}

func TestDeleteItemScopedToCart(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	alice := testdb.SeedUser(t, conn, "alice@example.com")
	bob := testdb.SeedUser(t, conn, "bob@example.com")
	product := testdb.SeedProduct(t, conn, "Nut", "0.10", 10)

	aliceCart, err := repo.EnsureForUser(ctx, alice.ID)
	require.NoError(t, err)
	bobCart, err := repo.EnsureForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.NoError(t, repo.UpsertItem(ctx, aliceCart.ID, product.ID, 1, product.Price))

	item, err := repo.FindItemByProduct(ctx, aliceCart.ID, product.ID)
	require.NoError(t, err)

	affected, err := repo.DeleteItem(ctx, bobCart.ID, item.ID)
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.DeleteItem(ctx, aliceCart.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}
