package users

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/testdb"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func strPtr(v string) *string { return &v }

func TestGetReturnsProfile(t *testing.T) {
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn), testdb.Client(conn))
	require.NoError(t, err)
	ctx := context.Background()

	user := testdb.SeedUser(t, conn, "profile@example.com")
	require.NoError(t, conn.Create(&models.UserProfile{UserID: user.ID, DisplayName: "Pat"}).Error)

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "Pat", got.Profile.DisplayName)

	_, err = svc.Get(ctx, 9999)
	assert.Equal(t, "User not found", pkgerrors.As(err).Message())
}

func TestUpdateProfileCreatesMissingProfile(t *testing.T) {
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn), testdb.Client(conn))
	require.NoError(t, err)
	ctx := context.Background()
	user := testdb.SeedUser(t, conn, "lazy@example.com")

	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Bio: strPtr("  hello  ")})
	require.NoError(t, err)
	require.NotNil(t, updated.Profile)
	assert.Equal(t, "lazy", updated.Profile.DisplayName)
	assert.Equal(t, "hello", *updated.Profile.Bio)

	cleared, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{DisplayName: strPtr("Lazy Larry"), Bio: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Lazy Larry", cleared.Profile.DisplayName)
	assert.Nil(t, cleared.Profile.Bio)

	var profiles int64
	require.NoError(t, conn.Model(&models.UserProfile{}).Where("user_id = ?", user.ID).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)
}

func TestUpdateProfileValidation(t *testing.T) {
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn), testdb.Client(conn))
	require.NoError(t, err)
	ctx := context.Background()
	user := testdb.SeedUser(t, conn, "v@example.com")

	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{DisplayName: strPtr("   ")})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Bio: strPtr(strings.Repeat("x", maxBioLen+1))})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = svc.UpdateProfile(ctx, 4321, UpdateProfileInput{DisplayName: strPtr("Ghost")})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDeleteCascadesOwnedRows(t *testing.T) {
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn), testdb.Client(conn))
	require.NoError(t, err)
	ctx := context.Background()

	doomed := testdb.SeedUser(t, conn, "doomed@example.com")
	friend := testdb.SeedUser(t, conn, "friend@example.com")
	product := testdb.SeedProduct(t, conn, "Thing", "3.00", 5)

	require.NoError(t, conn.Create(&models.UserProfile{UserID: doomed.ID, DisplayName: "D"}).Error)
	cart := models.Cart{UserID: doomed.ID, Total: decimal.RequireFromString("3.00")}
	require.NoError(t, conn.Create(&cart).Error)
	require.NoError(t, conn.Create(&models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1, PriceAtTime: product.Price}).Error)
	review := models.Review{ProductID: product.ID, UserID: doomed.ID, Rating: 5, Content: "mine", IsVisible: true}
	require.NoError(t, conn.Create(&review).Error)
	require.NoError(t, conn.Create(&models.ReviewReply{ReviewID: review.ID, UserID: friend.ID, Content: "nice"}).Error)
	require.NoError(t, conn.Create(&models.Follow{FollowerID: doomed.ID, FollowingID: friend.ID}).Error)
	require.NoError(t, conn.Create(&models.Follow{FollowerID: friend.ID, FollowingID: doomed.ID}).Error)

	require.NoError(t, svc.Delete(ctx, doomed.ID))

	for name, model := range map[string]any{
		"users":          &models.User{},
		"profiles":       &models.UserProfile{},
		"carts":          &models.Cart{},
		"cart items":     &models.CartItem{},
		"reviews":        &models.Review{},
		"review replies": &models.ReviewReply{},
		"follows":        &models.Follow{},
	} {
		var count int64
		require.NoError(t, conn.Model(model).Count(&count).Error)
		want := int64(0)
		if name == "users" {
			want = 1
		}
		assert.Equal(t, want, count, name)
	}

	assert.True(t, pkgerrors.Is(svc.Delete(ctx, doomed.ID), pkgerrors.CodeNotFound))
}
