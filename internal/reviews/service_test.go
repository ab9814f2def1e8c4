package reviews

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/testdb"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
)

type memoryCache struct {
	values map[string]string
	gets   int
	dels   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dst any) error {
	m.gets++
	raw, ok := m.values[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal([]byte(raw), dst)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = string(payload)
	return nil
}

func (m *memoryCache) CacheKey(parts ...string) string {
	return "sf:cache:" + strings.Join(parts, ":")
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	m.dels++
	return nil
}

func newTestService(t *testing.T, cache redis.JSONCache) (Service, *gorm.DB) {
	t.Helper()
	conn := testdb.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:            NewRepository(conn),
		Products:        products.NewRepository(conn),
		Tx:              testdb.Client(conn),
		Cache:           cache,
		EngagementLimit: 10,
	})
	require.NoError(t, err)
	return svc, conn
}

func author(id uint) visibility.Viewer { return visibility.Viewer{UserID: id} }

var admin = visibility.Viewer{UserID: 999, IsAdmin: true}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	conn := testdb.Open(t)
	_, err := NewService(ServiceParams{Products: products.NewRepository(conn), Tx: testdb.Client(conn)})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Repo: NewRepository(conn), Tx: testdb.Client(conn)})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Repo: NewRepository(conn), Products: products.NewRepository(conn)})
	assert.Error(t, err)
}

func TestCreateAndListReviews(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	user := testdb.SeedUser(t, conn, "reviewer@example.com")
	product := testdb.SeedProduct(t, conn, "Kettle", "40.00", 3)

	for i := 1; i <= 3; i++ {
		_, err := svc.Create(ctx, user.ID, product.ID, CreateReviewInput{Rating: i, Content: "  solid kettle  "})
		require.NoError(t, err)
	}

	first, err := svc.ListByProduct(ctx, product.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Reviews, 2)
	assert.Equal(t, "solid kettle", first.Reviews[0].Content)
	assert.Equal(t, 3, first.Reviews[0].Rating)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListByProduct(ctx, product.ID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Reviews, 1)
	assert.Equal(t, 1, second.Reviews[0].Rating)
	assert.Empty(t, second.NextCursor)
}

func TestCreateReviewValidation(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	user := testdb.SeedUser(t, conn, "v@example.com")
	product := testdb.SeedProduct(t, conn, "Toaster", "25.00", 3)

	_, err := svc.Create(ctx, user.ID, product.ID, CreateReviewInput{Rating: 0, Content: "meh"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = svc.Create(ctx, user.ID, product.ID, CreateReviewInput{Rating: 6, Content: "wow"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = svc.Create(ctx, user.ID, product.ID, CreateReviewInput{Rating: 4, Content: "   "})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = svc.Create(ctx, user.ID, 4040, CreateReviewInput{Rating: 4, Content: "ok"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestHiddenReviewsAreOnlyVisibleToAuthorAndAdmin(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	writer := testdb.SeedUser(t, conn, "writer@example.com")
	product := testdb.SeedProduct(t, conn, "Blender", "60.00", 3)

	created, err := svc.Create(ctx, writer.ID, product.ID, CreateReviewInput{Rating: 2, Content: "loud"})
	require.NoError(t, err)

	hidden, err := svc.SetVisibility(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, hidden.IsVisible)

	_, err = svc.Get(ctx, created.ID, visibility.Viewer{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	_, err = svc.Get(ctx, created.ID, author(writer.ID))
	assert.NoError(t, err)
	_, err = svc.Get(ctx, created.ID, admin)
	assert.NoError(t, err)

	list, err := svc.ListByProduct(ctx, product.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, list.Reviews)

	_, err = svc.SetVisibility(ctx, 8080, true)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

// unchangedRowsRepo reports zero affected rows for visibility writes, the way
// MySQL does when the column already holds the value.
type unchangedRowsRepo struct {
	ReviewRepository
}

func (r unchangedRowsRepo) WithTx(tx *gorm.DB) ReviewRepository {
	return unchangedRowsRepo{ReviewRepository: r.ReviewRepository.WithTx(tx)}
}

func (r unchangedRowsRepo) SetVisibility(ctx context.Context, id uint, visible bool) (int64, error) {
	if _, err := r.ReviewRepository.SetVisibility(ctx, id, visible); err != nil {
		return 0, err
	}
	return 0, nil
}

func TestSetVisibilityIgnoresAffectedRowCount(t *testing.T) {
	conn := testdb.Open(t)
	cache := newMemoryCache()
	svc, err := NewService(ServiceParams{
		Repo:     unchangedRowsRepo{ReviewRepository: NewRepository(conn)},
		Products: products.NewRepository(conn),
		Tx:       testdb.Client(conn),
		Cache:    cache,
	})
	require.NoError(t, err)
	ctx := context.Background()
	writer := testdb.SeedUser(t, conn, "same@example.com")
	product := testdb.SeedProduct(t, conn, "Kettle", "30.00", 4)

	created, err := svc.Create(ctx, writer.ID, product.ID, CreateReviewInput{Rating: 4, Content: "boils"})
	require.NoError(t, err)
	delsAfterCreate := cache.dels

	same, err := svc.SetVisibility(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, same.IsVisible)
	assert.Equal(t, delsAfterCreate, cache.dels, "no-op visibility change keeps the cache")

	hidden, err := svc.SetVisibility(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, hidden.IsVisible)
	assert.Equal(t, delsAfterCreate+1, cache.dels)

	var stored models.Review
	require.NoError(t, conn.First(&stored, created.ID).Error)
	assert.False(t, stored.IsVisible)

	_, err = svc.SetVisibility(ctx, 31337, false)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestUpdateReviewAuthorOnly(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	writer := testdb.SeedUser(t, conn, "a@example.com")
	other := testdb.SeedUser(t, conn, "b@example.com")
	product := testdb.SeedProduct(t, conn, "Grill", "99.00", 3)

	created, err := svc.Create(ctx, writer.ID, product.ID, CreateReviewInput{Rating: 3, Content: "fine"})
	require.NoError(t, err)

	rating := 5
	_, err = svc.Update(ctx, author(other.ID), created.ID, UpdateReviewInput{Rating: &rating})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	content := "great after a week"
	updated, err := svc.Update(ctx, author(writer.ID), created.ID, UpdateReviewInput{Rating: &rating, Content: &content})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, content, updated.Content)
}

func TestDeleteReviewRemovesReplies(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	writer := testdb.SeedUser(t, conn, "w@example.com")
	other := testdb.SeedUser(t, conn, "o@example.com")
	product := testdb.SeedProduct(t, conn, "Oven", "300.00", 1)

	created, err := svc.Create(ctx, writer.ID, product.ID, CreateReviewInput{Rating: 4, Content: "hot"})
	require.NoError(t, err)
	_, err = svc.Reply(ctx, author(other.ID), created.ID, "agreed")
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, created.ID, visibility.Viewer{})
	require.NoError(t, err)
	require.Len(t, fetched.Replies, 1)

	err = svc.Delete(ctx, author(other.ID), created.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	require.NoError(t, svc.Delete(ctx, admin, created.ID))

	var replies int64
	require.NoError(t, conn.Model(&models.ReviewReply{}).Count(&replies).Error)
	assert.Zero(t, replies)

	err = svc.Delete(ctx, admin, created.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDeleteReplyAuthorOrAdmin(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	writer := testdb.SeedUser(t, conn, "r1@example.com")
	replier := testdb.SeedUser(t, conn, "r2@example.com")
	product := testdb.SeedProduct(t, conn, "Fan", "15.00", 1)

	created, err := svc.Create(ctx, writer.ID, product.ID, CreateReviewInput{Rating: 4, Content: "breezy"})
	require.NoError(t, err)
	reply, err := svc.Reply(ctx, author(replier.ID), created.ID, "thanks")
	require.NoError(t, err)

	err = svc.DeleteReply(ctx, author(writer.ID), reply.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	require.NoError(t, svc.DeleteReply(ctx, author(replier.ID), reply.ID))

	err = svc.DeleteReply(ctx, admin, reply.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestFetchProductEngagementOrdering(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	user := testdb.SeedUser(t, conn, "agg@example.com")
	low := testdb.SeedProduct(t, conn, "Low", "1.00", 1)
	tieA := testdb.SeedProduct(t, conn, "TieA", "1.00", 1)
	tieB := testdb.SeedProduct(t, conn, "TieB", "1.00", 1)
	testdb.SeedProduct(t, conn, "Unreviewed", "1.00", 1)

	add := func(productID uint, rating int) uint {
		created, err := svc.Create(ctx, user.ID, productID, CreateReviewInput{Rating: rating, Content: "x"})
		require.NoError(t, err)
		return created.ID
	}
	add(low.ID, 1)
	add(low.ID, 2)
	add(tieB.ID, 4)
	add(tieA.ID, 5)
	add(tieA.ID, 3)
	hidden := add(tieA.ID, 1)
	_, err := svc.SetVisibility(ctx, hidden, false)
	require.NoError(t, err)

	rows, err := svc.FetchProductEngagement(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, tieA.ID, rows[0].ProductID)
	assert.Equal(t, int64(2), rows[0].ReviewCount)
	assert.Equal(t, 4.0, rows[0].AverageRating)
	assert.Equal(t, tieB.ID, rows[1].ProductID)
	assert.Equal(t, low.ID, rows[2].ProductID)
	assert.Equal(t, 1.5, rows[2].AverageRating)
	assert.Equal(t, "Low", rows[2].ProductName)

	limited, err := svc.FetchProductEngagement(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFetchProductEngagementUsesCache(t *testing.T) {
	cache := newMemoryCache()
	svc, conn := newTestService(t, cache)
	ctx := context.Background()
	user := testdb.SeedUser(t, conn, "cache@example.com")
	product := testdb.SeedProduct(t, conn, "Cached", "1.00", 1)

	_, err := svc.Create(ctx, user.ID, product.ID, CreateReviewInput{Rating: 4, Content: "x"})
	require.NoError(t, err)

	first, err := svc.FetchProductEngagement(ctx, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Contains(t, cache.values, "sf:cache:engagement:10")

	// Bypass the service so only a cache hit can explain the stale count.
	require.NoError(t, conn.Create(&models.Review{ProductID: product.ID, UserID: user.ID, Rating: 2, Content: "y", IsVisible: true}).Error)
	cached, err := svc.FetchProductEngagement(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached[0].ReviewCount)

	_, err = svc.Create(ctx, user.ID, product.ID, CreateReviewInput{Rating: 3, Content: "z"})
	require.NoError(t, err)
	assert.NotContains(t, cache.values, "sf:cache:engagement:10")

	fresh, err := svc.FetchProductEngagement(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), fresh[0].ReviewCount)
}
