package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *Store {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, RunMigrations(dsn))
	// second run is a no-op
	require.NoError(t, RunMigrations(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewStore(logging.Discard(), pool)
}

func strPtr(s string) *string { return &s }

func TestStore_CatalogLifecycle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	tropical, err := store.CreateCategory(ctx, CategoryInput{Name: "Tropical", Description: strPtr("Warm climate fruit")})
	require.NoError(t, err)
	berries, err := store.CreateCategory(ctx, CategoryInput{Name: "Berries"})
	require.NoError(t, err)

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Berries", cats[0].Name)

	mango, err := store.CreateProduct(ctx, ProductInput{
		Name:       "Mango",
		PricePerKg: decimal.RequireFromString("4.20"),
		StockKg:    decimal.RequireFromString("12.5"),
		CategoryID: &tropical.ID,
	})
	require.NoError(t, err)
	assert.True(t, mango.PricePerKg.Equal(decimal.RequireFromString("4.2")))

	papaya, err := store.CreateProduct(ctx, ProductInput{Name: "Papaya", PricePerKg: decimal.RequireFromString("3.10"), CategoryID: &tropical.ID})
	require.NoError(t, err)
	_, err = store.CreateProduct(ctx, ProductInput{Name: "Blueberry", PricePerKg: decimal.RequireFromString("9.99"), CategoryID: &berries.ID})
	require.NoError(t, err)

	_, err = store.CreateProduct(ctx, ProductInput{Name: "Ghost", PricePerKg: decimal.NewFromInt(1), CategoryID: strPtr("999999")})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	byIDs, err := store.ProductsByIDs(ctx, []string{mango.ID, papaya.ID, "424242", "bogus"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	all, err := store.ListProducts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Blueberry", all[0].Name)

	filtered, err := store.ListProducts(ctx, []string{tropical.ID})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	got, err := store.GetProduct(ctx, mango.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Tropical", got.Category.Name)

	related, err := store.RelatedProducts(ctx, *got, RelatedLimit)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, papaya.ID, related[0].ID)

	updated, err := store.UpdateProduct(ctx, mango.ID, ProductInput{Name: "Mango", PricePerKg: decimal.RequireFromString("5.00"), CategoryID: &tropical.ID})
	require.NoError(t, err)
	assert.True(t, updated.PricePerKg.Equal(decimal.NewFromInt(5)))

	assert.ErrorIs(t, store.DeleteCategory(ctx, tropical.ID), ErrCategoryInUse)

	require.NoError(t, store.DeleteProduct(ctx, mango.ID))
	require.NoError(t, store.DeleteProduct(ctx, papaya.ID))
	assert.ErrorIs(t, store.DeleteProduct(ctx, papaya.ID), ErrProductNotFound)
	require.NoError(t, store.DeleteCategory(ctx, tropical.ID))

	_, err = store.GetProduct(ctx, mango.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	n, err := store.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
