//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/taproom-menu/internal/domain/cart"
	"github.com/xenking/taproom-menu/internal/domain/catalog"
	"github.com/xenking/taproom-menu/internal/storage/postgres"
	"github.com/xenking/taproom-menu/internal/storage/redis"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "menu",
				"POSTGRES_PASSWORD": "menu",
				"POSTGRES_DB":       "menu",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://menu:menu@%s:%s/menu?sslmode=disable", host, port.Port())
}

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func sampleCart() *cart.Cart {
	return &cart.Cart{
		Lines: []cart.Line{
			{
				Product: catalog.Product{
					ID:    "ipa",
					Name:  "Hazy IPA",
					Price: decimal.NewFromInt(65),
					Variants: []catalog.VariantPrice{
						{Size: "0.33", Price: decimal.NewFromInt(25)},
					},
				},
				Quantity: 2,
				Variant:  "0.33",
			},
			{
				Product:  catalog.Product{ID: "merlot", Name: "Merlot", Price: decimal.NewFromInt(50)},
				Quantity: 1,
			},
		},
		Notes: "table 4",
	}
}

func testStoreRoundTrip(t *testing.T, store cart.Store) {
	ctx := context.Background()

	_, err := store.Load(ctx, cart.DefaultNamespace)
	assert.ErrorIs(t, err, cart.ErrNotFound)

	require.NoError(t, store.Save(ctx, cart.DefaultNamespace, sampleCart()))

	loaded, err := store.Load(ctx, cart.DefaultNamespace)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 2)
	assert.Equal(t, "Hazy IPA", loaded.Lines[0].Product.Name)
	assert.Equal(t, 2, loaded.Lines[0].Quantity)
	assert.Equal(t, "0.33", loaded.Lines[0].Variant)
	assert.Equal(t, "table 4", loaded.Notes)
	assert.True(t, decimal.NewFromInt(100).Equal(loaded.Total()),
		"total survives the round trip, got %s", loaded.Total())

	// Overwrite: last save wins.
	require.NoError(t, store.Save(ctx, cart.DefaultNamespace, &cart.Cart{}))
	loaded, err = store.Load(ctx, cart.DefaultNamespace)
	require.NoError(t, err)
	assert.Empty(t, loaded.Lines)
}

func TestPostgresCartStore(t *testing.T) {
	ctx := context.Background()
	databaseURL := startPostgres(t)

	pool, err := postgres.NewPool(ctx, databaseURL)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, postgres.RunMigrations(ctx, pool))

	testStoreRoundTrip(t, postgres.NewCartStore(pool))
}

func TestRedisCartStore(t *testing.T) {
	ctx := context.Background()
	redisURL := startRedis(t)

	client, err := redis.NewClient(ctx, redisURL)
	require.NoError(t, err)
	defer client.Close()

	testStoreRoundTrip(t, redis.NewCartStore(client))
}

func TestLedgerOverPostgres(t *testing.T) {
	ctx := context.Background()
	databaseURL := startPostgres(t)

	pool, err := postgres.NewPool(ctx, databaseURL)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, postgres.RunMigrations(ctx, pool))

	store := postgres.NewCartStore(pool)

	ledger := cart.NewLedger(store, "")
	require.NoError(t, ledger.Hydrate(ctx))
	require.NoError(t, ledger.Add(ctx, catalog.Product{ID: "ipa", Name: "IPA", Price: decimal.NewFromInt(65)}, ""))
	require.NoError(t, ledger.SetNotes(ctx, "no ice"))

	// A restarted process hydrates the same state.
	restored := cart.NewLedger(store, "")
	require.NoError(t, restored.Hydrate(ctx))
	snapshot := restored.Snapshot()
	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, "ipa", snapshot.Lines[0].Product.ID)
	assert.Equal(t, "no ice", snapshot.Notes)
}
