//go:build integration

// internal/infrastructure/database/redis/number_reserver_integration_test.go
package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/infrastructure/database/redis"
	"github.com/your-org/checkout-backend/internal/pkg/logger"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client, err := redis.NewConnection(&config.Config{
		Redis: config.RedisConfig{Host: host, Port: port.Port(), PoolSize: 4},
	}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestNumberReserver(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	require.NoError(t, client.Health(ctx))

	reserver := redis.NewNumberReserver(client.GetClient(), time.Second)

	ok, err := reserver.Reserve(ctx, "ORD202401010000001234")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reserver.Reserve(ctx, "ORD202401010000001234")
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.GetClient().TTL(ctx, "order:number:ORD202401010000001234").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestNumberReserver_WithGenerator(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	fixed := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	suffixes := []int{1111, 1111, 2222}
	next := 0
	suffix := func() int {
		v := suffixes[next]
		next++
		return v
	}

	first := order.NewNumberGenerator("ORD", 5, redis.NewNumberReserver(client.GetClient(), time.Minute),
		order.WithClock(fixed), order.WithSuffixSource(suffix))

	a, err := first.Generate(ctx, noneExist{})
	require.NoError(t, err)
	b, err := first.Generate(ctx, noneExist{})
	require.NoError(t, err)

	assert.Equal(t, "ORD202401010000001111", a)
	assert.Equal(t, "ORD202401010000002222", b)
}

type noneExist struct{}

func (noneExist) ExistsByNumber(context.Context, string) (bool, error) { return false, nil }
