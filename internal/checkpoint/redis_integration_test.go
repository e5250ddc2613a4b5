//go:build integration

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a connected client.
func setupRedis(t *testing.T) *redis.Client {
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
	require.NoError(t, err, "starting Redis container")

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	t.Cleanup(func() {
		client.Close()
		container.Terminate(ctx)
	})
	return client
}

func TestRedisStore_Integration(t *testing.T) {
	client := setupRedis(t)
	store := NewRedisStore(client, "openalex")
	ctx := context.Background()

	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, s, "empty Redis should yield no state")

	require.NoError(t, store.Save(ctx, sampleState()))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cursor-2", got.Token())
	assert.Equal(t, []string{"W1", "W2"}, got.Order)
	assert.Equal(t, "citation-harvester:progress:openalex", store.Key())

	require.NoError(t, store.Delete(ctx))
	s, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRedisStore_Integration_Corrupt(t *testing.T) {
	client := setupRedis(t)
	store := NewRedisStore(client, "broken")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, store.Key(), "{not json", 0).Err())

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptProgress)
}
