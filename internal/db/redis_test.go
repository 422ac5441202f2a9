package db

import (
	"context"
	"ctchen222/tictactoe-engine/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestNewRedisClient(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, config.Redis{Addr: host + ":" + port.Port()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(ctx, "ping", "pong", time.Minute).Err())
	got, err := client.Get(ctx, "ping").Result()
	require.NoError(t, err)
	require.Equal(t, "pong", got)
}

func TestNewRedisClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, config.Redis{Addr: "127.0.0.1:1"})

	require.Error(t, err)
}
