package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func exerciseTokenStore(t *testing.T, store TokenStore) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, s)

	in := &Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
		UserID:       "user-1",
		Email:        "a@b.com",
	}
	require.NoError(t, store.Save(ctx, "browser-1", in))

	out, err := store.Load(ctx, "browser-1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.AccessToken, out.AccessToken)
	assert.Equal(t, in.UserID, out.UserID)
	assert.True(t, in.ExpiresAt.Equal(out.ExpiresAt))

	other, err := store.Load(ctx, "browser-2")
	require.NoError(t, err)
	assert.Nil(t, other, "sessions are scoped per key")

	require.NoError(t, store.Delete(ctx, "browser-1"))
	gone, err := store.Load(ctx, "browser-1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	require.NoError(t, store.Delete(ctx, "browser-1"), "deleting twice is fine")
}

func TestMemoryTokenStore(t *testing.T) {
	exerciseTokenStore(t, NewMemoryTokenStore())
}

func TestMemoryTokenStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	require.NoError(t, store.Save(ctx, "k", &Session{UserID: "user-1"}))

	s, _ := store.Load(ctx, "k")
	s.UserID = "mutated"

	again, _ := store.Load(ctx, "k")
	assert.Equal(t, "user-1", again.UserID)
}

func TestRedisTokenStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, "redis://"+endpoint+"/0")
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisTokenStore(client, time.Hour)
	exerciseTokenStore(t, store)

	require.NoError(t, store.Save(ctx, "ttl", &Session{UserID: "user-1"}))
	ttl, err := client.TTL(ctx, redisKeyPrefix+"ttl").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}
