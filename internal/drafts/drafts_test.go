package drafts

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	device := uuid.NewString()

	_, ok, err := s.Get(ctx, device, "odyssey_participant1Data")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, device, "odyssey_participant1Data", `{"name":"A"}`))
	require.NoError(t, s.Set(ctx, device, "registeredForOdyssey", "true"))

	v, ok, err := s.Get(ctx, device, "odyssey_participant1Data")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"A"}`, v)

	_, ok, err = s.Get(ctx, uuid.NewString(), "registeredForOdyssey")
	require.NoError(t, err)
	assert.False(t, ok, "devices must not see each other's values")

	require.NoError(t, s.Delete(ctx, device, "odyssey_participant1Data", "registeredForOdyssey"))
	_, ok, err = s.Get(ctx, device, "registeredForOdyssey")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "d", "k", "v"))
	now = now.Add(2 * time.Hour)
	_, ok, err := s.Get(ctx, "d", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

// Runs against a real Redis when REDIS_TEST_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	exerciseStore(t, NewRedisStore(client, time.Minute))
}
