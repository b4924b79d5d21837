package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/seee/internal/adapters/redis"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/ports"
)

var _ ports.SessionStore = (*redis.Store)(nil)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSessionStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := newClient(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := redis.NewFromClient(client,
		redis.WithTTL(time.Minute),
		redis.WithPrefix("test:"),
		redis.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewSession("s1", "u1", now)))
	assert.True(t, mr.Exists("test:s1"))
	assert.Equal(t, time.Minute, mr.TTL("test:s1"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	mr.FastForward(2 * time.Minute)
	now = now.Add(2 * time.Minute)

	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "expired sessions are pruned from the index")
}

func TestRedisStore_NoTTL(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewSession("s1", "", time.Now().UTC())))
	assert.Equal(t, time.Duration(0), mr.TTL(redis.DefaultPrefix+"s1"))
	require.NoError(t, store.Ping(ctx))

	require.NoError(t, store.Delete(ctx, "s1"))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
