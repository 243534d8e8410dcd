package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/gamemaster/pkg/adapters/redis"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func TestRedisCombatLog_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunCombatLogContract(t, redis.NewCombatLog(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	state := domain.NewSessionState("session-ttl", "", time.Now().UTC())

	require.NoError(t, store.Save(ctx, state))

	sessions, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, sessions, "session-ttl")

	// Key expiry is driven by miniredis time.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "session-ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Index pruning compares against wall-clock time.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	log := redis.NewCombatLog(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSessionState("my-session", "", time.Now().UTC())))
	require.NoError(t, log.Append(ctx, "my-session", combat.TurnRecord{ID: "t1"}))

	assert.True(t, mr.Exists("custom:app:session:my-session"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:session:index"), "Expected index with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:combat:my-session"))

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, "my-session")
}

func TestRedisCombatLog_TTL(t *testing.T) {
	mr, client := newClient(t)
	log := redis.NewCombatLog(client, redis.WithTTL(time.Minute))

	require.NoError(t, log.Append(context.Background(), "s-1", combat.TurnRecord{ID: "t1"}))
	assert.Equal(t, time.Minute, mr.TTL("gamemaster:combat:s-1"))
}

func TestNewClientFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := redis.NewClientFromURL("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, redis.NewFromClient(client).Ping(context.Background()))

	_, err = redis.NewClientFromURL("http://nope")
	assert.Error(t, err)
}
