package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/imageforge/imageforge/internal/logger"
)

var _ Gate = (*RedisGate)(nil)

// RedisGate backs the gate with a shared store so independent instances
// coordinate. The TTL bounds how long a crashed holder can wedge the system.
type RedisGate struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

func NewRedisGate(client *redis.Client, key string, ttl time.Duration) *RedisGate {
	return &RedisGate{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (g *RedisGate) TryAcquire(ctx context.Context) error {
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, g.key, token, g.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire gate %s: %w", g.key, err)
	}
	if !ok {
		return ErrBusy
	}

	g.token = token
	return nil
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (g *RedisGate) Release(ctx context.Context) {
	// Compare-and-delete so an expired lock re-acquired by another instance
	// is not released out from under it.
	if _, err := releaseScript.Run(ctx, g.client, []string{g.key}, g.token).Result(); err != nil && err != redis.Nil {
		logger.FromContext(ctx).Warn("failed to release gate", "key", g.key, "error", err)
	}
}
