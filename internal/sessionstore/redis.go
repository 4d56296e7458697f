package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each session under prefix+id with a TTL equal to the
// time left until expiry, so Redis expires records on its own. The time left
// is measured on the owning Store's clock.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisBackend creates a Redis-backed session backend.
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisBackend{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *RedisBackend) setClock(now func() time.Time) {
	r.now = now
}

func (r *RedisBackend) key(token string) string {
	return r.prefix + token
}

func (r *RedisBackend) Find(token string) ([]byte, bool, error) {
	return r.FindCtx(context.Background(), token)
}

func (r *RedisBackend) Commit(token string, b []byte, expiry time.Time) error {
	return r.CommitCtx(context.Background(), token, b, expiry)
}

func (r *RedisBackend) Delete(token string) error {
	return r.DeleteCtx(context.Background(), token)
}

func (r *RedisBackend) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisBackend) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	ttl := expiry.Sub(r.now())
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(token)).Err()
	}
	return r.client.Set(ctx, r.key(token), b, ttl).Err()
}

func (r *RedisBackend) DeleteCtx(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
