package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is the shared cache backend for multi-instance deployments. TTL
// expiry is native; capacity eviction is left to the server's maxmemory
// policy, so only the memory backend implements the hit-count sweep.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) (Entry, bool) {
	raw, err := r.client.Get(ctx, "resp:"+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("cache read failed", zap.Error(err))
		}
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		r.logger.Warn("cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		r.client.Del(ctx, "resp:"+key)
		return Entry{}, false
	}

	hits, err := r.client.Incr(ctx, "hits:"+key).Result()
	if err == nil {
		e.HitCount = hits
	}
	return e, true
}

func (r *Redis) Put(ctx context.Context, key, text, provider string) {
	e := Entry{
		Text:      text,
		Provider:  provider,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, "resp:"+key, raw, r.ttl)
	pipe.Set(ctx, "hits:"+key, 0, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("cache write failed", zap.Error(err))
	}
}
