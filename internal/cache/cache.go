package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache — короткоживущий кеш для сводных запросов (метрики дашборда,
// сводка политик). Без настроенного Redis все операции — no-op.
type Cache struct {
	client *redis.Client
}

func New(addr, password string) *Cache {
	if addr == "" {
		return &Cache{}
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (c *Cache) Enabled() bool {
	return c.client != nil
}

// Get читает закешированное значение в dest; false — промах или кеш выключен
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, raw, ttl)
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c.client == nil || len(keys) == 0 {
		return
	}
	c.client.Del(ctx, keys...)
}
