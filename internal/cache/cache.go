// Package cache keeps the public read path of page content in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/starford/taproom/internal/models"
)

// PageCache stores the block list of a page.
//
// Readers fill the cache in three steps: Generation before the store read,
// the store read, then Fill with that generation. Invalidate bumps the
// generation, so a fill that raced a save is dropped instead of caching the
// old list.
type PageCache interface {
	Get(ctx context.Context, slug string) ([]models.ContentBlock, bool, error)
	Generation(ctx context.Context, slug string) (int64, error)
	Fill(ctx context.Context, slug string, gen int64, blocks []models.ContentBlock) (bool, error)
	Invalidate(ctx context.Context, slug string) error
}

// Nop is a PageCache that never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]models.ContentBlock, bool, error) { return nil, false, nil }
func (Nop) Generation(context.Context, string) (int64, error) { return 0, nil }
func (Nop) Fill(context.Context, string, int64, []models.ContentBlock) (bool, error) {
	return false, nil
}
func (Nop) Invalidate(context.Context, string) error { return nil }

// fillScript writes KEYS[2] only while the generation in KEYS[1] still
// equals ARGV[1]. ARGV[3] is the TTL in milliseconds, 0 for none.
var fillScript = redis.NewScript(`
local gen = tonumber(redis.call("GET", KEYS[1])) or 0
if gen ~= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[2], ARGV[2])
end
return 1
`)

// Redis is a PageCache backed by a Redis server.
type Redis struct {
	client    *redis.Client
	prefix    string
	genPrefix string
	ttl       time.Duration
}

// NewRedis connects to redisURL and checks the connection.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client:    client,
		prefix:    "taproom:page-content:",
		genPrefix: "taproom:page-generation:",
		ttl:       ttl,
	}
}

func (c *Redis) key(slug string) string {
	return c.prefix + slug
}

func (c *Redis) genKey(slug string) string {
	return c.genPrefix + slug
}

// Get returns the cached blocks of slug. ok is false on a miss.
func (c *Redis) Get(ctx context.Context, slug string) ([]models.ContentBlock, bool, error) {
	data, err := c.client.Get(ctx, c.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", slug, err)
	}
	var blocks []models.ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, false, fmt.Errorf("cache decode %q: %w", slug, err)
	}
	if blocks == nil {
		blocks = []models.ContentBlock{}
	}
	return blocks, true, nil
}

// Generation returns the current generation of slug, 0 if it was never
// invalidated.
func (c *Redis) Generation(ctx context.Context, slug string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(slug)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation %q: %w", slug, err)
	}
	return gen, nil
}

// Fill stores blocks for slug if its generation is still gen. It reports
// whether the entry was written.
func (c *Redis) Fill(ctx context.Context, slug string, gen int64, blocks []models.ContentBlock) (bool, error) {
	data, err := json.Marshal(blocks)
	if err != nil {
		return false, fmt.Errorf("cache encode %q: %w", slug, err)
	}
	n, err := fillScript.Run(ctx, c.client,
		[]string{c.genKey(slug), c.key(slug)},
		gen, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("cache fill %q: %w", slug, err)
	}
	return n == 1, nil
}

// Invalidate drops the cached blocks of slug and bumps its generation.
func (c *Redis) Invalidate(ctx context.Context, slug string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(slug))
		pipe.Del(ctx, c.key(slug))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate %q: %w", slug, err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Redis) Close() error {
	return c.client.Close()
}
