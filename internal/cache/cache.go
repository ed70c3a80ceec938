package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"stockfinder/internal/log"
)

// KeyPrefix namespaces every cached response.
const KeyPrefix = "stockfinder:cache:"

type Config struct {
	TTL time.Duration
	// Skip bypasses the cache for a request when it returns true.
	Skip func(c *fiber.Ctx) bool
}

// NoCacheRequested reports whether the client asked to bypass caches.
func NoCacheRequested(c *fiber.Ctx) bool {
	cc := strings.ToLower(c.Get(fiber.HeaderCacheControl))
	return strings.Contains(cc, "no-cache") || strings.Contains(cc, "no-store")
}

// Connect builds a client and checks it answers. A nil client means caching is off.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// Middleware serves GET responses from Redis and stores 200 answers for cfg.TTL.
// Redis errors never fail a request; the handler simply runs.
func Middleware(rdb *redis.Client, cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || c.Method() != fiber.MethodGet || (cfg.Skip != nil && cfg.Skip(c)) {
			return c.Next()
		}
		ctx := c.UserContext()
		key := Key(c)

		hit, err := rdb.HGetAll(ctx, key).Result()
		if err == nil && hit["body"] != "" {
			log.Debug(c, "cache.hit", map[string]any{"key": key})
			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			if cc := hit["cache_control"]; cc != "" {
				c.Set(fiber.HeaderCacheControl, cc)
			}
			return c.SendString(hit["body"])
		}
		if err != nil {
			log.Warn(c, "cache.read", err, map[string]any{"key": key})
		}

		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		c.Set("X-Cache", "MISS")
		body := string(c.Response().Body())
		cc := string(c.Response().Header.Peek(fiber.HeaderCacheControl))
		_, err = rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, "body", body, "cache_control", cc)
			p.Expire(ctx, key, cfg.TTL)
			return nil
		})
		if err != nil {
			log.Warn(c, "cache.write", err, map[string]any{"key": key})
		}
		return nil
	}
}

// Key hashes the path and raw query of a request.
func Key(c *fiber.Ctx) string {
	sum := sha256.Sum256([]byte(c.Path() + "?" + string(c.Request().URI().QueryString())))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Invalidate drops every cached response. Stock updates call it so cached
// quantities do not outlive a change.
func Invalidate(ctx context.Context, rdb *redis.Client) (int, error) {
	if rdb == nil {
		return 0, nil
	}
	iter := rdb.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(keys), nil
}
