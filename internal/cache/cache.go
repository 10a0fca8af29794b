// Package cache keeps presented filter results in Redis, keyed by the
// resolved pipeline, so repeated queries skip the product source.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = time.Minute

// Config enables the result cache when URL is set:
//
//	cache:
//	  url: redis://localhost:6379/0
//	  ttl: 30s
//	  prefix: "dynfilter:"
type Config struct {
	URL    string        `yaml:"url"`
	TTL    time.Duration `yaml:"ttl"`
	Prefix string        `yaml:"prefix"`
}

// Enabled reports whether a cache is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if _, err := redis.ParseURL(c.URL); err != nil {
		return fmt.Errorf("invalid cache url: %w", err)
	}
	if c.TTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	return nil
}

// Redis is a result cache backed by a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to the server named by cfg.URL. The connection is
// lazy; use Ping to check reachability.
func NewRedis(cfg Config) (*Redis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, errors.New("cache url is required")
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client: redis.NewClient(opt),
		prefix: cfg.Prefix,
		ttl:    ttl,
	}, nil
}

// Get returns the cached value of key. A missing key is not an error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return value, true, nil
}

// Set stores value under key for the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Key derives the cache key of a resolved pipeline from its string form.
func Key(pipeline string) string {
	sum := sha256.Sum256([]byte(pipeline))
	return "products:" + hex.EncodeToString(sum[:])
}
