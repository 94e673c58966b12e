package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace    = "clinica"
	rateLimitPrefix = "rate_limit"
)

var errNotInitialized = errors.New("redis client not initialized")

// counterStore is the subset of go-redis used for rate-limit windows.
type counterStore interface {
	Ping(context.Context) *redis.StatusCmd
	Incr(context.Context, string) *redis.IntCmd
	TTL(context.Context, string) *redis.DurationCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client holds the counters behind the login, registration and password reset
// rate limits.
type Client struct {
	store counterStore
	raw   *redis.Client
}

// New connects and pings Redis. Callers only invoke it when cfg.Enabled().
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"addr": opts.Addr, "db": opts.DB}), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig prefers CLINICA_REDIS_URL. Pool and timeout settings from
// the environment fill whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis url or address is required")
	}

	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	}

	fill := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 {
			*dst = v
		}
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	fill(&opts.DialTimeout, cfg.DialTimeout)
	fill(&opts.ReadTimeout, cfg.ReadTimeout)
	fill(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

// FixedWindowAllow counts one hit against scope and reports whether the
// count is still within limit. The window starts on the first hit. A counter
// that lost its expiry is given one again so it cannot block forever.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.store == nil {
		return false, 0, errNotInitialized
	}
	key := c.RateLimitKey(scope)

	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if window > 0 {
		if err := c.ensureExpiry(ctx, key, count, window); err != nil {
			return false, count, err
		}
	}
	return count <= limit, count, nil
}

func (c *Client) ensureExpiry(ctx context.Context, key string, count int64, window time.Duration) error {
	if count > 1 {
		ttl, err := c.store.TTL(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("ttl %s: %w", key, err)
		}
		// -1 means the key exists without an expiry
		if ttl != -1 {
			return nil
		}
	}
	if err := c.store.Expire(ctx, key, window).Err(); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	return nil
}

// ResetWindow clears the counter for scope, e.g. after a successful login.
func (c *Client) ResetWindow(ctx context.Context, scope string) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Del(ctx, c.RateLimitKey(scope)).Err()
}

// RateLimitKey returns the namespaced key for a rate-limit scope.
func (c *Client) RateLimitKey(scope string) string {
	return buildKey(rateLimitPrefix, scope)
}

// Ping verifies the connection for /health/ready.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
