package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the token symbol cache.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func symbolKey(networkID int64, tokenAddr string) string {
	return fmt.Sprintf("token_symbol:%d:%s", networkID, strings.ToLower(tokenAddr))
}

// GetSymbol looks up a cached token symbol. found is false on a cache miss.
func (c *Client) GetSymbol(
	ctx context.Context,
	networkID int64,
	tokenAddr string,
) (symbol string, found bool, err error) {
	val, err := c.rdb.Get(ctx, symbolKey(networkID, tokenAddr)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get failed: %w", err)
	}
	return val, true, nil
}

// SetSymbol caches a token symbol. Symbols are immutable on chain so the
// TTL only bounds cache size.
func (c *Client) SetSymbol(
	ctx context.Context,
	networkID int64,
	tokenAddr, symbol string,
	ttl time.Duration,
) error {
	if err := c.rdb.Set(ctx, symbolKey(networkID, tokenAddr), symbol, ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Health checks connectivity.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
