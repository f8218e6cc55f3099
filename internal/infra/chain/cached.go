package chain

import (
	"context"
	"log/slog"
	"time"

	"github.com/ara-foundation/act-indexer/internal/infra/redis"
)

const symbolTTL = 7 * 24 * time.Hour

// CachedClient wraps a Client with a Redis cache for token symbols.
// Redis errors degrade to direct chain reads instead of failing the call.
type CachedClient struct {
	Client

	networkID int64
	cache     *redis.Client
	logger    *slog.Logger
}

// NewCachedClient wraps inner with a symbol cache for one network.
func NewCachedClient(inner Client, networkID int64, cache *redis.Client, logger *slog.Logger) *CachedClient {
	return &CachedClient{
		Client:    inner,
		networkID: networkID,
		cache:     cache,
		logger:    logger,
	}
}

// SymbolOf returns the cached symbol when present, falling back to the
// wrapped client and populating the cache on a miss.
func (c *CachedClient) SymbolOf(ctx context.Context, tokenAddr string) (string, error) {
	symbol, found, err := c.cache.GetSymbol(ctx, c.networkID, tokenAddr)
	if err != nil {
		c.logger.Warn("symbol cache read failed",
			"network_id", c.networkID,
			"token", tokenAddr,
			"error", err)
	} else if found {
		return symbol, nil
	}

	symbol, err = c.Client.SymbolOf(ctx, tokenAddr)
	if err != nil {
		return "", err
	}

	if err := c.cache.SetSymbol(ctx, c.networkID, tokenAddr, symbol, symbolTTL); err != nil {
		c.logger.Warn("symbol cache write failed",
			"network_id", c.networkID,
			"token", tokenAddr,
			"error", err)
	}
	return symbol, nil
}
