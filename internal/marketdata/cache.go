package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/database"
	"github.com/tradeforge/smcbot/internal/models"
)

// CachedProvider wraps a Provider with a Redis read-through cache so
// repeated backtests over the same window skip the data service.
type CachedProvider struct {
	inner  Provider
	redis  *database.RedisClient
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCachedProvider creates the caching decorator. A zero or invalid
// TTL string falls back to five minutes.
func NewCachedProvider(inner Provider, redisClient *database.RedisClient, ttl string, logger *logrus.Logger) *CachedProvider {
	d, err := time.ParseDuration(ttl)
	if err != nil || d <= 0 {
		d = 5 * time.Minute
	}
	return &CachedProvider{
		inner:  inner,
		redis:  redisClient,
		ttl:    d,
		logger: logger,
	}
}

func cacheKey(symbol, timeframe string, limit int) string {
	return fmt.Sprintf("candles:%s:%s:%d", symbol, timeframe, limit)
}

// GetCandles returns cached candles when present, otherwise fetches
// from the inner provider and stores the result. Cache failures are
// logged and never surfaced; the data service stays authoritative.
func (cp *CachedProvider) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	key := cacheKey(symbol, timeframe, limit)

	cached, err := cp.redis.Get(ctx, key)
	if err == nil {
		var candles []models.Candle
		if jsonErr := json.Unmarshal([]byte(cached), &candles); jsonErr == nil {
			cp.logger.WithField("key", key).Debug("candle cache hit")
			return candles, nil
		}
		cp.logger.WithField("key", key).Warn("corrupt cache entry, refetching")
	} else if err != redis.Nil {
		cp.logger.WithError(err).Warn("candle cache read failed")
	}

	candles, err := cp.inner.GetCandles(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(candles)
	if err == nil {
		if setErr := cp.redis.Set(ctx, key, payload, cp.ttl); setErr != nil {
			cp.logger.WithError(setErr).Warn("candle cache write failed")
		}
	}

	return candles, nil
}
