// Package ai provides the response cache in front of the generative model.
package ai

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/foodisave/backend/internal/ports/outbound"
)

// ResponseCache stores answers the caller has accepted. Concurrent misses for the same
// key share one fill.
type ResponseCache struct {
	cache   outbound.CacheRepository
	ttl     time.Duration
	logger  *zap.Logger
	observe func(hit bool)
	flight  singleflight.Group
}

// NewResponseCache stores values in cache for ttl. A zero ttl disables caching.
func NewResponseCache(cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger, observe func(hit bool)) *ResponseCache {
	if observe == nil {
		observe = func(bool) {}
	}
	return &ResponseCache{
		cache:   cache,
		ttl:     ttl,
		logger:  logger.Named("ai-cache"),
		observe: observe,
	}
}

var _ outbound.ResponseCache = (*ResponseCache)(nil)

type filled struct {
	value []byte
}

// Remember returns the stored value for key or runs fill. The value is stored only when
// fill reports it as worth keeping.
func (c *ResponseCache) Remember(ctx context.Context, key string, fill outbound.FillFunc) ([]byte, error) {
	if c.ttl <= 0 {
		value, _, err := fill(ctx)
		return value, err
	}

	if data, err := c.cache.Get(ctx, key); err == nil {
		c.observe(true)
		return data, nil
	} else if !errors.Is(err, outbound.ErrCacheMiss) {
		c.logger.Warn("AI cache lookup failed", zap.Error(err))
	}
	c.observe(false)

	// The shared fill must outlive any single waiter giving up.
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (interface{}, error) {
		value, keep, err := fill(shared)
		if err != nil {
			return nil, err
		}
		if keep {
			if err := c.cache.Set(shared, key, value, c.ttl); err != nil {
				c.logger.Warn("Failed to cache AI response", zap.Error(err))
			}
		}
		return filled{value: value}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(filled).value, nil
	}
}
