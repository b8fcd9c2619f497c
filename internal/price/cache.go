package price

import (
	"context"
	"sync"
	"time"
)

type cacheItem struct {
	observation Observation
	expiration  time.Time
}

// QuoteCache memoizes usable observations for a short time. It serves
// interactive quote lookups; the alert evaluator always asks the oracle directly.
type QuoteCache struct {
	oracle Oracle
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	items map[string]cacheItem
}

func NewQuoteCache(oracle Oracle, ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		oracle: oracle,
		ttl:    ttl,
		now:    time.Now,
		items:  make(map[string]cacheItem),
	}
}

// LatestPrice implements Oracle.
func (c *QuoteCache) LatestPrice(ctx context.Context, symbol string) (Observation, error) {
	if obs, found := c.get(symbol); found {
		return obs, nil
	}

	obs, err := c.oracle.LatestPrice(ctx, symbol)
	if err != nil || !obs.Usable() {
		return obs, err
	}

	c.set(symbol, obs)
	return obs, nil
}

func (c *QuoteCache) get(symbol string) (Observation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[symbol]
	if !found {
		return Observation{}, false
	}
	if !c.now().Before(item.expiration) {
		delete(c.items, symbol)
		return Observation{}, false
	}
	return item.observation, true
}

func (c *QuoteCache) set(symbol string, obs Observation) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.expiration) {
			delete(c.items, key)
		}
	}

	c.items[symbol] = cacheItem{
		observation: obs,
		expiration:  now.Add(c.ttl),
	}
}
