package storage

import (
	"sync"
	"time"

	"flyticker/internal/models"
)

// WeatherCache holds the most recently seen site weather in memory with a
// freshness bound. The clock is injected so staleness can be tested without
// sleeping. Concurrent dashboard requests may race on it; last writer wins.
type WeatherCache struct {
	mu       sync.RWMutex
	entry    models.SiteWeather
	storedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

func NewWeatherCache(ttl time.Duration) *WeatherCache {
	return &WeatherCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached entry and whether it is still fresh.
func (c *WeatherCache) Get() (models.SiteWeather, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.storedAt.IsZero() || c.now().Sub(c.storedAt) >= c.ttl {
		return models.SiteWeather{}, false
	}
	return c.entry, true
}

// Put stores a new entry with the current time.
func (c *WeatherCache) Put(entry models.SiteWeather) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = entry
	c.storedAt = c.now()
}
