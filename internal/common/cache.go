package common

import (
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

// DeleteFunc removes every entry for which match returns true.
func (c *Cache) DeleteFunc(match func(key string, value interface{}) bool) {
	for key, item := range c.Cache.Items() {
		if match(key, item.Object) {
			c.Cache.Delete(key)
		}
	}
}

func CacheKeyUserByAccessToken(tokenHash []byte) string {
	return "user_by_access_token:" + string(tokenHash)
}
