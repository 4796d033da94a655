package common

import "testing"

func setupTestEnvironment(t *testing.T) (*Cache, func()) {
	t.Helper()

	cache := NewCache(0, 0)

	cleanup := func() {
		cache.Flush()
	}

	return cache, cleanup
}

func TestCache_Set(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")

	if _, ok := cache.Get("key"); !ok {
		t.Error("expected key to be set")
	}
}

func TestCache_Flush(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")
	cache.Flush()

	if _, ok := cache.Get("key"); ok {
		t.Error("expected cache to be flushed")
	}
}

func TestCache_DeleteFunc(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeyUserByAccessToken([]byte("a")), 1)
	cache.Set(CacheKeyUserByAccessToken([]byte("b")), 1)
	cache.Set(CacheKeyUserByAccessToken([]byte("c")), 12)

	cache.DeleteFunc(func(_ string, value interface{}) bool {
		id, ok := value.(int)
		return ok && id == 1
	})

	if _, ok := cache.Get(CacheKeyUserByAccessToken([]byte("a"))); ok {
		t.Error("expected first session to be evicted")
	}
	if _, ok := cache.Get(CacheKeyUserByAccessToken([]byte("b"))); ok {
		t.Error("expected second session to be evicted")
	}
	if _, ok := cache.Get(CacheKeyUserByAccessToken([]byte("c"))); !ok {
		t.Error("expected user 12 to stay cached")
	}
}
