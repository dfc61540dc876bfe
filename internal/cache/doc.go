// Package cache stores encoded frames keyed by the view that produced them.
//
// Rendering is deterministic, so a frame computed once for a View can be
// served again byte for byte. Two implementations of [Store] are provided:
//
// # Memory
//
// An in-process store with an entry limit, a byte budget and an optional
// TTL. When a limit is exceeded the least recently used quarter of the
// entries is evicted.
//
//	store := cache.NewMemory(cache.WithMaxEntries(256), cache.WithMaxBytes(64<<20))
//
// # Redis
//
// A store backed by a go-redis client, shared by every daemon instance
// pointed at the same server. Expiry is left to Redis.
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewRedis(rdb, 10*time.Minute)
//
// # Keys
//
// [Key] derives a stable key from every View field plus a variant string
// (output format, supersampling factor), so views that render differently
// never share an entry.
//
// # Thread Safety
//
// Both stores are safe for concurrent use.
package cache
