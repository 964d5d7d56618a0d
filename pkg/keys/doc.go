// Package keys maps internal numeric node ids to stable external keys.
//
// SQLResolver reads the nodes table. CachedResolver sits in front of any
// Resolver with an in-process LRU and, optionally, a shared Redis cache:
//
//	resolver := keys.NewCachedResolver(keys.NewSQLResolver(db), keys.CacheConfig{
//		Size:  10000,
//		TTL:   10 * time.Minute,
//		Redis: redisClient,
//	}, metrics, logger)
//
// Only successful lookups are cached; ErrNotFound always reaches the inner
// resolver again.
package keys
