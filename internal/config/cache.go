package config

import "time"

// CacheConfig defines settings for the analytics response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled entirely.  TTL controls how long a cached analytics response is
// served before the aggregator is consulted again; analytics tolerate
// slightly stale reads so a short TTL is the default.
type CacheConfig struct {
	Enabled      bool          // master switch for the middleware
	TTL          time.Duration // lifetime of a cached response
	Prefix       string        // key namespace in Redis
	MaxBodyBytes int           // responses larger than this are not cached
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "analytics"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
