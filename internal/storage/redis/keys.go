package redis

import "fmt"

// Key prefix for all rate limiting data
const keyPrefix = "covey"

// counterKey returns the Redis key for a fixed-window request counter
func counterKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:count:%s", keyPrefix, key)
}

// banKey returns the Redis key marking a subject as banned
func banKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:ban:%s", keyPrefix, key)
}
