package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// KioskTokenKey returns the cache key for a validated kiosk token lookup.
func (r *CacheKeyStruct) KioskTokenKey(token string) string {
	return fmt.Sprintf("kiosk:token:%s", token)
}

// SweepLockKey returns the key used to serialize the expiry sweep across
// replicas.
func (r *CacheKeyStruct) SweepLockKey() string {
	return "passes:sweep_lock"
}

// PassEventsChannel returns the Redis PubSub channel carrying pass
// lifecycle transition events.
func (r *CacheKeyStruct) PassEventsChannel() string {
	return "passes:events"
}

var CacheKey = NewCacheKeyStruct()
