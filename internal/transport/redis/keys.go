package redis

import (
	"fmt"
	"strings"
)

// Key prefix for all game channels
const keyPrefix = "rps"

// defaultNamespace is used when no subscribe key is configured
const defaultNamespace = "default"

// namespace returns the channel namespace for a subscribe key
func namespace(subscribeKey string) string {
	if subscribeKey == "" {
		return defaultNamespace
	}
	return subscribeKey
}

// channelKey returns the Redis channel for a logical channel name
func channelKey(subscribeKey, channel string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, namespace(subscribeKey), channel)
}

// channelFromKey strips the namespace from a Redis channel, reporting whether it matched
func channelFromKey(subscribeKey, key string) (string, bool) {
	return strings.CutPrefix(key, fmt.Sprintf("%s:%s:", keyPrefix, namespace(subscribeKey)))
}
