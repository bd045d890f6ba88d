package redis

import "time"

// Config holds Redis connection and channel settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// DialTimeout bounds the initial connectivity check
	DialTimeout time.Duration
	// SubscribeTimeout bounds the wait for the server to confirm a SUBSCRIBE
	SubscribeTimeout time.Duration

	// PublishKey must be non-empty for Publish to be allowed
	PublishKey string
	// SubscribeKey namespaces every channel, so clients only meet others sharing it
	SubscribeKey string
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:              "redis://localhost:6379",
		PoolSize:         10,
		MinIdleConns:     2,
		DialTimeout:      5 * time.Second,
		SubscribeTimeout: 5 * time.Second,
	}
}
