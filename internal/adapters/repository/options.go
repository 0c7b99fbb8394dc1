package repository

import (
	"github.com/go-redis/redis/v8"
	"github.com/okian/bout/pkg/logger"
)

// Option applies a configuration option to Open.
type Option func(*openOptions)

type openOptions struct {
	redisClient *redis.Client
	logger      logger.Logger
}

// WithRedisClient reuses an existing client for the redis backend instead of
// dialing Config.RedisAddr. The store does not close a client it did not open.
func WithRedisClient(c *redis.Client) Option {
	return func(o *openOptions) {
		o.redisClient = c
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(l logger.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
