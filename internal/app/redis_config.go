package app

import (
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisOptions converts the rate limit Redis settings into client options.
func (c RedisConfig) RedisOptions() *redis.Options {
	opts := &redis.Options{
		Addr:     strings.TrimSpace(c.Address),
		Username: strings.TrimSpace(c.Username),
		Password: c.Password,
		DB:       c.DB,
	}
	if c.Timeout > 0 {
		opts.DialTimeout = c.Timeout
		opts.ReadTimeout = c.Timeout
		opts.WriteTimeout = c.Timeout
	}
	if c.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}
