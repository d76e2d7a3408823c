package config

import "time"

// RateLimitConfig drives the Redis token bucket.  Burst and RefillEvery are
// shorthands: a positive Burst overrides Capacity, and a positive
// RefillEvery means one token per interval.
type RateLimitConfig struct {
	Enabled        bool          `split_words:"true" default:"true"`
	Capacity       int           `split_words:"true" default:"60"`
	RefillTokens   int           `split_words:"true" default:"1"`
	RefillInterval time.Duration `split_words:"true" default:"1s"`
	TTL            time.Duration `split_words:"true" default:"10m"`
	KeyStrategy    string        `split_words:"true" default:"ip_route"`
	Prefix         string        `split_words:"true" default:"rl"`
	Debug          bool          `split_words:"true" default:"false"`
	Burst          int           `split_words:"true" default:"0"`
	RefillEvery    time.Duration `split_words:"true" default:"0s"`
}

func (c *RateLimitConfig) normalize() {
	if c.Burst > 0 {
		c.Capacity = c.Burst
	}
	if c.RefillEvery > 0 {
		c.RefillTokens = 1
		c.RefillInterval = c.RefillEvery
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	minTTL := 5 * c.RefillInterval
	if c.TTL < minTTL {
		c.TTL = minTTL
	}
}
