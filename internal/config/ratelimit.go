package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig parameterizes a Redis token bucket.  Login gets its own,
// much smaller bucket keyed by client IP.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadRateLimitConfig reads the general API bucket (RATE_LIMIT_*).
func LoadRateLimitConfig() RateLimitConfig {
	return normalize(RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 120),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 2),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "acrux:rl"),
	})
}

// LoadLoginRateLimitConfig reads the login bucket (LOGIN_RATE_LIMIT_*).
func LoadLoginRateLimitConfig() RateLimitConfig {
	return normalize(RateLimitConfig{
		Enabled:        envBool("LOGIN_RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("LOGIN_RATE_LIMIT_CAPACITY", 5),
		RefillTokens:   1,
		RefillInterval: envDur("LOGIN_RATE_LIMIT_REFILL_INTERVAL", 30*time.Second),
		TTL:            envDur("LOGIN_RATE_LIMIT_TTL", 15*time.Minute),
		Prefix:         envStr("LOGIN_RATE_LIMIT_PREFIX", "acrux:rl:login"),
	})
}

func normalize(c RateLimitConfig) RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool { return parseBool(os.Getenv(k), d) }

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}

func parseBool(v string, d bool) bool {
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}
