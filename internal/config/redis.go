package config

// Redis backs the server-side idle sessions, the statistics response
// cache and the rate limiters.  When the server cannot be reached the
// constructor returns nil and callers degrade: caching and rate limiting
// are skipped and only the JWT expiry bounds a session.

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/acrux-trazabilidad/internal/logger"
)

// NewRedisClient builds a client from REDIS_URL, or from REDIS_ADDR /
// REDIS_HOST+REDIS_PORT, REDIS_PASSWORD, REDIS_DB and REDIS_TLS.  It
// returns nil when the server does not answer a ping within two seconds.
func NewRedisClient() *redis.Client {
	opt, err := redisOptions()
	if err != nil {
		logger.Logger.WithError(err).Warn("redis: invalid REDIS_URL")
		return nil
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Logger.WithError(err).WithField("addr", opt.Addr).Warn("redis: unreachable")
		_ = client.Close()
		return nil
	}
	return client
}

func redisOptions() (*redis.Options, error) {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return redis.ParseURL(url)
	}
	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	var tlsConf *tls.Config
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &redis.Options{
		Addr:         addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           dbNum,
		TLSConfig:    tlsConf,
		PoolSize:     50,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
	}, nil
}
