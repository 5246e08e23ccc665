package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

type Settings struct {
	Addr     string
	Password string
	DB       int
	// 0 keeps the go-redis default of 10 per CPU
	PoolSize int
}

// OpenRedis returns a client only once the server answers a PING.
func OpenRedis(ctx context.Context, s Settings) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         s.Addr,
		Password:     s.Password,
		DB:           s.DB,
		PoolSize:     s.PoolSize,
		DialTimeout:  dialTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", s.Addr, err)
	}
	return client, nil
}
