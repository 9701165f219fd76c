package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/common/config"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
	redisErr    error
)

// GetRedis returns the shared client and the result of the initial ping.
// Callers treat a ping failure as "run without cache".
func GetRedis() (*redis.Client, error) {
	redisOnce.Do(func() {
		cfg := config.Load()
		addr := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
		redisClient = redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		log := logger.Component("cache").WithField("addr", addr)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisErr = fmt.Errorf("ping redis %s: %w", addr, err)
			log.WithError(err).Warn("Redis unreachable")
			return
		}
		log.Info("Connected to Redis")
	})

	return redisClient, redisErr
}

func CloseRedis() error {
	if redisClient == nil {
		return nil
	}
	return redisClient.Close()
}
