package database

import (
	"github.com/go-redis/redis"
	"github.com/northlane/voicebridge/internal/config"
)

// NewRedis builds the shared redis.Client backing the rate limiter (C10)
// and, via its own asynq.RedisClientOpt, the campaign dispatcher's job
// queue (C9).
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Pass,
		DB:       cfg.DB,
	})
	return client, nil
}
