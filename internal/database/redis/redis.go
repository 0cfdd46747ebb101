package redis

import (
	"context"
	"log"
	"time"

	"exercise-service/internal/config"

	"github.com/redis/go-redis/v9"
)

var Redis_Client *redis.Client

func Connect(cfg config.RedisConfig) *redis.Client {
	Redis_Client = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis_Client.Ping(ctx).Err(); err != nil {
		log.Printf("Error connect to Redis: %s", err)
	} else {
		log.Printf("Connected to Redis at %s", cfg.Address)
	}
	return Redis_Client
}

func Close() {
	if Redis_Client != nil {
		if err := Redis_Client.Close(); err != nil {
			log.Printf("Error closing Redis client: %s", err)
		}
	}
}

func IsConnected(ctx context.Context) bool {
	return Redis_Client != nil && Redis_Client.Ping(ctx).Err() == nil
}
