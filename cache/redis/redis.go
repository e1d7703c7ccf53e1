package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vireoapp/vireo/models"
)

type RedisVireoCache struct {
	client redis.UniversalClient
}

func NewRedisVireoCache(ctx context.Context, devMode bool, redis_endpoint string) (*RedisVireoCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redis_endpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redis_endpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisVireoCache{client: client}, nil
}

func (redisCache *RedisVireoCache) Publish(ctx context.Context, channel string, message []byte) error {
	if err := redisCache.client.Publish(ctx, channel, message).Err(); err != nil {
		return err
	}
	return nil
}

func (redisCache *RedisVireoCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	pubsub := redisCache.client.Subscribe(ctx, channel)
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("Pubsub channel closed: %s", channel)
		return err
	}

	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

func buildPublicKeyKey(userId string) string {
	return "pubkey:{" + userId + "}"
}

const cacheTTL = 10 * time.Minute

func (redisCache *RedisVireoCache) GetPublicKey(ctx context.Context, userId string) (models.PublicKeyInfo, bool, error) {
	val, err := redisCache.client.Get(ctx, buildPublicKeyKey(userId)).Result()
	if err != nil {
		if err == redis.Nil {
			return models.PublicKeyInfo{}, false, nil
		}
		return models.PublicKeyInfo{}, false, err
	}

	var info models.PublicKeyInfo
	if err := json.Unmarshal([]byte(val), &info); err != nil {
		// Stale or corrupt entry; treat as a miss and drop it
		redisCache.client.Del(ctx, buildPublicKeyKey(userId))
		return models.PublicKeyInfo{}, false, nil
	}

	return info, true, nil
}

func (redisCache *RedisVireoCache) SetPublicKey(ctx context.Context, userId string, info models.PublicKeyInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return redisCache.client.Set(ctx, buildPublicKeyKey(userId), data, cacheTTL).Err()
}

func (redisCache *RedisVireoCache) InvalidatePublicKey(ctx context.Context, userId string) error {
	return redisCache.client.Del(ctx, buildPublicKeyKey(userId)).Err()
}
