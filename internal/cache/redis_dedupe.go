package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RedisEventDeduper implements EventDeduper with SET NX.
type RedisEventDeduper struct {
	client *redis.Client
	prefix string
}

// NewRedisEventDeduper creates a new Redis-based deduper.
func NewRedisEventDeduper(cfg RedisConfig, prefix string) (*RedisEventDeduper, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisEventDeduperFromClient(client, prefix), nil
}

// NewRedisEventDeduperFromClient wraps an existing client.
func NewRedisEventDeduperFromClient(client *redis.Client, prefix string) *RedisEventDeduper {
	return &RedisEventDeduper{client: client, prefix: prefix}
}

// BuildKey creates the key for an event id.
func (d *RedisEventDeduper) BuildKey(id string) string {
	return fmt.Sprintf("%s:event:%s", d.prefix, id)
}

func (d *RedisEventDeduper) MarkSeen(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.BuildKey(id), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event in redis: %w", err)
	}
	return ok, nil
}

// Client exposes the underlying client for sharing with other components.
func (d *RedisEventDeduper) Client() *redis.Client {
	return d.client
}

func (d *RedisEventDeduper) Close() error {
	return d.client.Close()
}
