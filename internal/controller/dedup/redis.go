package dedup

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "tutorbot:update:"

// RedisStore хранит отметки в Redis, общих для всех реплик бота
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient создаёт клиента по адресу из конфигурации
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// MarkSeen ставит ключ через SETNX: ключ уже есть - обновление повторное
func (s *RedisStore) MarkSeen(ctx context.Context, updateID int64) (bool, error) {
	return s.client.SetNX(ctx, keyPrefix+strconv.FormatInt(updateID, 10), 1, s.ttl).Result()
}

// Ping проверяет соединение с Redis
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
