package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kiwi-assistant-core/internal/pkg/logger"
)

// RedisStateRepository is the durable slice store. Each slice lives under
// <prefix>:<key> as one JSON string; writes are whole-slice overwrites.
type RedisStateRepository struct {
	client *redis.Client
	prefix string
	logger logger.ILogger
}

func NewRedisStateRepository(client *redis.Client, prefix string, log logger.ILogger) *RedisStateRepository {
	return &RedisStateRepository{
		client: client,
		prefix: prefix,
		logger: log,
	}
}

func (r *RedisStateRepository) key(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *RedisStateRepository) Load(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// A torn or hand-edited value must not take down startup; the
		// slice falls back to its default.
		r.logger.Warn("StateRepository", "Discarding corrupt state slice", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false, nil
	}
	return true, nil
}

func (r *RedisStateRepository) Save(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), raw, 0).Err()
}

func (r *RedisStateRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
