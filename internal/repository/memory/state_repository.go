package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/patrickmn/go-cache"
)

// StateRepository is the in-memory slice store, used by tests and when no
// Redis is configured. Values are kept as serialized JSON so load behaves
// exactly like the durable implementation, corrupt payloads included.
type StateRepository struct {
	cache  *cache.Cache
	prefix string
}

func NewStateRepository(prefix string) *StateRepository {
	c := cache.New(cache.NoExpiration, 0)
	return &StateRepository{
		cache:  c,
		prefix: prefix,
	}
}

func (r *StateRepository) key(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *StateRepository) Load(_ context.Context, key string, dest interface{}) (bool, error) {
	x, found := r.cache.Get(r.key(key))
	if !found {
		return false, nil
	}
	raw, ok := x.([]byte)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Corrupt slice: fall back to the default value.
		return false, nil
	}
	return true, nil
}

func (r *StateRepository) Save(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.cache.Set(r.key(key), raw, cache.NoExpiration)
	return nil
}

func (r *StateRepository) Delete(_ context.Context, key string) error {
	r.cache.Delete(r.key(key))
	return nil
}

// SeedRaw stores a raw payload without serializing it. Tests use it to
// simulate a torn write left behind by a crashed process.
func (r *StateRepository) SeedRaw(key string, raw string) {
	r.cache.Set(r.key(key), []byte(raw), cache.NoExpiration)
}
