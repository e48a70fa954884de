package session

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, letting a session snapshot survive
// a host process restart on a different machine in the same deployment.
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. key identifies this client's
// snapshot; ttl bounds how long a snapshot remains eligible for resumption
// after the host process stops touching it (zero disables expiry).
func NewRedisStore(rdb *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = "mcp:session:default"
	}
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, data, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
