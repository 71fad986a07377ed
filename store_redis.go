package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	redisSightingsKey = "sightings"
	redisSeqKey       = "sightings:seq"
)

// redisRecord is the JSON value stored per sighting. Seq is the score the
// sighting carries in every index so insertion order survives updates.
type redisRecord struct {
	Sighting
	Seq int64 `json:"seq"`
}

// RedisStore provides sighting persistence in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sightingKey(id string) string { return fmt.Sprintf("sighting:%s", id) }

func foodKey(food string) string { return fmt.Sprintf("sightings:food:%s", food) }

// ValidateID accepts UUIDs in any spelling uuid.Parse understands.
func (s *RedisStore) ValidateID(id string) error {
	_, err := canonicalUUID(id)
	return err
}

// Insert stores a new sighting under a fresh UUID.
func (s *RedisStore) Insert(ctx context.Context, sighting *Sighting) (string, error) {
	seq, err := s.client.Incr(ctx, redisSeqKey).Result()
	if err != nil {
		return "", fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}
	sighting.ID = uuid.NewString()
	rec := redisRecord{Sighting: *sighting, Seq: seq}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sightingKey(rec.ID), data, 0)
		addIndices(ctx, pipe, &rec)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}
	return rec.ID, nil
}

// Find returns sightings from the food index when a food is given, or from
// the full index otherwise, and applies the description match in process.
func (s *RedisStore) Find(ctx context.Context, filter SearchFilter) ([]*Sighting, error) {
	setKey := redisSightingsKey
	if filter.Food != "" {
		setKey = foodKey(filter.Food)
	}

	ids, err := s.client.ZRange(ctx, setKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: find: %w", ErrStorage, err)
	}
	if len(ids) == 0 {
		return []*Sighting{}, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, sightingKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("%w: find: %w", ErrStorage, err)
	}

	needle := strings.ToLower(filter.Description)
	sightings := make([]*Sighting, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("%w: find: %w", ErrStorage, err)
		}
		var rec redisRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("%w: find: %w", ErrStorage, err)
		}
		if needle != "" && !strings.Contains(strings.ToLower(rec.Description), needle) {
			continue
		}
		sighting := rec.Sighting
		if sighting.Food == nil {
			sighting.Food = []string{}
		}
		sightings = append(sightings, &sighting)
	}
	return sightings, nil
}

// Update rewrites the sighting and moves it between food indices. The
// sighting key is watched so a concurrent write aborts the transaction.
func (s *RedisStore) Update(ctx context.Context, id string, sighting *Sighting) error {
	id, err := canonicalUUID(id)
	if err != nil {
		return err
	}
	key := sightingKey(id)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		old, err := getRecord(ctx, tx, key)
		if err != nil || old == nil {
			return err
		}
		rec := redisRecord{Sighting: *sighting, Seq: old.Seq}
		rec.ID = id
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, f := range old.Food {
				pipe.ZRem(ctx, foodKey(f), id)
			}
			pipe.Set(ctx, key, data, 0)
			addIndices(ctx, pipe, &rec)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("%w: update: %w", ErrStorage, err)
	}
	return nil
}

// Delete removes the sighting and its index entries.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	id, err := canonicalUUID(id)
	if err != nil {
		return err
	}
	key := sightingKey(id)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		old, err := getRecord(ctx, tx, key)
		if err != nil || old == nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, redisSightingsKey, id)
			for _, f := range old.Food {
				pipe.ZRem(ctx, foodKey(f), id)
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("%w: delete: %w", ErrStorage, err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close(context.Context) error {
	return s.client.Close()
}

// getRecord loads the record at key, returning nil when it does not exist.
func getRecord(ctx context.Context, tx *redis.Tx, key string) (*redisRecord, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func addIndices(ctx context.Context, pipe redis.Pipeliner, rec *redisRecord) {
	z := &redis.Z{Score: float64(rec.Seq), Member: rec.ID}
	pipe.ZAdd(ctx, redisSightingsKey, z)
	for _, f := range rec.Food {
		pipe.ZAdd(ctx, foodKey(f), z)
	}
}
