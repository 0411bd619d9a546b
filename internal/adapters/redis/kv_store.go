// Package redis provides the Redis-backed durable store for the auth state.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/ports"
)

var _ ports.KeyValueStore = (*KVStore)(nil)

// KVStore is a Redis-based key-value store.
// Multi-key writes and deletes run inside MULTI/EXEC so the auth triple
// is never observed half-written. Keys never expire; clearing is explicit.
type KVStore struct {
	client redis.UniversalClient
	prefix string
}

// NewKVStore creates a Redis KV store without a key prefix.
func NewKVStore(client redis.UniversalClient) *KVStore {
	return &KVStore{client: client}
}

// ClusterHashTag is prepended to the key prefix on cluster clients so every
// auth key hashes to the same slot. MGET and MULTI/EXEC need that.
const ClusterHashTag = "{routeguard}:"

// NewKVStoreWithPrefix creates a Redis KV store with a custom key prefix.
// On a cluster client a prefix without a hash tag gets ClusterHashTag in front.
func NewKVStoreWithPrefix(client redis.UniversalClient, prefix string) *KVStore {
	if _, ok := client.(*redis.ClusterClient); ok && hashTag(prefix) == "" {
		prefix = ClusterHashTag + prefix
	}
	return &KVStore{client: client, prefix: prefix}
}

func (s *KVStore) key(k string) string { return s.prefix + k }

// hashTag returns the part of key that Redis Cluster hashes, or "" when the
// key has no usable {tag}.
func hashTag(key string) string {
	start := strings.IndexByte(key, '{')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(key[start+1:], '}')
	if end <= 0 {
		return ""
	}
	return key[start+1 : start+1+end]
}

func (s *KVStore) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}

	vals, err := s.client.MGet(ctx, full...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "redis mget")
	}

	for i, v := range vals {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, apperrors.Internal(fmt.Sprintf("redis mget: unexpected %T for %s", v, keys[i]))
		}
		out[keys[i]] = str
	}
	return out, nil
}

func (s *KVStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, s.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "redis set")
	}
	return nil
}

func (s *KVStore) DeleteMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil // Nothing to delete
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, full...)
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "redis del")
	}
	return nil
}
