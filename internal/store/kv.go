package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

// KV 快照缓存接口（当前实现为 Redis；测试用 miniredis 或 fake）
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

const (
	snapshotKeyPrefix = "vitals:user:"
	snapshotKeySuffix = ":latest"

	// SnapshotKeyPattern 匹配所有用户最新快照的 SCAN 模式
	SnapshotKeyPattern = snapshotKeyPrefix + "*" + snapshotKeySuffix
)

// LatestSnapshotKey 用户最新分析快照的缓存 key
func LatestSnapshotKey(userID string) string {
	return snapshotKeyPrefix + userID + snapshotKeySuffix
}

// UserFromSnapshotKey 从快照 key 反解用户 ID；非快照 key 返回空串
func UserFromSnapshotKey(key string) string {
	if !strings.HasPrefix(key, snapshotKeyPrefix) || !strings.HasSuffix(key, snapshotKeySuffix) {
		return ""
	}
	userID := strings.TrimSuffix(strings.TrimPrefix(key, snapshotKeyPrefix), snapshotKeySuffix)
	if strings.Contains(userID, ":") {
		return ""
	}
	return userID
}
