package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ResponseCache stores parsed gateway responses.
type ResponseCache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Set(ctx context.Context, key string, value json.RawMessage)
}

func CacheKey(provider string, temperature float64, jsonMode bool, prompt string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(temperature, 'f', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(jsonMode)))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

type lruCache struct {
	cache *expirable.LRU[string, []byte]
}

func NewLRUCache(size int, ttl time.Duration) ResponseCache {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	return &lruCache{cache: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (l *lruCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	v, ok := l.cache.Get(key)
	if !ok {
		return nil, false
	}
	logutil.GetLogger(ctx).Debug("ai response cache hit (lru)", zap.String("key", key))
	return cloneBytes(v), true
}

func (l *lruCache) Set(ctx context.Context, key string, value json.RawMessage) {
	l.cache.Add(key, cloneBytes(value))
}

type redisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) ResponseCache {
	if client == nil {
		return nil
	}
	return &redisCache{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logutil.GetLogger(ctx).Warn("read ai response cache failed", zap.Error(err))
		}
		return nil, false
	}
	logutil.GetLogger(ctx).Debug("ai response cache hit (redis)", zap.String("key", key))
	return json.RawMessage(v), true
}

func (r *redisCache) Set(ctx context.Context, key string, value json.RawMessage) {
	if err := r.client.Set(ctx, r.prefix+key, []byte(value), r.ttl).Err(); err != nil {
		logutil.GetLogger(ctx).Warn("write ai response cache failed", zap.Error(err))
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
