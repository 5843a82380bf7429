package risk

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// MatrixCache is a read-through cache for covariance matrices keyed by the
// (instrument set, observation window) pair. Building the matrix is the
// engine's most expensive operation, O(n²·T); the cache lives outside the
// calculators and is never mutated by them beyond the read-through Put.
type MatrixCache interface {
	Get(ctx context.Context, key string) (Matrix, bool, error)
	Put(ctx context.Context, key string, matrix Matrix) error
}

// LRUCache is an in-process MatrixCache backed by a fixed-size LRU.
type LRUCache struct {
	entries *lru.Cache[string, Matrix]
}

// NewLRUCache creates an in-process matrix cache holding up to size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	entries, err := lru.New[string, Matrix](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRUCache{entries: entries}, nil
}

// Get retrieves a matrix from the cache.
func (c *LRUCache) Get(_ context.Context, key string) (Matrix, bool, error) {
	matrix, ok := c.entries.Get(key)
	return matrix, ok, nil
}

// Put stores a matrix in the cache.
func (c *LRUCache) Put(_ context.Context, key string, matrix Matrix) error {
	c.entries.Add(key, matrix)
	return nil
}

// RedisCache is a MatrixCache backed by Redis, for sharing covariance models
// across engine instances. Matrices are msgpack-encoded.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed matrix cache.
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get retrieves a matrix from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) (Matrix, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Matrix{}, false, nil
		}
		return Matrix{}, false, fmt.Errorf("redis get: %w", err)
	}

	var matrix Matrix
	if err := msgpack.Unmarshal(payload, &matrix); err != nil {
		return Matrix{}, false, fmt.Errorf("decode cached matrix: %w", err)
	}
	return matrix, true, nil
}

// Put stores a matrix in Redis with the configured TTL.
func (c *RedisCache) Put(ctx context.Context, key string, matrix Matrix) error {
	payload, err := msgpack.Marshal(matrix)
	if err != nil {
		return fmt.Errorf("encode matrix: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
