package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bookstore/pkg/domain"
)

const (
	defaultBookCacheTTL    = time.Minute
	defaultBookCachePrefix = "bookstore:book"
	redisOpTimeout         = 2 * time.Second
)

// RedisBookCache wraps a Store and caches single-book lookups in Redis.
// Entries are dropped after every successful update or delete. Redis
// failures fall through to the wrapped store.
type RedisBookCache struct {
	Store
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisBookCache builds a Redis-backed read cache in front of next.
func NewRedisBookCache(next Store, addr, password string, ttl time.Duration) (*RedisBookCache, error) {
	if next == nil {
		return nil, errors.New("book cache requires a backing store")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("book cache redis addr is required")
	}
	if ttl <= 0 {
		ttl = defaultBookCacheTTL
	}
	return &RedisBookCache{
		Store: next,
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl:    ttl,
		prefix: defaultBookCachePrefix,
	}, nil
}

// GetBook serves from Redis when possible and fills the cache on a miss.
func (c *RedisBookCache) GetBook(ctx context.Context, id int64) (domain.Book, bool, error) {
	if book, ok := c.lookup(ctx, id); ok {
		return book, true, nil
	}
	book, ok, err := c.Store.GetBook(ctx, id)
	if err != nil || !ok {
		return book, ok, err
	}
	c.fill(ctx, book)
	return book, true, nil
}

// UpdateBookIf writes through and invalidates the cached entry.
func (c *RedisBookCache) UpdateBookIf(ctx context.Context, id int64, fields domain.BookFields, allow BookPredicate) (domain.Book, bool, error) {
	book, ok, err := c.Store.UpdateBookIf(ctx, id, fields, allow)
	if err == nil && ok {
		c.invalidate(ctx, id)
	}
	return book, ok, err
}

// DeleteBookIf deletes through and invalidates the cached entry.
func (c *RedisBookCache) DeleteBookIf(ctx context.Context, id int64, allow BookPredicate) (bool, error) {
	deleted, err := c.Store.DeleteBookIf(ctx, id, allow)
	if err == nil && deleted {
		c.invalidate(ctx, id)
	}
	return deleted, err
}

// Close closes the Redis client.
func (c *RedisBookCache) Close() error {
	return c.client.Close()
}

func (c *RedisBookCache) lookup(ctx context.Context, id int64) (domain.Book, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("book cache get failed", "book_id", id, "err", err)
		}
		return domain.Book{}, false
	}
	var book domain.Book
	if err := json.Unmarshal(raw, &book); err != nil {
		slog.Warn("book cache entry corrupt", "book_id", id, "err", err)
		return domain.Book{}, false
	}
	return book, true
}

func (c *RedisBookCache) fill(ctx context.Context, book domain.Book) {
	raw, err := json.Marshal(book)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := c.client.Set(ctx, c.key(book.ID), raw, c.ttl).Err(); err != nil {
		slog.Warn("book cache set failed", "book_id", book.ID, "err", err)
	}
}

func (c *RedisBookCache) invalidate(ctx context.Context, id int64) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("book cache invalidate failed", "book_id", id, "err", err)
	}
}

func (c *RedisBookCache) key(id int64) string {
	return c.prefix + ":" + strconv.FormatInt(id, 10)
}
