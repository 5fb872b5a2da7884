package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Prometheus-метрики кэша подсказок.
var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "utm_suggest_cache_hits_total",
		Help: "Количество попаданий в кэш подсказок.",
	}, []string{"backend"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "utm_suggest_cache_misses_total",
		Help: "Количество промахов кэша подсказок.",
	}, []string{"backend"})
)

// LRUCache хранит подсказки в памяти с TTL.
type LRUCache struct {
	cache *expirable.LRU[string, []string]
}

// NewLRUCache создаёт кэш на size записей, каждая живёт ttl.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{cache: expirable.NewLRU[string, []string](size, nil, ttl)}
}

func (c *LRUCache) Get(_ context.Context, key string) ([]string, bool) {
	v, ok := c.cache.Get(key)
	if ok {
		cacheHitsTotal.WithLabelValues("lru").Inc()
		return v, true
	}
	cacheMissesTotal.WithLabelValues("lru").Inc()
	return nil, false
}

func (c *LRUCache) Set(_ context.Context, key string, values []string) {
	c.cache.Add(key, values)
}

func (c *LRUCache) Purge(context.Context) {
	c.cache.Purge()
}

// Len возвращает число записей в кэше.
func (c *LRUCache) Len() int {
	return c.cache.Len()
}

const (
	redisPrefix        = "utm:suggest:"
	redisGenerationKey = redisPrefix + "gen"
)

// RedisCache хранит подсказки в Redis, общий для нескольких процессов.
// Сброс увеличивает номер поколения: старые ключи становятся недостижимы
// и истекают по TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache подключается к Redis по URL вида redis://host:port/db.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("redis cache unavailable", zap.Error(err))
		cacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}

	buf, err := c.client.Get(ctx, c.key(gen, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache get failed", zap.Error(err))
		}
		cacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}

	var values []string
	if err := json.Unmarshal(buf, &values); err != nil {
		cacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}
	cacheHitsTotal.WithLabelValues("redis").Inc()
	return values, true
}

func (c *RedisCache) Set(ctx context.Context, key string, values []string) {
	gen, err := c.generation(ctx)
	if err != nil {
		return
	}
	buf, err := json.Marshal(values)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(gen, key), buf, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache set failed", zap.Error(err))
	}
}

func (c *RedisCache) Purge(ctx context.Context) {
	if err := c.client.Incr(ctx, redisGenerationKey).Err(); err != nil {
		c.logger.Warn("redis cache purge failed", zap.Error(err))
	}
}

// Close закрывает подключение к Redis.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, redisGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) key(gen int64, key string) string {
	return redisPrefix + strconv.FormatInt(gen, 10) + ":" + key
}
