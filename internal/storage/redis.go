package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dateIndexKey = "chartscraper:date_index"

// dateIndexTTL keeps the discovered index fresh enough for a daily-updated
// site without re-hitting the landing page on every range job.
const dateIndexTTL = 6 * time.Hour

// RedisStore handles interactions with Redis for caching and dedup.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MarkScraped sets a key with a TTL to prevent re-scraping the same job.
func (s *RedisStore) MarkScraped(ctx context.Context, jobKey string, ttl time.Duration) error {
	key := fmt.Sprintf("scraped:%s", jobKey)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRecentlyScraped checks if a job ran within the TTL.
func (s *RedisStore) IsRecentlyScraped(ctx context.Context, jobKey string) (bool, error) {
	key := fmt.Sprintf("scraped:%s", jobKey)
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// SetDateIndex caches the site's published chart dates.
func (s *RedisStore) SetDateIndex(ctx context.Context, dates []time.Time) error {
	payload, err := json.Marshal(dates)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, dateIndexKey, payload, dateIndexTTL).Err()
}

// GetDateIndex returns the cached chart dates, or nil when absent.
func (s *RedisStore) GetDateIndex(ctx context.Context) ([]time.Time, error) {
	payload, err := s.client.Get(ctx, dateIndexKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	if err := json.Unmarshal(payload, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}
