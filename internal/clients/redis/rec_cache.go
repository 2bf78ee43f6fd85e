package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/utils"
)

// RecommendationCache is optional: a nil cache is valid and every
// method on it is a no-op, so callers never have to branch on
// whether redis is configured.
type RecommendationCache struct {
	log *logger.Logger
	rdb *redis.Client
	ttl time.Duration
}

type CachedRecommendation struct {
	ItemID string  `json:"item_id"`
	Type   string  `json:"type"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// NewRecommendationCache returns nil (not an error) when REDIS_ADDR
// is unset. A set-but-unreachable address is an error: a half-broken
// cache is worse than none.
func NewRecommendationCache(log *logger.Logger) (*RecommendationCache, error) {
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		log.Info("REDIS_ADDR not set; recommendation cache disabled")
		return nil, nil
	}
	password := utils.GetEnv("REDIS_PASSWORD", "", log)
	ttlSeconds := utils.GetEnvAsInt("RECOMMENDATION_CACHE_TTL_SECONDS", 900, log)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed (addr=%s): %w", addr, err)
	}

	log.With("service", "RecommendationCache").Info("Connected to redis", "addr", addr, "ttl_seconds", ttlSeconds)
	return &RecommendationCache{
		log: log.With("service", "RecommendationCache"),
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func cacheKey(userID, recType string) string {
	return fmt.Sprintf("rec:%s:%s", userID, recType)
}

// Get returns (nil, nil) on miss. Cache failures are logged and
// reported as misses so recommendation generation still proceeds.
func (c *RecommendationCache) Get(ctx context.Context, userID, recType string) ([]CachedRecommendation, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, cacheKey(userID, recType)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.log.Warn("Cache read failed", "user_id", userID, "rec_type", recType, "error", err)
		return nil, nil
	}
	var recs []CachedRecommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		c.log.Warn("Cache entry corrupt; dropping", "user_id", userID, "rec_type", recType, "error", err)
		_ = c.rdb.Del(ctx, cacheKey(userID, recType)).Err()
		return nil, nil
	}
	return recs, nil
}

func (c *RecommendationCache) Set(ctx context.Context, userID, recType string, recs []CachedRecommendation) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshal cached recommendations: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(userID, recType), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", "user_id", userID, "rec_type", recType, "error", err)
	}
	return nil
}

// Invalidate clears every cached type for the user.
func (c *RecommendationCache) Invalidate(ctx context.Context, userID string) {
	if c == nil || c.rdb == nil {
		return
	}
	pattern := fmt.Sprintf("rec:%s:*", userID)
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Warn("Cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("Cache scan failed", "user_id", userID, "error", err)
	}
}

func (c *RecommendationCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
