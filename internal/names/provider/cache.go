package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"chatpipe/internal/constants"
	"chatpipe/internal/logger"
	"chatpipe/pkg/models"
)

// CacheDirectory is a Redis read-through cache in front of another
// Directory. Cache errors degrade to the inner directory.
type CacheDirectory struct {
	client *redis.Client
	inner  Directory
	ttl    time.Duration
	logger logger.Logger
}

func NewCacheDirectory(client *redis.Client, inner Directory, ttl time.Duration, log logger.Logger) *CacheDirectory {
	if ttl <= 0 {
		ttl = constants.DefaultNamesTTL
	}
	return &CacheDirectory{
		client: client,
		inner:  inner,
		ttl:    ttl,
		logger: log,
	}
}

func (c *CacheDirectory) Name() string {
	return "cache(" + c.inner.Name() + ")"
}

func (c *CacheDirectory) FetchNames(ctx context.Context, ids []string) (map[string]models.MemberInfo, error) {
	result := make(map[string]models.MemberInfo, len(ids))
	var misses []string

	for _, id := range ids {
		val, err := c.client.Get(ctx, constants.CacheKeyPrefixNames+id).Result()
		if err != nil {
			if err != redis.Nil {
				c.logger.DebugwCtx(ctx, "Name cache read failed",
					"user_id", id,
					"error", err,
				)
			}
			misses = append(misses, id)
			continue
		}

		var info models.MemberInfo
		if err := json.Unmarshal([]byte(val), &info); err != nil {
			misses = append(misses, id)
			continue
		}
		result[id] = info
	}

	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := c.inner.FetchNames(ctx, misses)
	if err != nil {
		return nil, err
	}

	for id, info := range fetched {
		result[id] = info
		if body, err := json.Marshal(info); err == nil {
			if err := c.client.Set(ctx, constants.CacheKeyPrefixNames+id, body, c.ttl).Err(); err != nil {
				c.logger.DebugwCtx(ctx, "Name cache write failed",
					"user_id", id,
					"error", err,
				)
			}
		}
	}

	return result, nil
}
