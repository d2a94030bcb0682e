package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chatpipe/internal/constants"
	"chatpipe/internal/logger"
)

// RedisRegistry stores transfer progress in Redis hashes keyed
// "progress:{msgID}". Lookup misses and Redis errors both degrade to a
// zero snapshot.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisRegistry(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisRegistry {
	if ttl <= 0 {
		ttl = constants.DefaultProgressTTL
	}
	return &RedisRegistry{client: client, ttl: ttl, logger: log}
}

func (r *RedisRegistry) Snapshot(ctx context.Context, msgID string) Snapshot {
	var snap Snapshot

	values, err := r.client.HGetAll(ctx, r.key(msgID)).Result()
	if err != nil {
		r.logger.DebugwCtx(ctx, "Progress lookup failed, using zero snapshot",
			"error", err,
		)
		return snap
	}

	if v, ok := values["upload"]; ok {
		fmt.Sscanf(v, "%d", &snap.Upload)
	}
	if v, ok := values["download"]; ok {
		fmt.Sscanf(v, "%d", &snap.Download)
	}
	return snap
}

func (r *RedisRegistry) SetUpload(ctx context.Context, msgID string, progress int) error {
	return r.set(ctx, msgID, "upload", progress)
}

func (r *RedisRegistry) SetDownload(ctx context.Context, msgID string, progress int) error {
	return r.set(ctx, msgID, "download", progress)
}

func (r *RedisRegistry) set(ctx context.Context, msgID, field string, progress int) error {
	key := r.key(msgID)
	if err := r.client.HSet(ctx, key, field, progress).Err(); err != nil {
		return fmt.Errorf("redis HSet failed: %w", err)
	}
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis Expire failed: %w", err)
	}
	return nil
}

func (r *RedisRegistry) key(msgID string) string {
	return constants.CacheKeyPrefixProgress + msgID
}
