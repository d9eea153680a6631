package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"

	"github.com/go-redis/redis/v8"
)

// Snapshot 是一次缓存查询的结果。
// Version 必须原样传回 Store，这样在查询期间发生的写入会让这次回填失效。
type Snapshot struct {
	Version int64
	Records []models.PredictionRecord
	Hit     bool
}

// HistoryCache 缓存每个用户按时间倒序的历史记录。
type HistoryCache interface {
	Lookup(ctx context.Context, ownerID string) (Snapshot, error)
	Store(ctx context.Context, ownerID string, version int64, records []models.PredictionRecord) error
	Invalidate(ctx context.Context, ownerID string) error
}

// RedisHistoryCache 是基于 Redis 的 HistoryCache 实现。
// 每个用户有一个版本号键，写入时自增；数据键带版本号，旧版本数据自然不会再被读取。
type RedisHistoryCache struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewRedisHistoryCache 创建一个新的 RedisHistoryCache。
func NewRedisHistoryCache(client redis.Cmdable, ttl time.Duration) *RedisHistoryCache {
	return &RedisHistoryCache{client: client, ttl: ttl, prefix: "agripred:predictions"}
}

func (c *RedisHistoryCache) versionKey(ownerID string) string {
	return c.prefix + ":ver:" + ownerID
}

func (c *RedisHistoryCache) dataKey(ownerID string, version int64) string {
	return c.prefix + ":history:" + ownerID + ":" + strconv.FormatInt(version, 10)
}

// Lookup 读取用户当前版本的缓存。
func (c *RedisHistoryCache) Lookup(ctx context.Context, ownerID string) (Snapshot, error) {
	version, err := c.client.Get(ctx, c.versionKey(ownerID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("读取缓存版本失败: %w", err)
	}

	raw, err := c.client.Get(ctx, c.dataKey(ownerID, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{Version: version}, nil
	}
	if err != nil {
		return Snapshot{Version: version}, fmt.Errorf("读取历史缓存失败: %w", err)
	}

	records, err := decodeRecords(raw)
	if err != nil {
		return Snapshot{Version: version}, err
	}
	return Snapshot{Version: version, Records: records, Hit: true}, nil
}

// Store 以 version 为键回填缓存。
func (c *RedisHistoryCache) Store(ctx context.Context, ownerID string, version int64, records []models.PredictionRecord) error {
	raw, err := encodeRecords(records)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.dataKey(ownerID, version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入历史缓存失败: %w", err)
	}
	return nil
}

// Invalidate 自增用户的版本号，使所有已缓存的数据失效。
// ttl <= 0 时版本号键永不过期，否则会在自增后立即被删除，使版本回到 0。
func (c *RedisHistoryCache) Invalidate(ctx context.Context, ownerID string) error {
	key := c.versionKey(ownerID)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, key)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, 2*c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("使历史缓存失效失败: %w", err)
	}
	return nil
}

// cachedRecord 在 JSON 中额外保留 Seq，API 输出中该字段是隐藏的。
type cachedRecord struct {
	models.PredictionRecord
	Seq int64 `json:"seq"`
}

func encodeRecords(records []models.PredictionRecord) ([]byte, error) {
	out := make([]cachedRecord, len(records))
	for i, r := range records {
		out[i] = cachedRecord{PredictionRecord: r, Seq: r.Seq}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("序列化历史缓存失败: %w", err)
	}
	return raw, nil
}

func decodeRecords(raw []byte) ([]models.PredictionRecord, error) {
	var in []cachedRecord
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("反序列化历史缓存失败: %w", err)
	}
	records := make([]models.PredictionRecord, len(in))
	for i, r := range in {
		rec := r.PredictionRecord
		rec.Seq = r.Seq
		records[i] = rec
	}
	return records, nil
}
