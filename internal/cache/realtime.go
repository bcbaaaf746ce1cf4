package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// LatestReading 缓存中的最新读数（带上报时间戳）
type LatestReading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	LightLevel  float64 `json:"light_level"`
	Timestamp   int64   `json:"timestamp"`
}

// RealtimeCache 每棵植物最新读数的 Redis 缓存
// 短 TTL、尽力而为：写入失败不影响中继主路径
type RealtimeCache struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
	logger      *zap.Logger
}

// NewRealtimeCache 创建实时读数缓存
func NewRealtimeCache(redisClient *redis.Client, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RealtimeCache {
	return &RealtimeCache{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
		ttl:         ttl,
		logger:      logger,
	}
}

// key 构建缓存键，如 "plant-monitor:plant:<plantID>:realtime"
func (c *RealtimeCache) key(plantID string) string {
	return c.keyPrefix + plantID + ":realtime"
}

// SetLatest 写入最新读数
func (c *RealtimeCache) SetLatest(ctx context.Context, plantID string, reading models.SensorReading) error {
	entry := LatestReading{
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		LightLevel:  reading.LightLevel,
		Timestamp:   time.Now().Unix(),
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal latest reading: %w", err)
	}

	if err := c.redisClient.Set(ctx, c.key(plantID), jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set latest reading: %w", err)
	}

	return nil
}

// GetLatest 读取最新读数
func (c *RealtimeCache) GetLatest(ctx context.Context, plantID string) (*LatestReading, error) {
	val, err := c.redisClient.Get(ctx, c.key(plantID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}

	var entry LatestReading
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal latest reading: %w", err)
	}

	return &entry, nil
}
