package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// ReadingsStore 读数持久化接口
type ReadingsStore interface {
	InsertReading(ctx context.Context, plantID string, reading models.SensorReading) error
}

// PlantsStore 植物查询接口
type PlantsStore interface {
	GetPlant(ctx context.Context, plantID string) (*models.Plant, error)
}

// SubscribersStore 订阅者查询接口
type SubscribersStore interface {
	GetSubscribers(ctx context.Context, plantID string) (map[string]struct{}, error)
}

// ReadingBroadcaster 读数扇出接口（由 hub.Broadcaster 实现）
type ReadingBroadcaster interface {
	Broadcast(plantID string, reading models.SensorReading, subscribers map[string]struct{}) int
}

// ReadingEvaluator 阈值评估接口（由 evaluator.Evaluator 实现）
type ReadingEvaluator interface {
	Evaluate(ctx context.Context, plant models.Plant, reading models.SensorReading)
}

// RealtimeWriter 实时缓存写入接口（由 cache.RealtimeCache 实现）
type RealtimeWriter interface {
	SetLatest(ctx context.Context, plantID string, reading models.SensorReading) error
}

// IngestService 读数处理管线
// 落库（尽力而为）→ 解析植物 → 解析订阅者 → 广播 + 阈值评估
type IngestService struct {
	readings    ReadingsStore
	plants      PlantsStore
	subscribers SubscribersStore
	realtime    RealtimeWriter // 可为 nil（未启用缓存）
	broadcaster ReadingBroadcaster
	evaluator   ReadingEvaluator
	logger      *zap.Logger
}

// NewIngestService 创建读数处理管线
func NewIngestService(
	readings ReadingsStore,
	plants PlantsStore,
	subscribers SubscribersStore,
	realtime RealtimeWriter,
	broadcaster ReadingBroadcaster,
	evaluator ReadingEvaluator,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		readings:    readings,
		plants:      plants,
		subscribers: subscribers,
		realtime:    realtime,
		broadcaster: broadcaster,
		evaluator:   evaluator,
		logger:      logger,
	}
}

// Process 处理一条已认证设备上报的读数
func (s *IngestService) Process(ctx context.Context, device models.DeviceIdentity, reading models.SensorReading) {
	// 1. 落库（实时中继不依赖持久化，失败只记录日志）
	if err := s.readings.InsertReading(ctx, device.PlantID, reading); err != nil {
		s.logger.Error("Failed to persist sensor reading",
			zap.String("plant_id", device.PlantID),
			zap.String("device_id", device.DeviceID),
			zap.Error(err),
		)
	}

	// 2. 刷新实时缓存（同样尽力而为）
	if s.realtime != nil {
		if err := s.realtime.SetLatest(ctx, device.PlantID, reading); err != nil {
			s.logger.Warn("Failed to update realtime cache",
				zap.String("plant_id", device.PlantID),
				zap.Error(err),
			)
		}
	}

	// 3. 解析植物（名称 + 阈值）
	// 查不到说明植物已被删除，设备视为静默无效，本次事件到此为止
	plant, err := s.plants.GetPlant(ctx, device.PlantID)
	if err != nil {
		s.logger.Warn("Plant resolution failed, dropping event",
			zap.String("plant_id", device.PlantID),
			zap.Error(err),
		)
		return
	}

	// 4. 解析当前订阅者集合（每次事件都重新查询，不缓存）
	subscribers, err := s.subscribers.GetSubscribers(ctx, device.PlantID)
	if err != nil {
		s.logger.Error("Subscriber resolution failed, dropping event",
			zap.String("plant_id", device.PlantID),
			zap.Error(err),
		)
		return
	}
	if len(subscribers) == 0 {
		// 没有观看者就没有扇出和评估的必要
		return
	}

	// 5. 广播与阈值评估相互独立，并发执行
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.broadcaster.Broadcast(device.PlantID, reading, subscribers)
	}()
	go func() {
		defer wg.Done()
		s.evaluator.Evaluate(ctx, *plant, reading)
	}()
	wg.Wait()
}
