package hub

import (
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// Broadcaster 把一条读数扇出给订阅该植物的 Viewer 连接
type Broadcaster struct {
	registry *Registry
	logger   *zap.Logger
}

// NewBroadcaster 创建广播器
func NewBroadcaster(registry *Registry, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logger,
	}
}

// Broadcast 扇出读数，返回实际送达的连接数
// 只发送给 role=Viewer 且 userId 在订阅集合中的打开连接；
// 单条连接的发送失败不中断其余连接
func (b *Broadcaster) Broadcast(plantID string, reading models.SensorReading, subscribers map[string]struct{}) int {
	msg := models.SensorBroadcast{
		Type: models.TypeSensorData,
		Data: models.SensorBroadcastData{
			Temperature: reading.Temperature,
			Humidity:    reading.Humidity,
			LightLevel:  reading.LightLevel,
			PlantID:     plantID,
		},
	}

	sent := 0
	b.registry.ForEachOpen(func(c *Conn) {
		viewer := c.ViewerIdentity()
		if viewer == nil {
			return
		}
		if _, ok := subscribers[viewer.UserID]; !ok {
			return
		}
		if err := c.SendJSON(msg); err != nil {
			b.logger.Warn("Failed to send broadcast",
				zap.String("conn_id", c.ID),
				zap.String("user_id", viewer.UserID),
				zap.String("plant_id", plantID),
				zap.Error(err),
			)
			return
		}
		sent++
	})

	b.logger.Debug("Broadcast complete",
		zap.String("plant_id", plantID),
		zap.Int("sent", sent),
		zap.Int("subscribers", len(subscribers)),
	)
	return sent
}
