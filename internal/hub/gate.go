package hub

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/auth"
	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// Gate 认证门
// 每条连接的第一条消息必须是 auth 或 auth_device；
// 其他任何形态的首消息都会导致连接关闭
type Gate struct {
	verifier auth.Verifier
	logger   *zap.Logger
}

// NewGate 创建认证门
func NewGate(verifier auth.Verifier, logger *zap.Logger) *Gate {
	return &Gate{
		verifier: verifier,
		logger:   logger,
	}
}

// HandleFirstMessage 处理未认证连接的首条消息
// 返回 true 表示连接已成功提升；返回 false 时连接已被关闭
// 校验期间宽限定时器可能触发关闭，promote 内部的 closed 检查保证
// 超时关闭后的连接不会再被提升
func (g *Gate) HandleFirstMessage(ctx context.Context, c *Conn, payload []byte) bool {
	var msg models.Envelope
	if err := json.Unmarshal(payload, &msg); err != nil {
		g.logger.Warn("Closing connection: malformed first message",
			zap.String("conn_id", c.ID),
			zap.Error(err),
		)
		c.Close()
		return false
	}

	switch msg.Type {
	case models.TypeAuth:
		identity, err := g.verifier.VerifyUserToken(ctx, msg.Token)
		if err != nil {
			g.logger.Warn("Closing connection: viewer authentication failed",
				zap.String("conn_id", c.ID),
				zap.Error(err),
			)
			c.Close()
			return false
		}
		if err := c.PromoteViewer(identity); err != nil {
			// 校验期间连接已被宽限定时器关闭
			g.logger.Info("Viewer promotion rejected",
				zap.String("conn_id", c.ID),
				zap.Error(err),
			)
			c.Close()
			return false
		}
		if err := c.SendJSON(models.AuthSuccessMessage{Type: models.TypeAuthSuccess}); err != nil {
			g.logger.Warn("Failed to send auth_success",
				zap.String("conn_id", c.ID),
				zap.Error(err),
			)
		}
		g.logger.Info("Viewer authenticated",
			zap.String("conn_id", c.ID),
			zap.String("user_id", identity.UserID),
		)
		return true

	case models.TypeAuthDevice:
		identity, err := g.verifier.VerifyDeviceKey(ctx, msg.APIKey)
		if err != nil {
			g.logger.Warn("Closing connection: device authentication failed",
				zap.String("conn_id", c.ID),
				zap.Error(err),
			)
			c.Close()
			return false
		}
		if err := c.PromoteDevice(identity); err != nil {
			g.logger.Info("Device promotion rejected",
				zap.String("conn_id", c.ID),
				zap.Error(err),
			)
			c.Close()
			return false
		}
		if err := c.SendJSON(models.AuthSuccessMessage{
			Type:    models.TypeAuthSuccess,
			PlantID: identity.PlantID,
		}); err != nil {
			g.logger.Warn("Failed to send auth_success",
				zap.String("conn_id", c.ID),
				zap.Error(err),
			)
		}
		g.logger.Info("Device authenticated",
			zap.String("conn_id", c.ID),
			zap.String("device_id", identity.DeviceID),
			zap.String("plant_id", identity.PlantID),
		)
		return true

	default:
		g.logger.Warn("Closing connection: unexpected first message type",
			zap.String("conn_id", c.ID),
			zap.String("type", msg.Type),
		)
		c.Close()
		return false
	}
}
