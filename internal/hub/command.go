package hub

import (
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// CommandRouter 把 Viewer 下发的控制指令转发到目标植物的 Device 连接
type CommandRouter struct {
	registry *Registry
	logger   *zap.Logger
}

// NewCommandRouter 创建指令路由器
func NewCommandRouter(registry *Registry, logger *zap.Logger) *CommandRouter {
	return &CommandRouter{
		registry: registry,
		logger:   logger,
	}
}

// ForwardLEDControl 转发 LED 控制指令
// 设备不在线时静默丢弃（设备是间歇性连接的，不算错误），返回是否送达
func (r *CommandRouter) ForwardLEDControl(plantID string, state bool) bool {
	target := r.registry.FindDeviceByPlant(plantID)
	if target == nil {
		r.logger.Debug("No device online for led_control, dropping",
			zap.String("plant_id", plantID),
		)
		return false
	}

	if err := target.SendJSON(models.LEDCommand{
		Type:  models.TypeLEDControl,
		State: state,
	}); err != nil {
		r.logger.Warn("Failed to forward led_control",
			zap.String("conn_id", target.ID),
			zap.String("plant_id", plantID),
			zap.Error(err),
		)
		return false
	}

	r.logger.Debug("Forwarded led_control",
		zap.String("plant_id", plantID),
		zap.Bool("state", state),
	)
	return true
}
