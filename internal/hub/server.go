package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// SensorSink 传感器读数的下游处理管线（由 service.IngestService 实现）
type SensorSink interface {
	Process(ctx context.Context, device models.DeviceIdentity, reading models.SensorReading)
}

// Server WebSocket 接入层
// 每条连接一个 goroutine，串行处理该连接的消息（同连接内保序）；
// 注册表与节流器是唯一的跨连接共享状态
type Server struct {
	registry *Registry
	gate     *Gate
	ingest   SensorSink
	commands *CommandRouter
	grace    time.Duration
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer 创建 WebSocket 接入层
func NewServer(registry *Registry, gate *Gate, ingest SensorSink, commands *CommandRouter, grace time.Duration, logger *zap.Logger) *Server {
	return &Server{
		registry: registry,
		gate:     gate,
		ingest:   ingest,
		commands: commands,
		grace:    grace,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 设备与 App 均为非浏览器客户端
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP 升级 HTTP 连接为 WebSocket 并进入读循环
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := NewConn(ws)
	s.handleConn(r.Context(), c)
}

// handleConn 单条连接的完整生命周期
func (s *Server) handleConn(ctx context.Context, c *Conn) {
	s.registry.Add(c)
	s.logger.Info("Connection accepted",
		zap.String("conn_id", c.ID),
	)

	defer func() {
		c.Close()
		s.registry.Remove(c)
		s.logger.Info("Connection closed",
			zap.String("conn_id", c.ID),
			zap.String("role", c.Role().String()),
		)
	}()

	// 宽限定时器：到期仍未认证则强制关闭
	// 关闭底层连接会让 ReadMessage 返回错误，读循环随之退出
	graceTimer := time.AfterFunc(s.grace, func() {
		if c.Role() == RoleUnset {
			s.logger.Info("Closing connection: authentication grace period expired",
				zap.String("conn_id", c.ID),
			)
			c.Close()
		}
	})
	defer graceTimer.Stop()

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		switch c.Role() {
		case RoleUnset:
			if !s.gate.HandleFirstMessage(ctx, c, payload) {
				return
			}
			// 提升成功，取消宽限定时器（Stop 幂等）
			graceTimer.Stop()

		case RoleDevice:
			s.handleDeviceMessage(ctx, c, payload)

		case RoleViewer:
			s.handleViewerMessage(c, payload)
		}
	}
}

// handleDeviceMessage 已认证 Device 连接的消息
// 解析失败或类型不识别只记录日志，不关闭连接
func (s *Server) handleDeviceMessage(ctx context.Context, c *Conn, payload []byte) {
	var msg models.Envelope
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("Ignoring malformed device message",
			zap.String("conn_id", c.ID),
			zap.Error(err),
		)
		return
	}

	if msg.Type != models.TypeSensorData {
		s.logger.Warn("Ignoring unexpected device message type",
			zap.String("conn_id", c.ID),
			zap.String("type", msg.Type),
		)
		return
	}

	if msg.Temperature == nil || msg.Humidity == nil || msg.LightLevel == nil {
		s.logger.Warn("Ignoring sensor_data with missing fields",
			zap.String("conn_id", c.ID),
		)
		return
	}

	device := c.DeviceIdentity()
	if device == nil {
		return
	}

	s.ingest.Process(ctx, *device, models.SensorReading{
		Temperature: *msg.Temperature,
		Humidity:    *msg.Humidity,
		LightLevel:  *msg.LightLevel,
	})
}

// handleViewerMessage 已认证 Viewer 连接的消息
func (s *Server) handleViewerMessage(c *Conn, payload []byte) {
	var msg models.Envelope
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("Ignoring malformed viewer message",
			zap.String("conn_id", c.ID),
			zap.Error(err),
		)
		return
	}

	if msg.Type != models.TypeLEDControl {
		s.logger.Warn("Ignoring unexpected viewer message type",
			zap.String("conn_id", c.ID),
			zap.String("type", msg.Type),
		)
		return
	}

	if msg.PlantID == "" || msg.State == nil {
		s.logger.Warn("Ignoring led_control with missing fields",
			zap.String("conn_id", c.ID),
		)
		return
	}

	s.commands.ForwardLEDControl(msg.PlantID, *msg.State)
}
