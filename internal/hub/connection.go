package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// Role 连接角色（Unset 只能提升一次，提升后不可变更）
type Role int

const (
	RoleUnset Role = iota
	RoleDevice
	RoleViewer
)

func (r Role) String() string {
	switch r {
	case RoleDevice:
		return "device"
	case RoleViewer:
		return "viewer"
	default:
		return "unset"
	}
}

var (
	// ErrConnClosed 连接已关闭
	ErrConnClosed = errors.New("connection closed")
	// ErrAlreadyPromoted 连接已经绑定过角色
	ErrAlreadyPromoted = errors.New("connection already promoted")
)

// wireConn 底层 WebSocket 连接的最小接口（便于测试替换）
// *websocket.Conn 满足该接口
type wireConn interface {
	WriteJSON(v interface{}) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Conn 注册表持有的一条活跃连接
// role/identity 只在 promote 时写入一次；写操作通过互斥锁串行化
type Conn struct {
	ID string

	ws wireConn

	mu              sync.Mutex
	role            Role
	device          *models.DeviceIdentity
	viewer          *models.ViewerIdentity
	authenticatedAt time.Time
	closed          bool
}

// NewConn 创建连接包装
func NewConn(ws wireConn) *Conn {
	return &Conn{
		ID: uuid.New().String(),
		ws: ws,
	}
}

// Role 获取当前角色
func (c *Conn) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// DeviceIdentity 获取设备身份（未认证为 Device 时返回 nil）
func (c *Conn) DeviceIdentity() *models.DeviceIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// ViewerIdentity 获取观看者身份（未认证为 Viewer 时返回 nil）
func (c *Conn) ViewerIdentity() *models.ViewerIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewer
}

// IsOpen 连接是否仍然打开
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// PromoteDevice 提升为 Device 角色
// 先检查关闭状态：宽限时间超时关闭的连接不允许再被提升
func (c *Conn) PromoteDevice(identity *models.DeviceIdentity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.role != RoleUnset {
		return ErrAlreadyPromoted
	}
	c.role = RoleDevice
	c.device = identity
	c.authenticatedAt = time.Now()
	return nil
}

// PromoteViewer 提升为 Viewer 角色
func (c *Conn) PromoteViewer(identity *models.ViewerIdentity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.role != RoleUnset {
		return ErrAlreadyPromoted
	}
	c.role = RoleViewer
	c.viewer = identity
	c.authenticatedAt = time.Now()
	return nil
}

// SendJSON 发送一条 JSON 消息
// gorilla/websocket 不允许并发写，写操作在连接锁内串行化
func (c *Conn) SendJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	return c.ws.WriteJSON(v)
}

// Close 关闭连接（幂等）
// 关闭底层连接会让阻塞中的 ReadMessage 返回错误，从而结束读循环
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	_ = c.ws.Close()
}
