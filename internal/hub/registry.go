package hub

import (
	"sync"
)

// Registry 活跃连接注册表
// 连接从 accept 到 close 的生命周期内归注册表管理；
// add/remove 与广播遍历并发发生，遍历基于一致性快照
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRegistry 创建连接注册表
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Conn),
	}
}

// Add 登记新连接
func (r *Registry) Add(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
}

// Remove 注销连接
func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c.ID)
}

// Len 当前登记的连接数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ForEachOpen 遍历所有仍然打开的连接
// 先在读锁内取快照，再在锁外回调，避免回调中的网络写阻塞注册表；
// 已关闭但尚未移除的连接被跳过
func (r *Registry) ForEachOpen(fn func(*Conn)) {
	r.mu.RLock()
	snapshot := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()

	for _, c := range snapshot {
		if c.IsOpen() {
			fn(c)
		}
	}
}

// FindDeviceByPlant 查找负责指定植物的打开的 Device 连接
// 没有对应设备在线时返回 nil
func (r *Registry) FindDeviceByPlant(plantID string) *Conn {
	var found *Conn
	r.ForEachOpen(func(c *Conn) {
		if found != nil {
			return
		}
		if d := c.DeviceIdentity(); d != nil && d.PlantID == plantID {
			found = c
		}
	})
	return found
}
