package evaluator

import (
	"sync"
	"time"
)

// Throttle 报警节流器
// 按 issue key 记录最近一次发送时间，窗口内的重复报警被抑制；
// 状态只在内存中维护，进程重启后丢失（窗口很短，可接受）
type Throttle struct {
	mu       sync.Mutex
	window   time.Duration
	lastSent map[string]time.Time

	// 便于测试注入的时钟
	now func() time.Time
}

// NewThrottle 创建节流器
func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{
		window:   window,
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow 判断该 issue key 当前是否允许发送
// 允许时原子地更新时间戳：同一 key 的并发竞争只有一个赢家，
// 输家观察到赢家写入的时间戳并被抑制
func (t *Throttle) Allow(issueKey string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.lastSent[issueKey]; ok && now.Sub(last) < t.window {
		return false
	}
	t.lastSent[issueKey] = now
	return true
}
