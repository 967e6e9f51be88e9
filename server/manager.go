package server

import (
	"context"
	"encoding/json"
	"sync"

	"kanilife/game"
)

// stateMessage 推送给观察端的快照消息
type stateMessage struct {
	Type  string        `json:"type"`
	State game.Snapshot `json:"state"`
}

func encodeState(snap game.Snapshot) ([]byte, error) {
	return json.Marshal(stateMessage{Type: "state", State: snap})
}

// ViewerManager 管理所有观察端连接，并把处理器产生的快照扇出给它们
type ViewerManager struct {
	mu      sync.RWMutex
	viewers map[*ClientConn]struct{}

	latest func() game.Snapshot
}

// NewViewerManager latest 用于新连接或客户端主动拉取时获取当前快照
func NewViewerManager(latest func() game.Snapshot) *ViewerManager {
	return &ViewerManager{
		viewers: make(map[*ClientConn]struct{}),
		latest:  latest,
	}
}

// Add 注册观察端，并立即推送一次当前快照
func (m *ViewerManager) Add(c *ClientConn) {
	m.mu.Lock()
	m.viewers[c] = struct{}{}
	m.mu.Unlock()
	m.SendLatest(c)
}

// Remove 注销并关闭连接
func (m *ViewerManager) Remove(c *ClientConn) {
	m.mu.Lock()
	_, ok := m.viewers[c]
	delete(m.viewers, c)
	m.mu.Unlock()
	if ok {
		c.Close()
	}
}

// Count 当前观察端数量
func (m *ViewerManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.viewers)
}

// SendLatest 只给一个观察端发送当前快照
func (m *ViewerManager) SendLatest(c *ClientConn) {
	b, err := encodeState(m.latest())
	if err != nil {
		Log.Errorf("encode state: %v", err)
		return
	}
	c.Enqueue(b)
}

// Broadcast 编码一次，发给所有观察端（各自队列满则丢弃）
func (m *ViewerManager) Broadcast(snap game.Snapshot) {
	b, err := encodeState(snap)
	if err != nil {
		Log.Errorf("encode state: %v", err)
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for c := range m.viewers {
		c.Enqueue(b)
	}
}

// Run 消费快照通道直到 ctx 结束
func (m *ViewerManager) Run(ctx context.Context, updates <-chan game.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case snap := <-updates:
			m.Broadcast(snap)
		}
	}
}

func (m *ViewerManager) closeAll() {
	m.mu.Lock()
	viewers := m.viewers
	m.viewers = make(map[*ClientConn]struct{})
	m.mu.Unlock()
	for c := range viewers {
		c.Close()
	}
}
