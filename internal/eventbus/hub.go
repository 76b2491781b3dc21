// Package eventbus 进程内通知总线，供 SSE 推送同步进度。
package eventbus

import (
	"context"
	"sync"
	"time"
)

// 事件类型
const (
	TypeEventApplied = "event.applied"
	TypeEventDropped = "event.dropped"
	TypeSyncFinished = "sync.finished"
	TypeSyncHalted   = "sync.halted"
	TypeReplayStart  = "replay.started"
)

// Event 一条同步通知；Data 携带合约、事件类型、区块等字段，由 SSE 原样下发
type Event struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Hub 投影进度的进程内广播：Syncer 在每个事件投影、丢弃以及同步结束或停止时发布，
// HTTP 层的 /api/stream 为每个 SSE 连接订阅一个通道。通知不持久化，读模型本身才是权威状态。
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewHub 创建空的广播中心
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Publish 非阻塞地投递给所有订阅者；投影在事务提交后才发布，订阅者缓冲满时丢弃该条通知
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			// 慢消费者直接丢弃，不阻塞投影
		}
	}
}

// Subscribe 订阅直到 ctx 结束，结束后通道关闭
func (h *Hub) Subscribe(ctx context.Context, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Subscribers 当前订阅者数量
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
