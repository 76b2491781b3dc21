// Package source 提供按账本顺序分页读取的事件源。
package source

import (
	"context"
	"sync"

	"github.com/yuqie6/QuestIndexer/internal/event"
)

// Source 事件源
// Fetch 返回位置严格晚于 after 的事件（after 为 nil 表示从头开始），按账本顺序，至多 limit 条。
type Source interface {
	Fetch(ctx context.Context, after *event.Position, limit int) ([]event.Event, error)
}

// page 从已排序的事件中截取 after 之后的一页
func page(sorted []event.Event, after *event.Position, limit int) []event.Event {
	start := 0
	if after != nil {
		for start < len(sorted) && !after.Less(sorted[start].Position()) {
			start++
		}
	}
	end := len(sorted)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	if start >= end {
		return nil
	}
	out := make([]event.Event, end-start)
	copy(out, sorted[start:end])
	return out
}

// Memory 内存事件源
type Memory struct {
	mu     sync.RWMutex
	events []event.Event
}

// NewMemory 创建内存事件源，事件按账本顺序排序
func NewMemory(events ...event.Event) *Memory {
	m := &Memory{}
	m.Append(events...)
	return m
}

// Append 追加事件
func (m *Memory) Append(events ...event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	event.Sort(m.events)
}

func (m *Memory) Fetch(ctx context.Context, after *event.Position, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return page(m.events, after, limit), nil
}
