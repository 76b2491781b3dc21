package service

import (
	"context"

	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/eventbus"
	"github.com/yuqie6/QuestIndexer/internal/projection"
	"github.com/yuqie6/QuestIndexer/internal/schema"
)

// 同步链路依赖的最小接口集合（ISP）

type Projector interface {
	Apply(ctx context.Context, evt event.Event) (projection.Outcome, error)
	Checkpoint(ctx context.Context) (*schema.SyncCheckpoint, error)
}

type Publisher interface {
	Publish(evt eventbus.Event)
}

// ProjectionResetter 清空投影（从头重放前调用）
type ProjectionResetter interface {
	ResetProjection(ctx context.Context) error
}
