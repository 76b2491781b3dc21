// Package projection 把有序的链上事件投影为可查询的读模型。
package projection

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/repository"
	"github.com/yuqie6/QuestIndexer/internal/schema"
	"gorm.io/gorm"
)

const maxReasonLen = 500

// Outcome 单个事件的处理结果
type Outcome struct {
	Applied   bool   // 处理器成功执行
	Dropped   bool   // 被跳过并记录为丢弃
	Duplicate bool   // 位置不晚于检查点，未做任何事
	Reason    string // Dropped 时的原因
}

// Projector 单写者投影器
// 每个事件一个事务：处理器在保存点内执行，检查点与实体写入一起提交。
type Projector struct {
	db         *gorm.DB
	registry   *Registry
	checkpoint string
}

// NewProjector 创建投影器；registry 为空时使用 DefaultRegistry
func NewProjector(db *gorm.DB, registry *Registry, checkpoint string) *Projector {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if checkpoint == "" {
		checkpoint = repository.DefaultCheckpoint
	}
	return &Projector{db: db, registry: registry, checkpoint: checkpoint}
}

// Checkpoint 当前检查点位置，从未处理过事件时返回 nil
func (p *Projector) Checkpoint(ctx context.Context) (*schema.SyncCheckpoint, error) {
	return repository.NewCheckpointRepository(p.db).Load(ctx, p.checkpoint)
}

// Apply 处理一个事件
// 返回错误时事务已整体回滚、检查点未推进，调用方应停止处理后续事件。
func (p *Projector) Apply(ctx context.Context, evt event.Event) (Outcome, error) {
	var out Outcome
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checkpoints := repository.NewCheckpointRepository(tx)
		cp, err := checkpoints.Load(ctx, p.checkpoint)
		if err != nil {
			return err
		}
		if cp == nil {
			cp = &schema.SyncCheckpoint{Name: p.checkpoint}
		} else if !checkpointPosition(cp).Less(evt.Position()) {
			out.Duplicate = true
			return nil
		}

		skip, err := p.run(ctx, tx, evt)
		if err != nil {
			return err
		}
		if skip != nil {
			if err := p.recordDropped(ctx, tx, evt, skip.Reason); err != nil {
				return err
			}
			out.Dropped = true
			out.Reason = skip.Reason
			cp.Dropped++
		} else {
			out.Applied = true
			cp.Applied++
		}

		pos := evt.Position()
		cp.BlockNumber = pos.BlockNumber
		cp.TxIndex = pos.TxIndex
		cp.LogIndex = pos.LogIndex
		cp.TxHash = evt.TxHash
		return checkpoints.Save(ctx, cp)
	})
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case out.Dropped:
		slog.Warn("事件已跳过", "contract", evt.Contract, "kind", evt.Kind, "block", evt.BlockNumber, "log_index", evt.LogIndex, "reason", out.Reason)
	case out.Applied:
		slog.Debug("事件已投影", "contract", evt.Contract, "kind", evt.Kind, "block", evt.BlockNumber, "log_index", evt.LogIndex)
	}
	return out, nil
}

// run 在保存点内执行处理器；可跳过的错误回滚到保存点并以 SkipError 返回
func (p *Projector) run(ctx context.Context, tx *gorm.DB, evt event.Event) (*SkipError, error) {
	handler, ok := p.registry.Lookup(evt.Contract, evt.Kind)
	if !ok {
		return &SkipError{Reason: fmt.Sprintf("未注册的事件类型 %s.%s", evt.Contract, evt.Kind)}, nil
	}

	err := tx.Transaction(func(sp *gorm.DB) error {
		return handler(ctx, NewStore(repository.NewEntityStore(sp)), evt)
	})
	if err == nil {
		return nil, nil
	}
	if skip, ok := AsSkip(err); ok {
		return skip, nil
	}
	return nil, fmt.Errorf("处理事件 %s 失败: %w", evt, err)
}

func (p *Projector) recordDropped(ctx context.Context, tx *gorm.DB, evt event.Event, reason string) error {
	_, err := repository.NewEntityStore(tx).Dropped.Insert(ctx, &schema.DroppedEvent{
		ID:        evt.ID(),
		Contract:  evt.Contract,
		Kind:      evt.Kind,
		Reason:    truncate(reason, maxReasonLen),
		LedgerRef: evt.Ledger(),
	})
	return err
}

func checkpointPosition(cp *schema.SyncCheckpoint) event.Position {
	return event.Position{BlockNumber: cp.BlockNumber, TxIndex: cp.TxIndex, LogIndex: cp.LogIndex}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
