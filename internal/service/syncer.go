package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/eventbus"
	"github.com/yuqie6/QuestIndexer/internal/projection"
	"github.com/yuqie6/QuestIndexer/internal/repository/dbretry"
	"github.com/yuqie6/QuestIndexer/internal/schema"
	"github.com/yuqie6/QuestIndexer/internal/source"
)

// ErrHalted 遇到无法处理的事件后同步停止，需要人工介入（修复后重放或重启）
var ErrHalted = errors.New("同步已停止")

// SyncerConfig 同步配置
type SyncerConfig struct {
	PageSize int
	Retry    dbretry.Policy
}

// DefaultSyncerConfig 默认配置
func DefaultSyncerConfig() *SyncerConfig {
	return &SyncerConfig{
		PageSize: 500,
		Retry:    dbretry.DefaultPolicy(),
	}
}

// SyncResult 单次同步结果
type SyncResult struct {
	RunID      string `json:"run_id"`
	Applied    int    `json:"applied"`
	Dropped    int    `json:"dropped"`
	Duplicates int    `json:"duplicates"`
}

// SyncStatus 同步器状态（不含检查点位置）
type SyncStatus struct {
	Halted     bool   `json:"halted"`
	HaltReason string `json:"halt_reason,omitempty"`
	Runs       int64  `json:"runs"`
	Applied    int64  `json:"applied"`
	Dropped    int64  `json:"dropped"`
	Duplicates int64  `json:"duplicates"`
	LastRunID  string `json:"last_run_id,omitempty"`
	LastRunAt  int64  `json:"last_run_at,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// Syncer 事件分发器：从检查点之后按账本顺序逐个投影
// 同一时刻只有一个同步在执行，处理器之间不会并发。
type Syncer struct {
	src  source.Source
	proj Projector
	bus  Publisher
	cfg  *SyncerConfig

	runMu sync.Mutex

	mu     sync.RWMutex
	status SyncStatus
}

// NewSyncer 创建同步器
func NewSyncer(src source.Source, proj Projector, bus Publisher, cfg *SyncerConfig) *Syncer {
	if cfg == nil {
		cfg = DefaultSyncerConfig()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultSyncerConfig().PageSize
	}
	return &Syncer{src: src, proj: proj, bus: bus, cfg: cfg}
}

// Status 当前状态快照
func (s *Syncer) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SyncOnce 从检查点同步到事件源末尾
func (s *Syncer) SyncOnce(ctx context.Context) (SyncResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.syncLocked(ctx)
}

// Replay 清空投影后从头同步，同时解除停止状态
func (s *Syncer) Replay(ctx context.Context, resetter ProjectionResetter) (SyncResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if err := dbretry.NoResult(ctx, s.cfg.Retry, resetter.ResetProjection); err != nil {
		return SyncResult{}, fmt.Errorf("清空投影失败: %w", err)
	}
	s.mu.Lock()
	s.status.Halted = false
	s.status.HaltReason = ""
	s.mu.Unlock()

	slog.Info("投影已清空，开始重放")
	s.publish(eventbus.TypeReplayStart, nil)
	return s.syncLocked(ctx)
}

func (s *Syncer) syncLocked(ctx context.Context) (SyncResult, error) {
	res := SyncResult{RunID: uuid.NewString()}

	if st := s.Status(); st.Halted {
		return res, fmt.Errorf("%w: %s", ErrHalted, st.HaltReason)
	}

	err := s.run(ctx, &res)
	s.finish(res, err)
	return res, err
}

func (s *Syncer) run(ctx context.Context, res *SyncResult) error {
	cp, err := dbretry.Operation(ctx, s.cfg.Retry, s.proj.Checkpoint)
	if err != nil {
		return fmt.Errorf("读取检查点失败: %w", err)
	}
	var after *event.Position
	if cp != nil {
		p := checkpointPosition(cp)
		after = &p
	}

	for {
		events, err := s.src.Fetch(ctx, after, s.cfg.PageSize)
		if err != nil {
			return fmt.Errorf("读取事件源失败: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		for _, evt := range events {
			if err := ctx.Err(); err != nil {
				return err
			}
			// 重复或乱序投递：不早于检查点的事件直接略过
			if after != nil && !after.Less(evt.Position()) {
				res.Duplicates++
				continue
			}

			out, err := dbretry.Operation(ctx, s.cfg.Retry, func(ctx context.Context) (projection.Outcome, error) {
				return s.proj.Apply(ctx, evt)
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return s.halt(evt, err)
			}
			s.record(evt, out, res)

			p := evt.Position()
			after = &p
		}

		if len(events) < s.cfg.PageSize {
			return nil
		}
	}
}

func (s *Syncer) record(evt event.Event, out projection.Outcome, res *SyncResult) {
	data := map[string]any{
		"contract": evt.Contract,
		"kind":     evt.Kind,
		"block":    evt.BlockNumber,
		"tx_hash":  evt.TxHash,
	}
	switch {
	case out.Duplicate:
		res.Duplicates++
	case out.Dropped:
		res.Dropped++
		data["reason"] = out.Reason
		s.publish(eventbus.TypeEventDropped, data)
	case out.Applied:
		res.Applied++
		s.publish(eventbus.TypeEventApplied, data)
	}
}

// halt 存储故障：不推进检查点，拒绝后续同步
func (s *Syncer) halt(evt event.Event, cause error) error {
	reason := fmt.Sprintf("%s: %v", evt, cause)

	s.mu.Lock()
	s.status.Halted = true
	s.status.HaltReason = reason
	s.mu.Unlock()

	slog.Error("同步停止", "contract", evt.Contract, "kind", evt.Kind, "block", evt.BlockNumber, "log_index", evt.LogIndex, "error", cause)
	s.publish(eventbus.TypeSyncHalted, map[string]any{"reason": reason})
	return fmt.Errorf("%w: %w", ErrHalted, cause)
}

func (s *Syncer) finish(res SyncResult, err error) {
	s.mu.Lock()
	s.status.Runs++
	s.status.Applied += int64(res.Applied)
	s.status.Dropped += int64(res.Dropped)
	s.status.Duplicates += int64(res.Duplicates)
	s.status.LastRunID = res.RunID
	s.status.LastRunAt = time.Now().Unix()
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if res.Applied+res.Dropped > 0 {
		slog.Info("同步完成", "run_id", res.RunID, "applied", res.Applied, "dropped", res.Dropped, "duplicates", res.Duplicates)
		s.publish(eventbus.TypeSyncFinished, map[string]any{
			"run_id":  res.RunID,
			"applied": res.Applied,
			"dropped": res.Dropped,
		})
	}
}

func (s *Syncer) publish(typ string, data map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}

func checkpointPosition(cp *schema.SyncCheckpoint) event.Position {
	return event.Position{BlockNumber: cp.BlockNumber, TxIndex: cp.TxIndex, LogIndex: cp.LogIndex}
}
