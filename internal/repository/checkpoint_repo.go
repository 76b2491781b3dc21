package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/QuestIndexer/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCheckpoint 默认投影的检查点名
const DefaultCheckpoint = "projection"

// CheckpointRepository 检查点仓储
type CheckpointRepository struct {
	db *gorm.DB
}

func NewCheckpointRepository(db *gorm.DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

// Load 读取检查点，从未处理过任何事件时返回 (nil, nil)
func (r *CheckpointRepository) Load(ctx context.Context, name string) (*schema.SyncCheckpoint, error) {
	var cp schema.SyncCheckpoint
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&cp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取检查点失败: %w", err)
	}
	return &cp, nil
}

// Save 写入检查点
func (r *CheckpointRepository) Save(ctx context.Context, cp *schema.SyncCheckpoint) error {
	if cp == nil || cp.Name == "" {
		return fmt.Errorf("检查点名称不能为空")
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(cp).Error
	if err != nil {
		return fmt.Errorf("写入检查点失败: %w", err)
	}
	return nil
}
