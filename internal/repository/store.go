package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/QuestIndexer/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntityStore 一次事件处理所需的全部实体表，绑定到同一个 gorm 句柄（通常是事务）
type EntityStore struct {
	Users        *Table[schema.User]
	Achievements *Table[schema.UserAchievement]
	Quests       *Table[schema.Quest]
	Submissions  *Table[schema.Submission]
	Likes        *Table[schema.SubmissionLike]
	Comments     *Table[schema.SubmissionComment]
	Reviews      *Table[schema.SubmissionReview]
	RoleEvents   *Table[schema.RoleEvent]
	PauseEvents  *Table[schema.PauseEvent]
	EscrowEvents *Table[schema.EscrowEvent]
	Dropped      *Table[schema.DroppedEvent]
	Stats        *StatsTable
}

// NewEntityStore 构建实体表集合
// 父实体（用户、任务、提交）注入零值工厂；事实类表只做插入，不提供默认值。
func NewEntityStore(db *gorm.DB) *EntityStore {
	return &EntityStore{
		Users:        NewTable(db, "user", "address", schema.NewUser),
		Achievements: NewTable[schema.UserAchievement](db, "user_achievement", "id", nil),
		Quests:       NewTable(db, "quest", "id", schema.NewQuest),
		Submissions:  NewTable(db, "submission", "id", schema.NewSubmission),
		Likes:        NewTable[schema.SubmissionLike](db, "submission_like", "id", nil),
		Comments:     NewTable[schema.SubmissionComment](db, "submission_comment", "id", nil),
		Reviews:      NewTable[schema.SubmissionReview](db, "submission_review", "id", nil),
		RoleEvents:   NewTable[schema.RoleEvent](db, "role_event", "id", nil),
		PauseEvents:  NewTable[schema.PauseEvent](db, "pause_event", "id", nil),
		EscrowEvents: NewTable[schema.EscrowEvent](db, "escrow_event", "id", nil),
		Dropped:      NewTable[schema.DroppedEvent](db, "dropped_event", "id", nil),
		Stats:        NewStatsTable(db),
	}
}

// StatsTable 平台统计单例
type StatsTable struct {
	db *gorm.DB
}

func NewStatsTable(db *gorm.DB) *StatsTable {
	return &StatsTable{db: db}
}

// Get 读取单例，尚未创建返回 (nil, nil)
func (s *StatsTable) Get(ctx context.Context) (*schema.PlatformStats, error) {
	var stats schema.PlatformStats
	err := s.db.WithContext(ctx).Where("id = ?", schema.PlatformStatsID).Take(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取平台统计失败: %w", err)
	}
	return &stats, nil
}

// GetOrCreate 读取单例，缺失时返回零值（首次 Save 时落库）
func (s *StatsTable) GetOrCreate(ctx context.Context) (*schema.PlatformStats, error) {
	stats, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return schema.NewPlatformStats(), nil
	}
	return stats, nil
}

// Save 整行写入单例
func (s *StatsTable) Save(ctx context.Context, stats *schema.PlatformStats) error {
	if stats == nil {
		return fmt.Errorf("写入平台统计失败: 记录为空")
	}
	stats.ID = schema.PlatformStatsID
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(stats).Error
	if err != nil {
		return fmt.Errorf("写入平台统计失败: %w", err)
	}
	return nil
}
