package projection

import (
	"context"

	"github.com/yuqie6/QuestIndexer/internal/repository"
	"github.com/yuqie6/QuestIndexer/internal/schema"
)

// 处理器依赖的最小存储接口（ISP）

// Table 单个实体类型的键值表
type Table[T any] interface {
	Get(ctx context.Context, key string) (*T, error)
	Put(ctx context.Context, rec *T) error
	GetOrCreate(ctx context.Context, key string) (*T, bool, error)
	Insert(ctx context.Context, rec *T) (bool, error)
}

// StatsStore 平台统计单例
type StatsStore interface {
	GetOrCreate(ctx context.Context) (*schema.PlatformStats, error)
	Save(ctx context.Context, stats *schema.PlatformStats) error
}

// Store 注入给处理器的实体表集合，生命周期为单个事件
type Store struct {
	Users        Table[schema.User]
	Achievements Table[schema.UserAchievement]
	Quests       Table[schema.Quest]
	Submissions  Table[schema.Submission]
	Likes        Table[schema.SubmissionLike]
	Comments     Table[schema.SubmissionComment]
	Reviews      Table[schema.SubmissionReview]
	RoleEvents   Table[schema.RoleEvent]
	PauseEvents  Table[schema.PauseEvent]
	EscrowEvents Table[schema.EscrowEvent]
	Stats        StatsStore
}

// NewStore 由仓储层实体表构建
func NewStore(es *repository.EntityStore) Store {
	return Store{
		Users:        es.Users,
		Achievements: es.Achievements,
		Quests:       es.Quests,
		Submissions:  es.Submissions,
		Likes:        es.Likes,
		Comments:     es.Comments,
		Reviews:      es.Reviews,
		RoleEvents:   es.RoleEvents,
		PauseEvents:  es.PauseEvents,
		EscrowEvents: es.EscrowEvents,
		Stats:        es.Stats,
	}
}

func (s Store) updateStats(ctx context.Context, mutate func(*schema.PlatformStats)) error {
	stats, err := s.Stats.GetOrCreate(ctx)
	if err != nil {
		return err
	}
	mutate(stats)
	return s.Stats.Save(ctx, stats)
}
