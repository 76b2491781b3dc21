package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/QuestIndexer/internal/schema"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Page 分页参数
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultListLimit
	}
	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// AuditFilter 审计日志过滤条件（空字段不过滤）
type AuditFilter struct {
	Contract string
	Account  string
	Kind     string
	Page
}

// QueryRepository 读模型查询
// 事实类列表按账本位置排序，即插入顺序。
type QueryRepository struct {
	db *gorm.DB
}

func NewQueryRepository(db *gorm.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

func take[T any](ctx context.Context, db *gorm.DB, what string, query string, args ...any) (*T, error) {
	var rec T
	err := db.WithContext(ctx).Where(query, args...).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询%s失败: %w", what, err)
	}
	return &rec, nil
}

// GetUser 按地址查询用户
func (r *QueryRepository) GetUser(ctx context.Context, address string) (*schema.User, error) {
	return take[schema.User](ctx, r.db, "用户", "address = ?", address)
}

// GetQuest 按键查询任务
func (r *QueryRepository) GetQuest(ctx context.Context, id string) (*schema.Quest, error) {
	return take[schema.Quest](ctx, r.db, "任务", "id = ?", id)
}

// GetSubmission 按键查询提交
func (r *QueryRepository) GetSubmission(ctx context.Context, id string) (*schema.Submission, error) {
	return take[schema.Submission](ctx, r.db, "提交", "id = ?", id)
}

// GetStats 平台统计；尚未产生任何统计时返回零值
func (r *QueryRepository) GetStats(ctx context.Context) (*schema.PlatformStats, error) {
	return NewStatsTable(r.db).GetOrCreate(ctx)
}

// ListAchievements 用户成就，按获得顺序
func (r *QueryRepository) ListAchievements(ctx context.Context, user string) ([]schema.UserAchievement, error) {
	var out []schema.UserAchievement
	err := r.db.WithContext(ctx).
		Where(&schema.UserAchievement{User: user}).
		Order(schema.LedgerOrder).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户成就失败: %w", err)
	}
	return out, nil
}

// ListQuestSubmissions 任务下的提交，按创建时间
func (r *QueryRepository) ListQuestSubmissions(ctx context.Context, questID string, page Page) ([]schema.Submission, error) {
	page = page.normalize()
	var out []schema.Submission
	err := r.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Order("created_timestamp ASC, id ASC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询任务提交失败: %w", err)
	}
	return out, nil
}

// ListLikes 提交的点赞，按账本顺序
func (r *QueryRepository) ListLikes(ctx context.Context, submissionID string, page Page) ([]schema.SubmissionLike, error) {
	return listFacts[schema.SubmissionLike](ctx, r.db, "点赞", submissionID, page)
}

// ListComments 提交的评论，按账本顺序
func (r *QueryRepository) ListComments(ctx context.Context, submissionID string, page Page) ([]schema.SubmissionComment, error) {
	return listFacts[schema.SubmissionComment](ctx, r.db, "评论", submissionID, page)
}

// ListReviews 提交的评审，按账本顺序
func (r *QueryRepository) ListReviews(ctx context.Context, submissionID string, page Page) ([]schema.SubmissionReview, error) {
	return listFacts[schema.SubmissionReview](ctx, r.db, "评审", submissionID, page)
}

func listFacts[T any](ctx context.Context, db *gorm.DB, what, submissionID string, page Page) ([]T, error) {
	page = page.normalize()
	var out []T
	err := db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order(schema.LedgerOrder).
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询%s失败: %w", what, err)
	}
	return out, nil
}

// ListRoleEvents 角色审计日志，按账本顺序
func (r *QueryRepository) ListRoleEvents(ctx context.Context, f AuditFilter) ([]schema.RoleEvent, error) {
	page := f.Page.normalize()
	q := r.db.WithContext(ctx).Model(&schema.RoleEvent{})
	if f.Contract != "" {
		q = q.Where("contract = ?", f.Contract)
	}
	if f.Account != "" {
		q = q.Where("account = ?", f.Account)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}

	var out []schema.RoleEvent
	if err := q.Order(schema.LedgerOrder).Limit(page.Limit).Offset(page.Offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("查询角色审计失败: %w", err)
	}
	return out, nil
}

// ListPauseEvents 暂停审计日志，按账本顺序
func (r *QueryRepository) ListPauseEvents(ctx context.Context, f AuditFilter) ([]schema.PauseEvent, error) {
	page := f.Page.normalize()
	q := r.db.WithContext(ctx).Model(&schema.PauseEvent{})
	if f.Contract != "" {
		q = q.Where("contract = ?", f.Contract)
	}
	if f.Account != "" {
		q = q.Where("account = ?", f.Account)
	}

	var out []schema.PauseEvent
	if err := q.Order(schema.LedgerOrder).Limit(page.Limit).Offset(page.Offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("查询暂停审计失败: %w", err)
	}
	return out, nil
}

// ListEscrowEvents 任务的托管流水，按账本顺序
func (r *QueryRepository) ListEscrowEvents(ctx context.Context, questID string, page Page) ([]schema.EscrowEvent, error) {
	page = page.normalize()
	var out []schema.EscrowEvent
	err := r.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Order(schema.LedgerOrder).
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询托管流水失败: %w", err)
	}
	return out, nil
}

// ListDropped 被跳过的事件，按账本顺序
func (r *QueryRepository) ListDropped(ctx context.Context, page Page) ([]schema.DroppedEvent, error) {
	page = page.normalize()
	var out []schema.DroppedEvent
	err := r.db.WithContext(ctx).
		Order(schema.LedgerOrder).
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询丢弃事件失败: %w", err)
	}
	return out, nil
}
