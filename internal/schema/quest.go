package schema

import "github.com/shopspring/decimal"

// QuestStatus 任务状态
type QuestStatus string

const (
	QuestOpen      QuestStatus = "OPEN"
	QuestInReview  QuestStatus = "IN_REVIEW"
	QuestCompleted QuestStatus = "COMPLETED"
	QuestCancelled QuestStatus = "CANCELLED"
)

// QuestStatusFromCode 合约状态码 -> 枚举；未知状态码返回 false
func QuestStatusFromCode(code uint64) (QuestStatus, bool) {
	switch code {
	case 0:
		return QuestOpen, true
	case 1:
		return QuestInReview, true
	case 2:
		return QuestCompleted, true
	case 3:
		return QuestCancelled, true
	}
	return "", false
}

// Quest 任务投影
// 任务本身归 QuestManager 合约管理，这里只保留提交与获胜者需要的字段。
type Quest struct {
	ID               string          `gorm:"primaryKey;size:66" json:"id"`
	Number           string          `gorm:"size:78;not null" json:"number"`
	Creator          string          `gorm:"size:42;index;not null" json:"creator"`
	RewardAmount     decimal.Decimal `gorm:"type:text;not null" json:"reward_amount"`
	Deadline         int64           `gorm:"not null" json:"deadline"`
	MaxWinners       int64           `gorm:"not null" json:"max_winners"`
	Status           QuestStatus     `gorm:"size:20;index;not null" json:"status"`
	SubmissionCount  int64           `gorm:"not null" json:"submission_count"`
	Winners          JSONArray       `gorm:"type:text" json:"winners"` // 追加顺序，不重复
	EscrowBalance    decimal.Decimal `gorm:"type:text;not null" json:"escrow_balance"`
	CreatedTimestamp int64           `gorm:"not null" json:"created_timestamp"`
	UpdatedTimestamp int64           `gorm:"not null" json:"updated_timestamp"`
}

func (Quest) TableName() string {
	return "quests"
}

// NewQuest 零值任务
func NewQuest(id string) *Quest {
	return &Quest{
		ID:            id,
		Status:        QuestOpen,
		Winners:       JSONArray{},
		RewardAmount:  decimal.Zero,
		EscrowBalance: decimal.Zero,
	}
}
