package schema

import "github.com/shopspring/decimal"

// User 用户画像投影
// reputation 只接受最近一次 ReputationUpdated 的值，不在本地累加。
type User struct {
	Address          string          `gorm:"primaryKey;size:42" json:"address"`
	Username         string          `gorm:"size:100;index" json:"username"`
	HasProfile       bool            `gorm:"not null" json:"has_profile"`
	Reputation       decimal.Decimal `gorm:"type:text;not null" json:"reputation"` // uint256
	Skills           JSONArray       `gorm:"type:text" json:"skills"`
	QuestsCreated    int64           `gorm:"not null" json:"quests_created"`
	QuestsCompleted  int64           `gorm:"not null" json:"quests_completed"`
	SubmissionCount  int64           `gorm:"not null" json:"submission_count"`
	RewardsEarned    decimal.Decimal `gorm:"type:text;not null" json:"rewards_earned"`
	ProfileCreatedAt int64           `gorm:"not null" json:"profile_created_at"` // 区块时间戳，0 表示尚未创建资料
	ProfileUpdatedAt int64           `gorm:"not null" json:"profile_updated_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// NewUser 零值用户（get-or-create 的默认值）
func NewUser(address string) *User {
	return &User{
		Address:       address,
		Reputation:    decimal.Zero,
		Skills:        JSONArray{},
		RewardsEarned: decimal.Zero,
	}
}

// UserAchievement 用户成就，(user, achievement) 唯一
type UserAchievement struct {
	ID            string `gorm:"primaryKey;size:130" json:"id"`
	User          string `gorm:"size:42;index;not null" json:"user"`
	AchievementID string `gorm:"size:78;not null" json:"achievement_id"`
	LedgerRef     `gorm:"embedded"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
