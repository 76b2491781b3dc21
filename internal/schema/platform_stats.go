package schema

import "github.com/shopspring/decimal"

// PlatformStatsID 单例行 ID
const PlatformStatsID = 1

// PlatformStats 平台统计，表内仅维护单行（ID=1）
// 计数只增不减；手续费比例与接收地址由事件直接覆盖；TVL 是托管余额。
type PlatformStats struct {
	ID                      int             `gorm:"primaryKey" json:"-"`
	TotalUsers              int64           `gorm:"not null" json:"total_users"`
	TotalQuests             int64           `gorm:"not null" json:"total_quests"`
	TotalSubmissions        int64           `gorm:"not null" json:"total_submissions"`
	TotalRewardsDistributed decimal.Decimal `gorm:"type:text;not null" json:"total_rewards_distributed"`
	TotalValueLocked        decimal.Decimal `gorm:"type:text;not null" json:"total_value_locked"`
	FeePercentage           int64           `gorm:"not null" json:"fee_percentage"`
	FeeRecipient            string          `gorm:"size:42" json:"fee_recipient"`
}

func (PlatformStats) TableName() string {
	return "platform_stats"
}

// NewPlatformStats 零值统计
func NewPlatformStats() *PlatformStats {
	return &PlatformStats{
		ID:                      PlatformStatsID,
		TotalRewardsDistributed: decimal.Zero,
		TotalValueLocked:        decimal.Zero,
	}
}
