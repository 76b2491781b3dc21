package schema

import "github.com/shopspring/decimal"

// EscrowEventKind 托管事件类型
type EscrowEventKind string

const (
	EscrowDeposited   EscrowEventKind = "DEPOSITED"
	EscrowDistributed EscrowEventKind = "DISTRIBUTED"
	EscrowRefunded    EscrowEventKind = "REFUNDED"
)

// EscrowEvent 赏金托管流水，(tx hash, log index) 为键
// 聚合计数只在流水首次写入时累加，重放不会重复记账。
type EscrowEvent struct {
	ID        string          `gorm:"primaryKey;size:80" json:"id"`
	Kind      EscrowEventKind `gorm:"size:20;index;not null" json:"kind"`
	QuestID   string          `gorm:"size:66;index;not null" json:"quest_id"`
	Account   string          `gorm:"size:42;index;not null" json:"account"`
	Amount    decimal.Decimal `gorm:"type:text;not null" json:"amount"`
	LedgerRef `gorm:"embedded"`
}

func (EscrowEvent) TableName() string {
	return "escrow_events"
}
