package schema

// SyncCheckpoint 投影进度检查点（最后一个已落库事件的位置）
// 与实体写入在同一事务内推进；下游读模型不暴露该表。
type SyncCheckpoint struct {
	Name        string `gorm:"primaryKey;size:50"`
	BlockNumber uint64 `gorm:"not null"`
	TxIndex     uint   `gorm:"not null"`
	LogIndex    uint   `gorm:"not null"`
	TxHash      string `gorm:"size:66"`
	Applied     int64  `gorm:"not null"`
	Dropped     int64  `gorm:"not null"`
}

func (SyncCheckpoint) TableName() string {
	return "sync_checkpoints"
}

// DroppedEvent 被跳过的事件（父实体缺失、载荷无法识别、未注册的事件类型）
// 不重试：这些情况不是暂时性的。
type DroppedEvent struct {
	ID        string `gorm:"primaryKey;size:80" json:"id"`
	Contract  string `gorm:"size:64;index;not null" json:"contract"`
	Kind      string `gorm:"size:64;index;not null" json:"kind"`
	Reason    string `gorm:"size:500;not null" json:"reason"`
	LedgerRef `gorm:"embedded"`
}

func (DroppedEvent) TableName() string {
	return "dropped_events"
}
