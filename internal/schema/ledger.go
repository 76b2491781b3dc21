package schema

// LedgerRef 事件在链上的位置与执行上下文
// 事实类记录都内嵌它，列表查询按 (block_number, tx_index, log_index) 排序即为插入顺序。
type LedgerRef struct {
	BlockNumber uint64 `gorm:"index;not null" json:"block_number"`
	TxIndex     uint   `gorm:"not null" json:"tx_index"`
	LogIndex    uint   `gorm:"not null" json:"log_index"`
	TxHash      string `gorm:"size:66;not null" json:"tx_hash"`
	Timestamp   int64  `gorm:"not null" json:"timestamp"` // 区块时间戳（秒）
}

// LedgerOrder 事实类记录的稳定排序
const LedgerOrder = "block_number ASC, tx_index ASC, log_index ASC"
