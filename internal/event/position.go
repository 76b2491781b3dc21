package event

import (
	"cmp"
	"fmt"
	"slices"
)

// Position 账本位置 (block number, tx index, log index)，按字典序比较
type Position struct {
	BlockNumber uint64 `json:"block_number"`
	TxIndex     uint   `json:"tx_index"`
	LogIndex    uint   `json:"log_index"`
}

// Compare 返回 -1/0/1
func (p Position) Compare(o Position) int {
	if c := cmp.Compare(p.BlockNumber, o.BlockNumber); c != 0 {
		return c
	}
	if c := cmp.Compare(p.TxIndex, o.TxIndex); c != 0 {
		return c
	}
	return cmp.Compare(p.LogIndex, o.LogIndex)
}

// Less p 严格早于 o
func (p Position) Less(o Position) bool {
	return p.Compare(o) < 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d/%d/%d", p.BlockNumber, p.TxIndex, p.LogIndex)
}

// Sort 按账本顺序稳定排序
func Sort(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return a.Position().Compare(b.Position())
	})
}
