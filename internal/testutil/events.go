package testutil

import (
	"fmt"

	"github.com/yuqie6/QuestIndexer/internal/event"
)

// EventBuilder 测试用事件构造器
type EventBuilder struct {
	evt event.Event
}

// NewEvent 以 (block, tx, log) 位置构造事件；交易哈希由位置推导，保证唯一
func NewEvent(contract, kind string, block uint64, txIndex, logIndex uint) *EventBuilder {
	return &EventBuilder{evt: event.Event{
		Contract:       contract,
		Kind:           kind,
		BlockNumber:    block,
		BlockTimestamp: 1_700_000_000 + int64(block)*12,
		TxHash:         TxHash(block, txIndex),
		TxIndex:        txIndex,
		LogIndex:       logIndex,
	}}
}

// TxHash 由区块号与交易序号推导的确定性哈希
func TxHash(block uint64, txIndex uint) string {
	return fmt.Sprintf("0x%048x%016x", block, uint64(txIndex))
}

// Addr 由短编号推导的确定性地址
func Addr(n uint64) string {
	return fmt.Sprintf("0x%040x", n)
}

// With 追加参数
func (b *EventBuilder) With(name, typ string, value any) *EventBuilder {
	b.evt.Params = append(b.evt.Params, event.Param{Name: name, Type: typ, Value: event.Value(fmt.Sprint(value))})
	return b
}

// At 覆盖区块时间戳
func (b *EventBuilder) At(ts int64) *EventBuilder {
	b.evt.BlockTimestamp = ts
	return b
}

// Build 返回事件副本
func (b *EventBuilder) Build() event.Event {
	out := b.evt
	out.Params = append([]event.Param(nil), b.evt.Params...)
	return out
}
