// Package event 定义投影引擎消费的链上事件信封。
package event

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/yuqie6/QuestIndexer/internal/ids"
	"github.com/yuqie6/QuestIndexer/internal/schema"
)

var (
	// ErrBadPayload 载荷无法识别：参数缺失、类型不符或取值越界
	ErrBadPayload = errors.New("事件载荷无法识别")
	// ErrMissingParam 缺少参数（同时满足 errors.Is(err, ErrBadPayload)）
	ErrMissingParam = errors.New("缺少参数")
)

// Value 参数值，统一以文本保存，避免 uint256 经 float64 丢精度
type Value string

// UnmarshalJSON 字符串取其内容，数字/布尔保留原始文本
func (v *Value) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	*v = Value(strings.TrimSpace(string(b)))
	return nil
}

// Param 有序参数中的一项
type Param struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value Value  `json:"value"`
}

// Event 一条已最终确定的链上事件
type Event struct {
	Contract       string  `json:"contract"`
	Emitter        string  `json:"address,omitempty"`
	Kind           string  `json:"kind"`
	Params         []Param `json:"params"`
	BlockNumber    uint64  `json:"blockNumber"`
	BlockTimestamp int64   `json:"blockTimestamp"`
	TxHash         string  `json:"txHash"`
	TxIndex        uint    `json:"txIndex"`
	LogIndex       uint    `json:"logIndex"`
}

// Normalize 校验信封字段并规范化交易哈希
func (e *Event) Normalize() error {
	e.Contract = strings.TrimSpace(e.Contract)
	e.Kind = strings.TrimSpace(e.Kind)
	if e.Contract == "" || e.Kind == "" {
		return fmt.Errorf("事件缺少 contract/kind: block=%d log=%d", e.BlockNumber, e.LogIndex)
	}
	h, err := ids.Hash(e.TxHash)
	if err != nil {
		return fmt.Errorf("事件交易哈希无效: %w", err)
	}
	e.TxHash = h
	return nil
}

// Position 账本位置
func (e Event) Position() Position {
	return Position{BlockNumber: e.BlockNumber, TxIndex: e.TxIndex, LogIndex: e.LogIndex}
}

// ID 事件全局唯一键（交易哈希 + 日志序号）
func (e Event) ID() string {
	return ids.FactKey(e.TxHash, e.LogIndex)
}

// Ledger 转为持久化用的账本引用
func (e Event) Ledger() schema.LedgerRef {
	return schema.LedgerRef{
		BlockNumber: e.BlockNumber,
		TxIndex:     e.TxIndex,
		LogIndex:    e.LogIndex,
		TxHash:      e.TxHash,
		Timestamp:   e.BlockTimestamp,
	}
}

func (e Event) String() string {
	return e.Contract + "." + e.Kind + "@" + e.Position().String()
}

// Param 按名称查找参数
func (e Event) Param(name string) (Param, bool) {
	for _, p := range e.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func (e Event) raw(name string) (string, error) {
	p, ok := e.Param(name)
	if !ok {
		return "", fmt.Errorf("%w: %w %q", ErrBadPayload, ErrMissingParam, name)
	}
	return string(p.Value), nil
}

func badParam(name string, err error) error {
	return fmt.Errorf("%w: 参数 %q: %v", ErrBadPayload, name, err)
}

// Address 地址参数（已规范化）
func (e Event) Address(name string) (string, error) {
	raw, err := e.raw(name)
	if err != nil {
		return "", err
	}
	addr, err := ids.Address(raw)
	if err != nil {
		return "", badParam(name, err)
	}
	return addr, nil
}

// BigInt uint256 参数
func (e Event) BigInt(name string) (*big.Int, error) {
	raw, err := e.raw(name)
	if err != nil {
		return nil, err
	}
	n, err := ids.Number(raw)
	if err != nil {
		return nil, badParam(name, err)
	}
	return n, nil
}

// Int64 能放进 int64 的 uint256 参数（分数、声望、状态码等）
func (e Event) Int64(name string) (int64, error) {
	n, err := e.BigInt(name)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, badParam(name, fmt.Errorf("超出 int64 范围: %s", n))
	}
	return n.Int64(), nil
}

// Decimal 金额参数，按最小单位原样保存
func (e Event) Decimal(name string) (decimal.Decimal, error) {
	n, err := e.BigInt(name)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(n, 0), nil
}

// Text 字符串参数（去除首尾空白）
func (e Event) Text(name string) (string, error) {
	raw, err := e.raw(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// OptionalText 可选字符串参数，缺失时返回空串
func (e Event) OptionalText(name string) string {
	s, err := e.Text(name)
	if err != nil {
		return ""
	}
	return s
}

// Bool 布尔参数
func (e Event) Bool(name string) (bool, error) {
	raw, err := e.raw(name)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, badParam(name, err)
	}
	return b, nil
}

// Bytes32 32 字节参数（角色 ID 等）
func (e Event) Bytes32(name string) (string, error) {
	raw, err := e.raw(name)
	if err != nil {
		return "", err
	}
	h, err := ids.Hash(raw)
	if err != nil {
		return "", badParam(name, err)
	}
	return h, nil
}
