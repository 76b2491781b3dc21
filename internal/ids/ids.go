// Package ids 由事件字段确定性地推导存储键，同一事件重复投递总是命中同一条记录。
package ids

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

var (
	ErrInvalidAddress = errors.New("地址格式无效")
	ErrInvalidNumber  = errors.New("数值格式无效")
	ErrInvalidHash    = errors.New("哈希格式无效")
)

// Address 校验并规范化地址（小写、0x 前缀）
func Address(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), nil
}

// Number 解析 uint256（十进制或 0x 十六进制）
func Number(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: 空字符串", ErrInvalidNumber)
	}
	n, ok := math.ParseBig256(s)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, nil
}

// Hash 校验并规范化 32 字节哈希（交易哈希、角色 ID）
func Hash(s string) (string, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil || len(b) != common.HashLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
	return common.BytesToHash(b).Hex(), nil
}

// NumericKey 整数 ID 的定宽编码（bytes32 十六进制），任务与提交使用
func NumericKey(n *big.Int) string {
	return common.BigToHash(n).Hex()
}

// FactKey 审计/流水类记录的键：交易哈希 + 日志序号，对每条链上日志全局唯一
func FactKey(txHash string, logIndex uint) string {
	return txHash + "-" + strconv.FormatUint(uint64(logIndex), 10)
}

// LikeKey (submission, liker) 唯一，点赞去重由键保证
func LikeKey(submissionKey, liker string) string {
	return submissionKey + "-" + liker
}

// CommentKey 同一用户可多次评论，按时间戳区分
func CommentKey(submissionKey, commenter string, ts int64) string {
	return submissionKey + "-" + commenter + "-" + strconv.FormatInt(ts, 10)
}

// ReviewKey 同一评审人可多次评审，按时间戳区分
func ReviewKey(submissionKey, reviewer string, ts int64) string {
	return submissionKey + "-" + reviewer + "-" + strconv.FormatInt(ts, 10)
}

// AchievementKey (user, achievement) 唯一
func AchievementKey(user string, achievementID *big.Int) string {
	return user + "-" + achievementID.String()
}
