package projection

import (
	"errors"
	"fmt"

	"github.com/yuqie6/QuestIndexer/internal/event"
)

// SkipError 事件被跳过（父实体缺失、载荷值无法识别）
// 不是暂时性错误：记录为丢弃事件并推进检查点，不重试。
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "跳过事件: " + e.Reason
}

func skipf(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// AsSkip 判断错误是否应跳过事件；载荷解析失败同样视为跳过
func AsSkip(err error) (*SkipError, bool) {
	var skip *SkipError
	if errors.As(err, &skip) {
		return skip, true
	}
	if errors.Is(err, event.ErrBadPayload) {
		return &SkipError{Reason: err.Error()}, true
	}
	return nil, false
}
