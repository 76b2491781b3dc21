package event

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

const maxLineBytes = 4 << 20

// DecodeNDJSON 逐行解析事件日志（空行与 # 开头的注释行忽略）
// 任意一行无法解析都返回错误：跳过已最终确定的事件会让投影永久偏离源日志。
func DecodeNDJSON(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var events []Event
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 || b[0] == '#' {
			continue
		}
		var evt Event
		if err := sonic.Unmarshal(b, &evt); err != nil {
			return nil, fmt.Errorf("解析第 %d 行失败: %w", line, err)
		}
		if err := evt.Normalize(); err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取事件日志失败: %w", err)
	}
	return events, nil
}

// EncodeNDJSON 写出事件日志，一行一个事件
func EncodeNDJSON(w io.Writer, events []Event) error {
	for _, evt := range events {
		b, err := sonic.Marshal(evt)
		if err != nil {
			return fmt.Errorf("序列化事件失败: %w", err)
		}
		b = append(b, '\n')
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("写入事件失败: %w", err)
		}
	}
	return nil
}
