package httpapi

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

// handleStream 以 SSE 推送 eventbus 通知，客户端断开时 Flush 报错退出
func (s *Server) handleStream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(context.Background())
	sub := s.opts.Hub.Subscribe(ctx, 64)
	ping := s.opts.PingInterval

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(ping)
		defer ticker.Stop()

		writeFrame(w, "ready", []byte("{}"))
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				writeFrame(w, "ping", []byte("{}"))
			case evt, ok := <-sub:
				if !ok {
					return
				}
				b, err := sonic.Marshal(evt)
				if err != nil {
					continue
				}
				writeFrame(w, evt.Type, b)
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

func writeFrame(w *bufio.Writer, name string, data []byte) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", sanitizeSSEName(name), data)
}

func sanitizeSSEName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return "message"
	}
	n = strings.ReplaceAll(n, "\n", "")
	n = strings.ReplaceAll(n, "\r", "")
	return n
}
