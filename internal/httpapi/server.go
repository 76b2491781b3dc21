// Package httpapi 只读查询 API 与同步进度 SSE。
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/yuqie6/QuestIndexer/internal/eventbus"
	"github.com/yuqie6/QuestIndexer/internal/repository"
	"github.com/yuqie6/QuestIndexer/internal/service"
)

// StatusSource 提供同步器状态
type StatusSource interface {
	Status() service.SyncStatus
}

// Options 服务依赖
type Options struct {
	Name          string
	Version       string
	Commit        string
	SchemaVersion int
	SafeMode      bool

	Queries *repository.QueryRepository
	Sync    StatusSource
	Hub     *eventbus.Hub

	PingInterval time.Duration // SSE 心跳，默认 15s
}

// Server 读模型 HTTP 服务
type Server struct {
	opts      Options
	app       *fiber.App
	ln        net.Listener
	baseURL   string
	startTime time.Time
}

// New 构建服务并注册路由（不监听端口）
func New(opts Options) (*Server, error) {
	if opts.Queries == nil {
		return nil, fmt.Errorf("queries 不能为空")
	}
	if opts.Hub == nil {
		opts.Hub = eventbus.NewHub()
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 15 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:               opts.Name,
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          errorHandler,
		ReadTimeout:           10 * time.Second,
	})

	s := &Server{opts: opts, app: app, startTime: time.Now()}
	s.routes()
	return s, nil
}

// App 底层 fiber 应用
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")
	api.Get("/stats", s.handleStats)
	api.Get("/stream", s.handleStream)
	api.Get("/dropped", s.handleDropped)

	api.Get("/users/:address", s.handleUser)
	api.Get("/users/:address/achievements", s.handleAchievements)

	api.Get("/quests/:id", s.handleQuest)
	api.Get("/quests/:id/winners", s.handleQuestWinners)
	api.Get("/quests/:id/submissions", s.handleQuestSubmissions)
	api.Get("/quests/:id/escrow", s.handleQuestEscrow)

	api.Get("/submissions/:id", s.handleSubmission)
	api.Get("/submissions/:id/likes", s.handleLikes)
	api.Get("/submissions/:id/comments", s.handleComments)
	api.Get("/submissions/:id/reviews", s.handleReviews)

	api.Get("/audit/roles", s.handleRoleEvents)
	api.Get("/audit/pauses", s.handlePauseEvents)

	s.app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "route not found")
	})
}

// Start 监听地址并在后台服务，ctx 结束时关闭
func (s *Server) Start(ctx context.Context, listenAddr string) error {
	if strings.TrimSpace(listenAddr) == "" {
		listenAddr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", listenAddr, err)
	}
	s.ln = ln
	s.baseURL = "http://" + ln.Addr().String()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := s.app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Error("http server 异常退出", "error", err)
		}
	}()

	slog.Info("HTTP 查询服务已启动", "base_url", s.baseURL)
	return nil
}

// BaseURL 实际监听地址
func (s *Server) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

// Shutdown 停止服务
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.app == nil {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		slog.Error("请求处理失败", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
