package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuqie6/QuestIndexer/internal/httpapi"
	"github.com/yuqie6/QuestIndexer/internal/pkg/buildinfo"
	"github.com/yuqie6/QuestIndexer/internal/service"
	"github.com/yuqie6/QuestIndexer/internal/source"
)

// Runtime 常驻模式：目录监听 + 周期同步 + HTTP 查询
type Runtime struct {
	*Core

	Watcher   *source.Watcher
	Scheduler *service.Scheduler
	HTTP      *httpapi.Server
}

// StartRuntime 启动后台任务；安全模式下只提供只读查询
func StartRuntime(ctx context.Context, core *Core) (*Runtime, error) {
	rt := &Runtime{Core: core}
	cfg := core.Cfg

	if core.DB.SafeMode {
		slog.Warn("数据库处于安全模式，不启动同步任务")
	} else {
		var signals <-chan struct{}
		if cfg.Source.Watch {
			w, err := source.NewWatcher(cfg.Source.Dir, cfg.Source.Debounce())
			if err != nil {
				return nil, err
			}
			if err := w.Start(ctx); err != nil {
				return nil, err
			}
			rt.Watcher = w
			signals = w.Signals()
		}

		sched, err := service.NewScheduler(core.Syncer, cfg.Sync.Interval(), signals)
		if err != nil {
			rt.Stop()
			return nil, err
		}
		if err := sched.Start(ctx); err != nil {
			rt.Stop()
			return nil, err
		}
		rt.Scheduler = sched
	}

	if cfg.HTTP.Enabled {
		srv, err := httpapi.New(httpapi.Options{
			Name:          cfg.App.Name,
			Version:       buildinfo.Version,
			Commit:        buildinfo.Commit,
			SchemaVersion: core.DB.SchemaVersion,
			SafeMode:      core.DB.SafeMode,
			Queries:       core.Repos.Query,
			Sync:          core.Syncer,
			Hub:           core.Hub,
		})
		if err != nil {
			rt.Stop()
			return nil, err
		}
		if err := srv.Start(ctx, cfg.HTTP.ListenAddr); err != nil {
			rt.Stop()
			return nil, fmt.Errorf("启动 HTTP 服务失败: %w", err)
		}
		rt.HTTP = srv
	}

	slog.Info("运行时已启动",
		"source_dir", cfg.Source.Dir,
		"watch", rt.Watcher != nil,
		"interval", cfg.Sync.Interval(),
		"http", rt.HTTP.BaseURL(),
	)
	return rt, nil
}

// Stop 停止后台任务（不关闭数据库）
func (rt *Runtime) Stop() {
	if rt == nil {
		return
	}
	if rt.HTTP != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rt.HTTP.Shutdown(ctx); err != nil {
			slog.Warn("关闭 HTTP 服务失败", "error", err)
		}
		cancel()
	}
	if rt.Scheduler != nil {
		if err := rt.Scheduler.Stop(); err != nil {
			slog.Warn("停止调度器失败", "error", err)
		}
	}
	if rt.Watcher != nil {
		if err := rt.Watcher.Stop(); err != nil {
			slog.Warn("停止目录监听失败", "error", err)
		}
	}
}
