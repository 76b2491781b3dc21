package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听事件目录，新事件写入后（防抖）发出一次信号
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	signals  chan struct{}
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex
	stopOnce sync.Once
}

// NewWatcher 创建目录监听器
func NewWatcher(dir string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建事件目录失败: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("添加监控目录失败: %w", err)
	}

	return &Watcher{
		watcher:  w,
		dir:      dir,
		debounce: debounce,
		signals:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}, nil
}

// Signals 信号通道；多次变更合并为一次
func (w *Watcher) Signals() <-chan struct{} {
	return w.signals
}

// Start 启动监听
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()
	slog.Info("事件目录监听启动", "dir", w.dir, "debounce", w.debounce)

	go w.watchLoop(ctx)
	return nil
}

// Stop 停止监听
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		_ = w.watcher.Close()
		slog.Info("事件目录监听已停止")
	})
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(evt) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("文件监控错误", "error", err)
		case <-timer.C:
			select {
			case w.signals <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Ext(evt.Name), FileExt)
}
