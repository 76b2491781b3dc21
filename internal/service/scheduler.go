package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler 周期同步 + 目录变更触发
type Scheduler struct {
	syncer   *Syncer
	interval time.Duration
	signals  <-chan struct{}

	sched    gocron.Scheduler
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  atomic.Bool
	halted   atomic.Bool
}

// NewScheduler 创建调度器；signals 可为 nil（不监听目录）
func NewScheduler(syncer *Syncer, interval time.Duration, signals <-chan struct{}) (*Scheduler, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("创建调度器失败: %w", err)
	}
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		signals:  signals,
		sched:    sched,
		stopChan: make(chan struct{}),
	}, nil
}

// Start 启动调度：立即同步一次，之后按周期执行
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.trigger(ctx, "interval") }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("注册同步任务失败: %w", err)
	}
	s.sched.Start()

	if s.signals != nil {
		s.wg.Add(1)
		go s.watchLoop(ctx)
	}

	slog.Info("同步调度启动", "interval", s.interval, "watch", s.signals != nil)
	return nil
}

// Stop 停止调度并等待进行中的同步结束
func (s *Scheduler) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.stopChan)
	err := s.sched.Shutdown()
	s.wg.Wait()
	slog.Info("同步调度已停止")
	return err
}

func (s *Scheduler) watchLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case _, ok := <-s.signals:
			if !ok {
				return
			}
			s.trigger(ctx, "watch")
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context, cause string) {
	if ctx.Err() != nil {
		return
	}
	_, err := s.syncer.SyncOnce(ctx)
	switch {
	case err == nil:
		s.halted.Store(false)
	case errors.Is(err, ErrHalted):
		// 停止状态只提示一次
		if !s.halted.Swap(true) {
			slog.Error("同步处于停止状态，等待人工处理", "trigger", cause, "error", err)
		}
	case errors.Is(err, context.Canceled):
	default:
		slog.Warn("同步失败，下个周期重试", "trigger", cause, "error", err)
	}
}
