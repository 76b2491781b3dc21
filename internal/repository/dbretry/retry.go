// Package dbretry 对 SQLite 的暂时性错误（锁竞争）做指数退避重试。
package dbretry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy 重试参数
type Policy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy 默认重试参数
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      5,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// IsRetryableError 只有锁竞争类错误可重试，其余一律视为永久错误
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "sqlite_locked")
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultPolicy().InitialInterval
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.InitialInterval),
		backoff.WithMaxInterval(p.MaxInterval),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
}

// Operation 带重试执行有返回值的数据库操作
func Operation[T any](ctx context.Context, p Policy, operation func(context.Context) (T, error)) (T, error) {
	var result T
	var lastErr error
	permanent := false

	err := backoff.Retry(func() error {
		var err error
		result, err = operation(ctx)
		if err != nil {
			if !IsRetryableError(err) {
				permanent = true
				return backoff.Permanent(err)
			}
			lastErr = err
			return err
		}
		return nil
	}, p.backOff(ctx))
	if err != nil {
		if permanent {
			return result, err
		}
		if lastErr != nil {
			return result, fmt.Errorf("重试 %d 次后仍失败: %w", p.MaxRetries, lastErr)
		}
		return result, err
	}
	return result, nil
}

// NoResult 带重试执行无返回值的数据库操作
func NoResult(ctx context.Context, p Policy, operation func(context.Context) error) error {
	_, err := Operation(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}
