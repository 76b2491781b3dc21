package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Table 单个实体类型的键值表
// newDefault 为该类型的零值工厂，GetOrCreate 在记录缺失时调用。
type Table[T any] struct {
	db         *gorm.DB
	kind       string
	keyColumn  string
	newDefault func(key string) *T
}

// NewTable 创建实体表
func NewTable[T any](db *gorm.DB, kind, keyColumn string, newDefault func(key string) *T) *Table[T] {
	return &Table[T]{db: db, kind: kind, keyColumn: keyColumn, newDefault: newDefault}
}

// Kind 实体类型名（日志与错误信息用）
func (t *Table[T]) Kind() string {
	return t.kind
}

// Get 按键读取，不存在返回 (nil, nil)
func (t *Table[T]) Get(ctx context.Context, key string) (*T, error) {
	var rec T
	err := t.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: t.keyColumn}, Value: key}).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取 %s 失败: %w", t.kind, err)
	}
	return &rec, nil
}

// Put 按主键整行写入（存在则覆盖全部字段）
func (t *Table[T]) Put(ctx context.Context, rec *T) error {
	if rec == nil {
		return fmt.Errorf("写入 %s 失败: 记录为空", t.kind)
	}
	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("写入 %s 失败: %w", t.kind, err)
	}
	return nil
}

// GetOrCreate 读取记录，缺失时返回零值默认记录（created=true）
// 默认记录不会立即落库，由调用方修改后 Put。
func (t *Table[T]) GetOrCreate(ctx context.Context, key string) (*T, bool, error) {
	rec, err := t.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if rec != nil {
		return rec, false, nil
	}
	if t.newDefault == nil {
		return nil, false, fmt.Errorf("%s 未配置默认值工厂", t.kind)
	}
	return t.newDefault(key), true, nil
}

// Insert 仅在主键不存在时插入，返回是否真正写入
// 重放同一事件时返回 false，调用方据此跳过计数累加。
func (t *Table[T]) Insert(ctx context.Context, rec *T) (bool, error) {
	if rec == nil {
		return false, fmt.Errorf("插入 %s 失败: 记录为空", t.kind)
	}
	res := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return false, fmt.Errorf("插入 %s 失败: %w", t.kind, res.Error)
	}
	return res.RowsAffected == 1, nil
}
