package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yuqie6/QuestIndexer/internal/event"
)

// FileExt 事件日志文件扩展名
const FileExt = ".ndjson"

type cachedFile struct {
	modTime time.Time
	size    int64
	events  []event.Event
}

// FileLog 目录下的 *.ndjson 事件日志
// 文件只追加；按修改时间与大小缓存解析结果，未变化的文件不重复解析。
type FileLog struct {
	dir string

	mu    sync.Mutex
	cache map[string]cachedFile
}

func NewFileLog(dir string) *FileLog {
	return &FileLog{dir: dir, cache: make(map[string]cachedFile)}
}

// Dir 监听目录
func (f *FileLog) Dir() string {
	return f.dir
}

func (f *FileLog) Fetch(ctx context.Context, after *event.Position, limit int) ([]event.Event, error) {
	all, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	return page(all, after, limit), nil
}

func (f *FileLog) load(ctx context.Context) ([]event.Event, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取事件目录失败: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), FileExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	seen := make(map[string]struct{}, len(names))
	var all []event.Event
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(f.dir, name)
		seen[path] = struct{}{}

		events, err := f.readFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	for path := range f.cache {
		if _, ok := seen[path]; !ok {
			delete(f.cache, path)
		}
	}

	event.Sort(all)
	return dedupe(all), nil
}

func (f *FileLog) readFile(path string) ([]event.Event, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("读取事件文件失败: %w", err)
	}
	if c, ok := f.cache[path]; ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.events, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开事件文件失败: %w", err)
	}
	defer file.Close()

	events, err := event.DecodeNDJSON(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	f.cache[path] = cachedFile{modTime: info.ModTime(), size: info.Size(), events: events}
	return events, nil
}

// dedupe 去掉多个文件中重复出现的同一事件（位置与交易哈希都相同）
func dedupe(sorted []event.Event) []event.Event {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, evt := range sorted[1:] {
		last := out[len(out)-1]
		if last.Position() == evt.Position() && last.TxHash == evt.TxHash {
			continue
		}
		out = append(out, evt)
	}
	return out
}
