package projection

import (
	"context"
	"sort"

	"github.com/yuqie6/QuestIndexer/internal/event"
)

// 合约名
const (
	ContractUserProfile       = "UserProfile"
	ContractQuestManager      = "QuestManager"
	ContractSubmissionManager = "SubmissionManager"
	ContractBountyEscrow      = "BountyEscrow"
)

// HandlerFunc 单个事件类型的处理函数
// 返回 SkipError 或 event.ErrBadPayload 表示跳过；其他错误视为存储故障。
type HandlerFunc func(ctx context.Context, s Store, evt event.Event) error

// Registry (contract, kind) -> 处理函数
type Registry struct {
	byContract  map[string]map[string]HandlerFunc
	anyContract map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{
		byContract:  make(map[string]map[string]HandlerFunc),
		anyContract: make(map[string]HandlerFunc),
	}
}

// Handle 注册指定合约的事件
func (r *Registry) Handle(contract, kind string, fn HandlerFunc) {
	m, ok := r.byContract[contract]
	if !ok {
		m = make(map[string]HandlerFunc)
		r.byContract[contract] = m
	}
	m[kind] = fn
}

// HandleAny 注册任意合约都可能发出的事件（角色、暂停）
func (r *Registry) HandleAny(kind string, fn HandlerFunc) {
	r.anyContract[kind] = fn
}

// Lookup 合约专属处理函数优先
func (r *Registry) Lookup(contract, kind string) (HandlerFunc, bool) {
	if fn, ok := r.byContract[contract][kind]; ok {
		return fn, true
	}
	fn, ok := r.anyContract[kind]
	return fn, ok
}

// Kinds 已注册的事件类型，形如 Contract.Kind 或 *.Kind
func (r *Registry) Kinds() []string {
	var out []string
	for c, m := range r.byContract {
		for k := range m {
			out = append(out, c+"."+k)
		}
	}
	for k := range r.anyContract {
		out = append(out, "*."+k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry 注册全部处理器
func DefaultRegistry() *Registry {
	r := NewRegistry()
	ProfileHandler{}.Register(r)
	QuestHandler{}.Register(r)
	SubmissionHandler{}.Register(r)
	EscrowHandler{}.Register(r)
	AuditHandler{}.Register(r)
	return r
}
