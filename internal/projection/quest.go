package projection

import (
	"context"

	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/ids"
	"github.com/yuqie6/QuestIndexer/internal/schema"
)

// QuestHandler 任务生命周期（提交与获胜者依赖的父实体）
type QuestHandler struct{}

func (h QuestHandler) Register(r *Registry) {
	r.Handle(ContractQuestManager, "QuestCreated", h.QuestCreated)
	r.Handle(ContractQuestManager, "QuestStatusUpdated", h.QuestStatusUpdated)
}

func questKey(evt event.Event) (string, error) {
	n, err := evt.BigInt("questId")
	if err != nil {
		return "", err
	}
	return ids.NumericKey(n), nil
}

// QuestCreated 填充任务字段；托管事件可能先于它懒创建了任务记录
func (QuestHandler) QuestCreated(ctx context.Context, s Store, evt event.Event) error {
	n, err := evt.BigInt("questId")
	if err != nil {
		return err
	}
	creator, err := evt.Address("creator")
	if err != nil {
		return err
	}
	reward, err := evt.Decimal("rewardAmount")
	if err != nil {
		return err
	}
	deadline, err := evt.Int64("deadline")
	if err != nil {
		return err
	}
	maxWinners, err := evt.Int64("maxWinners")
	if err != nil {
		return err
	}

	q, _, err := s.Quests.GetOrCreate(ctx, ids.NumericKey(n))
	if err != nil {
		return err
	}
	if q.Creator != "" {
		return nil
	}

	q.Number = n.String()
	q.Creator = creator
	q.RewardAmount = reward
	q.Deadline = deadline
	q.MaxWinners = maxWinners
	q.Status = schema.QuestOpen
	q.CreatedTimestamp = evt.BlockTimestamp
	q.UpdatedTimestamp = evt.BlockTimestamp
	if err := s.Quests.Put(ctx, q); err != nil {
		return err
	}

	u, _, err := s.Users.GetOrCreate(ctx, creator)
	if err != nil {
		return err
	}
	u.QuestsCreated++
	if err := s.Users.Put(ctx, u); err != nil {
		return err
	}
	return s.updateStats(ctx, func(st *schema.PlatformStats) {
		st.TotalQuests++
	})
}

// QuestStatusUpdated 未知状态码忽略
func (QuestHandler) QuestStatusUpdated(ctx context.Context, s Store, evt event.Event) error {
	key, err := questKey(evt)
	if err != nil {
		return err
	}
	code, err := evt.BigInt("status")
	if err != nil {
		return err
	}
	q, err := s.Quests.Get(ctx, key)
	if err != nil {
		return err
	}
	if q == nil {
		return skipf("任务不存在: %s", key)
	}
	if !code.IsUint64() {
		return skipf("未知任务状态码: %s", code)
	}
	status, ok := schema.QuestStatusFromCode(code.Uint64())
	if !ok {
		return skipf("未知任务状态码: %s", code)
	}

	q.Status = status
	q.UpdatedTimestamp = evt.BlockTimestamp
	return s.Quests.Put(ctx, q)
}
