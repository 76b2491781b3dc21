package projection

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/schema"
)

// EscrowHandler 托管资金流水与平台资金汇总
// 金额原样取自事件，不重新计算手续费；TVL 为托管余额，扣减时不低于 0。
type EscrowHandler struct{}

func (h EscrowHandler) Register(r *Registry) {
	r.Handle(ContractBountyEscrow, "BountyDeposited", h.BountyDeposited)
	r.Handle(ContractBountyEscrow, "RewardDistributed", h.RewardDistributed)
	r.Handle(ContractBountyEscrow, "BountyRefunded", h.BountyRefunded)
	r.Handle(ContractBountyEscrow, "FeeUpdated", h.FeeUpdated)
	r.Handle(ContractBountyEscrow, "FeeRecipientUpdated", h.FeeRecipientUpdated)
}

func subFloor(a, b decimal.Decimal) decimal.Decimal {
	out := a.Sub(b)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// recordEscrow 写入流水事实并懒加载任务；重复投递时返回 nil 任务
func recordEscrow(ctx context.Context, s Store, evt event.Event, kind schema.EscrowEventKind, accountParam string) (*schema.Quest, decimal.Decimal, error) {
	key, err := questKey(evt)
	if err != nil {
		return nil, decimal.Zero, err
	}
	account, err := evt.Address(accountParam)
	if err != nil {
		return nil, decimal.Zero, err
	}
	amount, err := evt.Decimal("amount")
	if err != nil {
		return nil, decimal.Zero, err
	}

	created, err := s.EscrowEvents.Insert(ctx, &schema.EscrowEvent{
		ID:        evt.ID(),
		Kind:      kind,
		QuestID:   key,
		Account:   account,
		Amount:    amount,
		LedgerRef: evt.Ledger(),
	})
	if err != nil || !created {
		return nil, amount, err
	}

	q, _, err := s.Quests.GetOrCreate(ctx, key)
	if err != nil {
		return nil, amount, err
	}
	return q, amount, nil
}

// BountyDeposited 资金进入托管
func (EscrowHandler) BountyDeposited(ctx context.Context, s Store, evt event.Event) error {
	q, amount, err := recordEscrow(ctx, s, evt, schema.EscrowDeposited, "depositor")
	if err != nil || q == nil {
		return err
	}
	q.EscrowBalance = q.EscrowBalance.Add(amount)
	if err := s.Quests.Put(ctx, q); err != nil {
		return err
	}
	return s.updateStats(ctx, func(st *schema.PlatformStats) {
		st.TotalValueLocked = st.TotalValueLocked.Add(amount)
	})
}

// RewardDistributed 奖励发放给获胜者
func (EscrowHandler) RewardDistributed(ctx context.Context, s Store, evt event.Event) error {
	q, amount, err := recordEscrow(ctx, s, evt, schema.EscrowDistributed, "winner")
	if err != nil || q == nil {
		return err
	}
	q.EscrowBalance = subFloor(q.EscrowBalance, amount)
	if err := s.Quests.Put(ctx, q); err != nil {
		return err
	}

	winner, _ := evt.Address("winner")
	u, _, err := s.Users.GetOrCreate(ctx, winner)
	if err != nil {
		return err
	}
	u.RewardsEarned = u.RewardsEarned.Add(amount)
	if err := s.Users.Put(ctx, u); err != nil {
		return err
	}

	return s.updateStats(ctx, func(st *schema.PlatformStats) {
		st.TotalRewardsDistributed = st.TotalRewardsDistributed.Add(amount)
		st.TotalValueLocked = subFloor(st.TotalValueLocked, amount)
	})
}

// BountyRefunded 资金退回
func (EscrowHandler) BountyRefunded(ctx context.Context, s Store, evt event.Event) error {
	q, amount, err := recordEscrow(ctx, s, evt, schema.EscrowRefunded, "recipient")
	if err != nil || q == nil {
		return err
	}
	q.EscrowBalance = subFloor(q.EscrowBalance, amount)
	if err := s.Quests.Put(ctx, q); err != nil {
		return err
	}
	return s.updateStats(ctx, func(st *schema.PlatformStats) {
		st.TotalValueLocked = subFloor(st.TotalValueLocked, amount)
	})
}

// FeeUpdated 绝对值覆盖
func (EscrowHandler) FeeUpdated(ctx context.Context, s Store, evt event.Event) error {
	fee, err := evt.Int64("newFeePercentage")
	if err != nil {
		return err
	}
	return s.updateStats(ctx, func(st *schema.PlatformStats) {
		st.FeePercentage = fee
	})
}

// FeeRecipientUpdated 绝对值覆盖
func (EscrowHandler) FeeRecipientUpdated(ctx context.Context, s Store, evt event.Event) error {
	recipient, err := evt.Address("newRecipient")
	if err != nil {
		return err
	}
	return s.updateStats(ctx, func(st *schema.PlatformStats) {
		st.FeeRecipient = recipient
	})
}
