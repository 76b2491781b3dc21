package projection

import (
	"context"

	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/schema"
)

// AuditHandler 角色与暂停审计
// 每次发生都是独立事实（键为交易哈希 + 日志序号），不去重，也不推导“当前角色成员”。
type AuditHandler struct{}

func (h AuditHandler) Register(r *Registry) {
	r.HandleAny("RoleGranted", h.RoleGranted)
	r.HandleAny("RoleRevoked", h.RoleRevoked)
	r.HandleAny("RoleAdminChanged", h.RoleAdminChanged)
	r.HandleAny("Paused", h.Paused)
	r.HandleAny("Unpaused", h.Unpaused)
}

func (AuditHandler) RoleGranted(ctx context.Context, s Store, evt event.Event) error {
	return recordRoleMembership(ctx, s, evt, schema.RoleGranted)
}

func (AuditHandler) RoleRevoked(ctx context.Context, s Store, evt event.Event) error {
	return recordRoleMembership(ctx, s, evt, schema.RoleRevoked)
}

func recordRoleMembership(ctx context.Context, s Store, evt event.Event, kind schema.RoleEventKind) error {
	role, err := evt.Bytes32("role")
	if err != nil {
		return err
	}
	account, err := evt.Address("account")
	if err != nil {
		return err
	}
	sender, err := evt.Address("sender")
	if err != nil {
		return err
	}
	_, err = s.RoleEvents.Insert(ctx, &schema.RoleEvent{
		ID:        evt.ID(),
		Contract:  evt.Contract,
		Kind:      kind,
		Role:      role,
		Account:   account,
		Sender:    sender,
		LedgerRef: evt.Ledger(),
	})
	return err
}

func (AuditHandler) RoleAdminChanged(ctx context.Context, s Store, evt event.Event) error {
	role, err := evt.Bytes32("role")
	if err != nil {
		return err
	}
	prev, err := evt.Bytes32("previousAdminRole")
	if err != nil {
		return err
	}
	next, err := evt.Bytes32("newAdminRole")
	if err != nil {
		return err
	}
	_, err = s.RoleEvents.Insert(ctx, &schema.RoleEvent{
		ID:                evt.ID(),
		Contract:          evt.Contract,
		Kind:              schema.RoleAdminChanged,
		Role:              role,
		PreviousAdminRole: prev,
		NewAdminRole:      next,
		LedgerRef:         evt.Ledger(),
	})
	return err
}

func (AuditHandler) Paused(ctx context.Context, s Store, evt event.Event) error {
	return recordPause(ctx, s, evt, true)
}

func (AuditHandler) Unpaused(ctx context.Context, s Store, evt event.Event) error {
	return recordPause(ctx, s, evt, false)
}

func recordPause(ctx context.Context, s Store, evt event.Event, paused bool) error {
	account, err := evt.Address("account")
	if err != nil {
		return err
	}
	_, err = s.PauseEvents.Insert(ctx, &schema.PauseEvent{
		ID:        evt.ID(),
		Contract:  evt.Contract,
		Account:   account,
		Paused:    paused,
		LedgerRef: evt.Ledger(),
	})
	return err
}
