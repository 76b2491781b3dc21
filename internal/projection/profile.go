package projection

import (
	"context"

	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/ids"
	"github.com/yuqie6/QuestIndexer/internal/schema"
)

// ProfileHandler 用户资料、声望、技能、成就
type ProfileHandler struct{}

func (h ProfileHandler) Register(r *Registry) {
	r.Handle(ContractUserProfile, "ProfileCreated", h.ProfileCreated)
	r.Handle(ContractUserProfile, "ProfileUpdated", h.ProfileUpdated)
	r.Handle(ContractUserProfile, "ReputationUpdated", h.ReputationUpdated)
	r.Handle(ContractUserProfile, "SkillAdded", h.SkillAdded)
	r.Handle(ContractUserProfile, "SkillRemoved", h.SkillRemoved)
	r.Handle(ContractUserProfile, "AchievementEarned", h.AchievementEarned)
}

func loadUser(ctx context.Context, s Store, evt event.Event, param string) (*schema.User, bool, error) {
	addr, err := evt.Address(param)
	if err != nil {
		return nil, false, err
	}
	return s.Users.GetOrCreate(ctx, addr)
}

// ProfileCreated 用户名与创建时间只设置一次；首次创建资料计入平台用户数
func (ProfileHandler) ProfileCreated(ctx context.Context, s Store, evt event.Event) error {
	u, _, err := loadUser(ctx, s, evt, "user")
	if err != nil {
		return err
	}
	if u.HasProfile {
		return nil
	}
	username, err := evt.Text("username")
	if err != nil {
		return err
	}

	u.Username = username
	u.HasProfile = true
	u.ProfileCreatedAt = evt.BlockTimestamp
	u.ProfileUpdatedAt = evt.BlockTimestamp
	if err := s.Users.Put(ctx, u); err != nil {
		return err
	}
	return s.updateStats(ctx, func(st *schema.PlatformStats) {
		st.TotalUsers++
	})
}

// ProfileUpdated 只刷新更新时间
func (ProfileHandler) ProfileUpdated(ctx context.Context, s Store, evt event.Event) error {
	u, _, err := loadUser(ctx, s, evt, "user")
	if err != nil {
		return err
	}
	u.ProfileUpdatedAt = evt.BlockTimestamp
	return s.Users.Put(ctx, u)
}

// ReputationUpdated 以事件给出的总值覆盖，不做本地累加
func (ProfileHandler) ReputationUpdated(ctx context.Context, s Store, evt event.Event) error {
	reputation, err := evt.Decimal("newReputation")
	if err != nil {
		return err
	}
	u, _, err := loadUser(ctx, s, evt, "user")
	if err != nil {
		return err
	}
	u.Reputation = reputation
	return s.Users.Put(ctx, u)
}

func skillParam(evt event.Event) (string, error) {
	skill, err := evt.Text("skill")
	if err != nil {
		return "", err
	}
	if skill == "" {
		return "", skipf("技能名为空")
	}
	return skill, nil
}

// SkillAdded 集合语义，已存在则不变
func (ProfileHandler) SkillAdded(ctx context.Context, s Store, evt event.Event) error {
	skill, err := skillParam(evt)
	if err != nil {
		return err
	}
	u, created, err := loadUser(ctx, s, evt, "user")
	if err != nil {
		return err
	}
	if !u.Skills.Add(skill) && !created {
		return nil
	}
	return s.Users.Put(ctx, u)
}

// SkillRemoved 不存在则不变
func (ProfileHandler) SkillRemoved(ctx context.Context, s Store, evt event.Event) error {
	skill, err := skillParam(evt)
	if err != nil {
		return err
	}
	u, created, err := loadUser(ctx, s, evt, "user")
	if err != nil {
		return err
	}
	if !u.Skills.Remove(skill) && !created {
		return nil
	}
	return s.Users.Put(ctx, u)
}

// AchievementEarned (user, achievement) 唯一；资格由合约判定，这里不校验
func (ProfileHandler) AchievementEarned(ctx context.Context, s Store, evt event.Event) error {
	achievementID, err := evt.BigInt("achievementId")
	if err != nil {
		return err
	}
	u, created, err := loadUser(ctx, s, evt, "user")
	if err != nil {
		return err
	}
	if created {
		if err := s.Users.Put(ctx, u); err != nil {
			return err
		}
	}

	_, err = s.Achievements.Insert(ctx, &schema.UserAchievement{
		ID:            ids.AchievementKey(u.Address, achievementID),
		User:          u.Address,
		AchievementID: achievementID.String(),
		LedgerRef:     evt.Ledger(),
	})
	return err
}
