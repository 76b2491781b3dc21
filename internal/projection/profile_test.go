package projection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/QuestIndexer/internal/schema"
	"github.com/yuqie6/QuestIndexer/internal/testutil"
)

func TestReputationIsLastValue(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	applyAll(t, p,
		s.profileCreated(1, "alice"),
		s.reputation(1, 50),
		s.reputation(1, 10),
		s.reputation(2, 7),
		s.reputation(1, 30),
	)

	u, err := storeOf(db).Users.Get(context.Background(), testutil.Addr(1))
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "30", u.Reputation.String())

	other, err := storeOf(db).Users.Get(context.Background(), testutil.Addr(2))
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, "7", other.Reputation.String())
	assert.False(t, other.HasProfile)
}

func TestReputationKeepsFullUint256(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	huge := "9223372036854775808" // 2^63
	out := applyAll(t, p,
		s.reputation(1, 5),
		s.next(ContractUserProfile, "ReputationUpdated").
			With("user", "address", testutil.Addr(1)).
			With("newReputation", "uint256", huge).Build(),
	)
	assert.True(t, out[1].Applied, out[1].Reason)

	u, err := storeOf(db).Users.Get(context.Background(), testutil.Addr(1))
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, huge, u.Reputation.String())
}

func TestSkillSetHasNoDuplicates(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}
	ctx := context.Background()

	// 先通过其他事件懒创建用户
	applyAll(t, p,
		s.reputation(0xA, 1),
		s.profileCreated(0xA, "alice"),
		s.skill("SkillAdded", 0xA, "Rust"),
		s.skill("SkillAdded", 0xA, "Rust"),
	)

	u, err := storeOf(db).Users.Get(ctx, testutil.Addr(0xA))
	require.NoError(t, err)
	assert.Equal(t, schema.JSONArray{"Rust"}, u.Skills)
	assert.Equal(t, "alice", u.Username)

	applyAll(t, p,
		s.skill("SkillAdded", 0xA, "Go"),
		s.skill("SkillRemoved", 0xA, "Rust"),
		s.skill("SkillRemoved", 0xA, "Rust"),
		s.skill("SkillRemoved", 0xA, "Solidity"),
	)
	u, err = storeOf(db).Users.Get(ctx, testutil.Addr(0xA))
	require.NoError(t, err)
	assert.Equal(t, schema.JSONArray{"Go"}, u.Skills)
}

func TestProfileCreatedOnlyOnce(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}
	ctx := context.Background()

	first := s.profileCreated(1, "alice")
	second := s.profileCreated(1, "mallory")
	applyAll(t, p, first, second)

	u, err := storeOf(db).Users.Get(ctx, testutil.Addr(1))
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, first.BlockTimestamp, u.ProfileCreatedAt)

	stats, err := storeOf(db).Stats.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalUsers)

	upd := s.next(ContractUserProfile, "ProfileUpdated").With("user", "address", testutil.Addr(1)).Build()
	applyAll(t, p, upd)
	u, _ = storeOf(db).Users.Get(ctx, testutil.Addr(1))
	assert.Equal(t, upd.BlockTimestamp, u.ProfileUpdatedAt)
	assert.Equal(t, first.BlockTimestamp, u.ProfileCreatedAt)
}

func TestAchievementUniquePerUser(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	earn := func(user uint64, id int) *testutil.EventBuilder {
		return s.next(ContractUserProfile, "AchievementEarned").
			With("user", "address", testutil.Addr(user)).
			With("achievementId", "uint256", id)
	}
	applyAll(t, p,
		earn(1, 3).Build(),
		earn(1, 3).Build(),
		earn(1, 4).Build(),
		earn(2, 3).Build(),
	)

	var n int64
	require.NoError(t, db.Model(&schema.UserAchievement{}).Where("user = ?", testutil.Addr(1)).Count(&n).Error)
	assert.EqualValues(t, 2, n)

	u, err := storeOf(db).Users.Get(context.Background(), testutil.Addr(2))
	require.NoError(t, err)
	assert.NotNil(t, u, "achievement lazily creates the user")
}

func TestBadAddressIsDropped(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	evt := s.next(ContractUserProfile, "ReputationUpdated").
		With("user", "address", "0xnope").
		With("newReputation", "uint256", 5).Build()
	out := applyAll(t, p, evt)
	assert.True(t, out[0].Dropped)

	var dropped []schema.DroppedEvent
	require.NoError(t, db.Find(&dropped).Error)
	require.Len(t, dropped, 1)
	assert.Equal(t, "ReputationUpdated", dropped[0].Kind)
}
