package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/QuestIndexer/internal/schema"
	"github.com/yuqie6/QuestIndexer/internal/testutil"
)

func TestAuditEventsAreDistinctFacts(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}
	role := "0x0000000000000000000000000000000000000000000000000000000000000001"
	admin := "0x0000000000000000000000000000000000000000000000000000000000000000"

	grant := func() *testutil.EventBuilder {
		return s.next(ContractSubmissionManager, "RoleGranted").
			With("role", "bytes32", role).
			With("account", "address", testutil.Addr(1)).
			With("sender", "address", testutil.Addr(2))
	}
	applyAll(t, p,
		grant().Build(),
		grant().Build(),
		s.next(ContractSubmissionManager, "RoleRevoked").
			With("role", "bytes32", role).
			With("account", "address", testutil.Addr(1)).
			With("sender", "address", testutil.Addr(2)).Build(),
		s.next(ContractQuestManager, "RoleAdminChanged").
			With("role", "bytes32", role).
			With("previousAdminRole", "bytes32", admin).
			With("newAdminRole", "bytes32", role).Build(),
		s.next(ContractUserProfile, "Paused").With("account", "address", testutil.Addr(2)).Build(),
		s.next(ContractUserProfile, "Unpaused").With("account", "address", testutil.Addr(2)).Build(),
	)

	var roles []schema.RoleEvent
	require.NoError(t, db.Order(schema.LedgerOrder).Find(&roles).Error)
	require.Len(t, roles, 4)
	assert.Equal(t, schema.RoleGranted, roles[0].Kind)
	assert.Equal(t, schema.RoleGranted, roles[1].Kind)
	assert.NotEqual(t, roles[0].ID, roles[1].ID)
	assert.Equal(t, schema.RoleRevoked, roles[2].Kind)
	assert.Equal(t, schema.RoleAdminChanged, roles[3].Kind)
	assert.Equal(t, ContractQuestManager, roles[3].Contract)
	assert.Equal(t, admin, roles[3].PreviousAdminRole)

	var pauses []schema.PauseEvent
	require.NoError(t, db.Order(schema.LedgerOrder).Find(&pauses).Error)
	require.Len(t, pauses, 2)
	assert.True(t, pauses[0].Paused)
	assert.False(t, pauses[1].Paused)
	assert.Equal(t, ContractUserProfile, pauses[0].Contract)
}
