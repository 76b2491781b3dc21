package projection

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/repository"
	"github.com/yuqie6/QuestIndexer/internal/testutil"
	"gorm.io/gorm"
)

// stream 按调用顺序分配递增的账本位置
type stream struct {
	block uint64
	log   uint
}

func (s *stream) next(contract, kind string) *testutil.EventBuilder {
	s.log++
	if s.log > 3 {
		s.block++
		s.log = 0
	}
	return testutil.NewEvent(contract, kind, s.block+1, 0, s.log)
}

func (s *stream) profileCreated(user uint64, name string) event.Event {
	return s.next(ContractUserProfile, "ProfileCreated").
		With("user", "address", testutil.Addr(user)).
		With("username", "string", name).Build()
}

func (s *stream) reputation(user uint64, value int64) event.Event {
	return s.next(ContractUserProfile, "ReputationUpdated").
		With("user", "address", testutil.Addr(user)).
		With("newReputation", "uint256", value).Build()
}

func (s *stream) skill(kind string, user uint64, skill string) event.Event {
	return s.next(ContractUserProfile, kind).
		With("user", "address", testutil.Addr(user)).
		With("skill", "string", skill).Build()
}

func (s *stream) questCreated(quest, creator uint64) event.Event {
	return s.next(ContractQuestManager, "QuestCreated").
		With("questId", "uint256", quest).
		With("creator", "address", testutil.Addr(creator)).
		With("rewardAmount", "uint256", "1000000000000000000").
		With("deadline", "uint256", 1_800_000_000).
		With("maxWinners", "uint256", 2).Build()
}

func (s *stream) submissionCreated(sub, quest, submitter uint64) event.Event {
	return s.next(ContractSubmissionManager, "SubmissionCreated").
		With("submissionId", "uint256", sub).
		With("questId", "uint256", quest).
		With("submitter", "address", testutil.Addr(submitter)).
		With("teamId", "uint256", 0).
		With("contentURI", "string", "ipfs://sub").Build()
}

func (s *stream) submissionUpdated(sub uint64, status int) event.Event {
	return s.next(ContractSubmissionManager, "SubmissionUpdated").
		With("submissionId", "uint256", sub).
		With("status", "uint256", status).Build()
}

func (s *stream) liked(sub, liker uint64) event.Event {
	return s.next(ContractSubmissionManager, "SubmissionLiked").
		With("submissionId", "uint256", sub).
		With("liker", "address", testutil.Addr(liker)).Build()
}

func (s *stream) reviewed(sub, reviewer uint64, score int, approved bool) event.Event {
	return s.next(ContractSubmissionManager, "SubmissionReviewed").
		With("submissionId", "uint256", sub).
		With("reviewer", "address", testutil.Addr(reviewer)).
		With("score", "uint256", score).
		With("approved", "bool", approved).Build()
}

func (s *stream) winner(quest, sub uint64) event.Event {
	return s.next(ContractSubmissionManager, "WinnerSelected").
		With("questId", "uint256", quest).
		With("submissionId", "uint256", sub).Build()
}

func newProjector(t *testing.T) (*Projector, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return NewProjector(db, nil, ""), db
}

func applyAll(t *testing.T, p *Projector, events ...event.Event) []Outcome {
	t.Helper()
	out := make([]Outcome, 0, len(events))
	for _, evt := range events {
		o, err := p.Apply(context.Background(), evt)
		require.NoError(t, err, "apply %s", evt)
		out = append(out, o)
	}
	return out
}

func storeOf(db *gorm.DB) Store {
	return NewStore(repository.NewEntityStore(db))
}

func bigInt(n int64) *big.Int {
	return big.NewInt(n)
}
