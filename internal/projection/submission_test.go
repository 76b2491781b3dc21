package projection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/ids"
	"github.com/yuqie6/QuestIndexer/internal/schema"
	"github.com/yuqie6/QuestIndexer/internal/testutil"
	"gorm.io/gorm"
)

func subKey(n int64) string {
	return ids.NumericKey(bigInt(n))
}

func getSubmission(t *testing.T, db *gorm.DB, n int64) *schema.Submission {
	t.Helper()
	sub, err := storeOf(db).Submissions.Get(context.Background(), subKey(n))
	require.NoError(t, err)
	return sub
}

func getQuest(t *testing.T, db *gorm.DB, n int64) *schema.Quest {
	t.Helper()
	q, err := storeOf(db).Quests.Get(context.Background(), subKey(n))
	require.NoError(t, err)
	return q
}

func TestSubmissionCreatedForUnknownQuestIsDropped(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	out := applyAll(t, p, s.submissionCreated(7, 3, 0xB))
	assert.True(t, out[0].Dropped)
	assert.Nil(t, getSubmission(t, db, 7))
	assert.Nil(t, getQuest(t, db, 3), "no placeholder quest")

	cp, err := p.Checkpoint(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.EqualValues(t, 1, cp.Dropped)
	assert.EqualValues(t, 0, cp.Applied)
}

func TestSubmissionCreatedUpdatesCounters(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}
	ctx := context.Background()

	created := s.submissionCreated(7, 3, 0xB)
	applyAll(t, p, s.questCreated(3, 0xC), created)

	sub := getSubmission(t, db, 7)
	require.NotNil(t, sub)
	assert.Equal(t, schema.SubmissionCreated, sub.Status)
	assert.Equal(t, subKey(3), sub.QuestID)
	assert.Equal(t, testutil.Addr(0xB), sub.Submitter)
	assert.Empty(t, sub.TeamID)
	assert.Equal(t, "ipfs://sub", sub.ContentURI)
	assert.Equal(t, created.BlockTimestamp, sub.CreatedTimestamp)
	assert.Nil(t, sub.Score)

	// 处理器层面重复执行：计数不变
	require.NoError(t, SubmissionHandler{}.SubmissionCreated(ctx, storeOf(db), created))

	q := getQuest(t, db, 3)
	assert.EqualValues(t, 1, q.SubmissionCount)
	u, err := storeOf(db).Users.Get(ctx, testutil.Addr(0xB))
	require.NoError(t, err)
	assert.EqualValues(t, 1, u.SubmissionCount)
	stats, err := storeOf(db).Stats.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalSubmissions)
	assert.EqualValues(t, 1, stats.TotalQuests)
}

func TestLikeCountedOnce(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}
	ctx := context.Background()

	like := s.liked(7, 0xD)
	applyAll(t, p, s.questCreated(3, 0xC), s.submissionCreated(7, 3, 0xB), like)

	// 同一事件重复投递：检查点拦截
	out := applyAll(t, p, like)
	assert.True(t, out[0].Duplicate)

	// 绕过检查点直接重放处理器
	require.NoError(t, SubmissionHandler{}.SubmissionLiked(ctx, storeOf(db), like))

	// 同一用户的另一次点赞事件
	applyAll(t, p, s.liked(7, 0xD), s.liked(7, 0xE))

	var n int64
	require.NoError(t, db.Model(&schema.SubmissionLike{}).Where("liker = ?", testutil.Addr(0xD)).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 2, getSubmission(t, db, 7).LikeCount)
}

func TestWinnerSelectedTwiceKeepsSingleWinner(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}
	ctx := context.Background()

	win := s.winner(3, 7)
	applyAll(t, p, s.questCreated(3, 0xC), s.submissionCreated(7, 3, 0xB), win, s.winner(3, 7))
	require.NoError(t, SubmissionHandler{}.WinnerSelected(ctx, storeOf(db), win))

	q := getQuest(t, db, 3)
	assert.Equal(t, schema.JSONArray{testutil.Addr(0xB)}, q.Winners)

	sub := getSubmission(t, db, 7)
	assert.True(t, sub.IsWinner)
	assert.Equal(t, schema.SubmissionWinner, sub.Status)

	u, err := storeOf(db).Users.Get(ctx, testutil.Addr(0xB))
	require.NoError(t, err)
	assert.EqualValues(t, 1, u.QuestsCompleted)
}

func TestWinnerSelectedForWrongQuestIsDropped(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	out := applyAll(t, p,
		s.questCreated(3, 0xC),
		s.questCreated(4, 0xC),
		s.submissionCreated(7, 3, 0xB),
		s.winner(4, 7),
	)
	assert.True(t, out[3].Dropped)
	assert.False(t, getSubmission(t, db, 7).IsWinner)
	assert.Empty(t, getQuest(t, db, 4).Winners)
}

func TestStatusFlagsStayConsistent(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	check := func() {
		t.Helper()
		sub := getSubmission(t, db, 7)
		assert.Equal(t, sub.Status == schema.SubmissionWinner, sub.IsWinner, "status=%s", sub.Status)
		if sub.Status == schema.SubmissionApproved {
			assert.True(t, sub.IsApproved)
		}
		if sub.Status == schema.SubmissionRejected || sub.Status == schema.SubmissionCreated {
			assert.False(t, sub.IsApproved)
		}
	}

	applyAll(t, p, s.questCreated(3, 0xC), s.submissionCreated(7, 3, 0xB))
	check()
	applyAll(t, p, s.submissionUpdated(7, 1))
	check()
	assert.Equal(t, schema.SubmissionUnderReview, getSubmission(t, db, 7).Status)

	applyAll(t, p, s.reviewed(7, 0xE, 40, false))
	check()
	sub := getSubmission(t, db, 7)
	assert.Equal(t, schema.SubmissionRejected, sub.Status)
	require.NotNil(t, sub.Score)
	assert.EqualValues(t, 40, *sub.Score)

	// 后一次评审覆盖前一次
	applyAll(t, p, s.reviewed(7, 0xF, 90, true))
	check()
	sub = getSubmission(t, db, 7)
	assert.Equal(t, schema.SubmissionApproved, sub.Status)
	assert.EqualValues(t, 90, *sub.Score)
	assert.EqualValues(t, 2, sub.ReviewCount)

	applyAll(t, p, s.winner(3, 7))
	check()

	// WINNER 不降级
	applyAll(t, p, s.submissionUpdated(7, 3), s.reviewed(7, 0xE, 10, false))
	check()
	sub = getSubmission(t, db, 7)
	assert.Equal(t, schema.SubmissionWinner, sub.Status)
	assert.False(t, sub.IsApproved)
	assert.EqualValues(t, 10, *sub.Score)
}

func TestUnknownStatusCodeIgnored(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	applyAll(t, p, s.questCreated(3, 0xC), s.submissionCreated(7, 3, 0xB), s.submissionUpdated(7, 2))
	before := getSubmission(t, db, 7)

	out := applyAll(t, p, s.submissionUpdated(7, 9))
	assert.True(t, out[0].Dropped)
	assert.Equal(t, before, getSubmission(t, db, 7))
}

func TestReviewScoreOutOfRangeDropped(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	out := applyAll(t, p, s.questCreated(3, 0xC), s.submissionCreated(7, 3, 0xB), s.reviewed(7, 0xE, 101, true))
	assert.True(t, out[2].Dropped)

	var n int64
	require.NoError(t, db.Model(&schema.SubmissionReview{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Nil(t, getSubmission(t, db, 7).Score)
}

func TestCommentsAppendOnly(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	comment := func(by uint64, uri string) *testutil.EventBuilder {
		return s.next(ContractSubmissionManager, "SubmissionCommented").
			With("submissionId", "uint256", 7).
			With("commenter", "address", testutil.Addr(by)).
			With("contentURI", "string", uri)
	}
	applyAll(t, p,
		s.questCreated(3, 0xC),
		s.submissionCreated(7, 3, 0xB),
		comment(0xD, "ipfs://a").At(100).Build(),
		comment(0xD, "ipfs://b").At(200).Build(),
	)

	var comments []schema.SubmissionComment
	require.NoError(t, db.Order(schema.LedgerOrder).Find(&comments).Error)
	require.Len(t, comments, 2)
	assert.Equal(t, "ipfs://a", comments[0].ContentURI)
	assert.EqualValues(t, 2, getSubmission(t, db, 7).CommentCount)
}

func TestLaterReviewInSameBlockIsMirrored(t *testing.T) {
	p, db := newProjector(t)
	s := &stream{}

	review := func(score int, approved bool) event.Event {
		return s.next(ContractSubmissionManager, "SubmissionReviewed").
			With("submissionId", "uint256", 7).
			With("reviewer", "address", testutil.Addr(0xE)).
			With("score", "uint256", score).
			With("approved", "bool", approved).
			At(500).Build()
	}
	applyAll(t, p, s.questCreated(3, 0xC), s.submissionCreated(7, 3, 0xB))
	out := applyAll(t, p, review(90, true), review(10, false))
	assert.True(t, out[0].Applied)
	assert.True(t, out[1].Applied)

	sub := getSubmission(t, db, 7)
	require.NotNil(t, sub)
	assert.EqualValues(t, 10, *sub.Score)
	assert.False(t, sub.IsApproved)
	assert.Equal(t, schema.SubmissionRejected, sub.Status)
	assert.EqualValues(t, 1, sub.ReviewCount, "same review key counted once")
}
