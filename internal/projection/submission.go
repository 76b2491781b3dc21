package projection

import (
	"context"

	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/ids"
	"github.com/yuqie6/QuestIndexer/internal/schema"
)

const maxReviewScore = 100

// SubmissionHandler 提交生命周期与社交事实（点赞、评论、评审、获胜）
//
// 所有计数都以“记录首次写入”或“状态真正发生变化”为前提，重复投递同一事件不会重复累加。
type SubmissionHandler struct{}

func (h SubmissionHandler) Register(r *Registry) {
	r.Handle(ContractSubmissionManager, "SubmissionCreated", h.SubmissionCreated)
	r.Handle(ContractSubmissionManager, "SubmissionUpdated", h.SubmissionUpdated)
	r.Handle(ContractSubmissionManager, "SubmissionLiked", h.SubmissionLiked)
	r.Handle(ContractSubmissionManager, "SubmissionCommented", h.SubmissionCommented)
	r.Handle(ContractSubmissionManager, "SubmissionReviewed", h.SubmissionReviewed)
	r.Handle(ContractSubmissionManager, "WinnerSelected", h.WinnerSelected)
}

// loadSubmission 父提交必须已存在，缺失即跳过
func loadSubmission(ctx context.Context, s Store, evt event.Event) (*schema.Submission, error) {
	n, err := evt.BigInt("submissionId")
	if err != nil {
		return nil, err
	}
	key := ids.NumericKey(n)
	sub, err := s.Submissions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, skipf("提交不存在: %s", n)
	}
	return sub, nil
}

// SubmissionCreated 任务必须已存在；不为缺失的任务创建占位记录
func (SubmissionHandler) SubmissionCreated(ctx context.Context, s Store, evt event.Event) error {
	n, err := evt.BigInt("submissionId")
	if err != nil {
		return err
	}
	questKey, err := questKey(evt)
	if err != nil {
		return err
	}
	submitter, err := evt.Address("submitter")
	if err != nil {
		return err
	}
	var teamID string
	if _, ok := evt.Param("teamId"); ok {
		team, err := evt.BigInt("teamId")
		if err != nil {
			return err
		}
		if team.Sign() > 0 {
			teamID = ids.NumericKey(team)
		}
	}

	q, err := s.Quests.Get(ctx, questKey)
	if err != nil {
		return err
	}
	if q == nil {
		return skipf("任务不存在: %s", questKey)
	}

	sub, created, err := s.Submissions.GetOrCreate(ctx, ids.NumericKey(n))
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	sub.Number = n.String()
	sub.QuestID = q.ID
	sub.Submitter = submitter
	sub.TeamID = teamID
	sub.ContentURI = evt.OptionalText("contentURI")
	sub.CreatedTimestamp = evt.BlockTimestamp
	sub.UpdatedTimestamp = evt.BlockTimestamp
	if err := s.Submissions.Put(ctx, sub); err != nil {
		return err
	}

	q.SubmissionCount++
	if err := s.Quests.Put(ctx, q); err != nil {
		return err
	}

	u, _, err := s.Users.GetOrCreate(ctx, submitter)
	if err != nil {
		return err
	}
	u.SubmissionCount++
	if err := s.Users.Put(ctx, u); err != nil {
		return err
	}
	return s.updateStats(ctx, func(st *schema.PlatformStats) {
		st.TotalSubmissions++
	})
}

// SubmissionUpdated 状态码 -> 枚举；未知状态码忽略，WINNER 不降级
func (SubmissionHandler) SubmissionUpdated(ctx context.Context, s Store, evt event.Event) error {
	code, err := evt.BigInt("status")
	if err != nil {
		return err
	}
	sub, err := loadSubmission(ctx, s, evt)
	if err != nil {
		return err
	}
	if !code.IsUint64() {
		return skipf("未知提交状态码: %s", code)
	}
	status, ok := schema.SubmissionStatusFromCode(code.Uint64())
	if !ok {
		return skipf("未知提交状态码: %s", code)
	}
	if !sub.SetStatus(status) {
		return nil
	}
	sub.UpdatedTimestamp = evt.BlockTimestamp
	return s.Submissions.Put(ctx, sub)
}

// SubmissionLiked (submission, liker) 唯一；仅首次写入点赞记录时累加计数
func (SubmissionHandler) SubmissionLiked(ctx context.Context, s Store, evt event.Event) error {
	liker, err := evt.Address("liker")
	if err != nil {
		return err
	}
	sub, err := loadSubmission(ctx, s, evt)
	if err != nil {
		return err
	}

	created, err := s.Likes.Insert(ctx, &schema.SubmissionLike{
		ID:           ids.LikeKey(sub.ID, liker),
		SubmissionID: sub.ID,
		Liker:        liker,
		LedgerRef:    evt.Ledger(),
	})
	if err != nil || !created {
		return err
	}
	sub.LikeCount++
	return s.Submissions.Put(ctx, sub)
}

// SubmissionCommented 只追加
func (SubmissionHandler) SubmissionCommented(ctx context.Context, s Store, evt event.Event) error {
	commenter, err := evt.Address("commenter")
	if err != nil {
		return err
	}
	sub, err := loadSubmission(ctx, s, evt)
	if err != nil {
		return err
	}

	created, err := s.Comments.Insert(ctx, &schema.SubmissionComment{
		ID:           ids.CommentKey(sub.ID, commenter, evt.BlockTimestamp),
		SubmissionID: sub.ID,
		Commenter:    commenter,
		ContentURI:   evt.OptionalText("contentURI"),
		LedgerRef:    evt.Ledger(),
	})
	if err != nil || !created {
		return err
	}
	sub.CommentCount++
	return s.Submissions.Put(ctx, sub)
}

// SubmissionReviewed 追加评审记录，并把分数与通过标记镜像到提交上
func (SubmissionHandler) SubmissionReviewed(ctx context.Context, s Store, evt event.Event) error {
	reviewer, err := evt.Address("reviewer")
	if err != nil {
		return err
	}
	score, err := evt.Int64("score")
	if err != nil {
		return err
	}
	if score > maxReviewScore {
		return skipf("评审分数越界: %d", score)
	}
	approved, err := evt.Bool("approved")
	if err != nil {
		return err
	}
	sub, err := loadSubmission(ctx, s, evt)
	if err != nil {
		return err
	}

	created, err := s.Reviews.Insert(ctx, &schema.SubmissionReview{
		ID:           ids.ReviewKey(sub.ID, reviewer, evt.BlockTimestamp),
		SubmissionID: sub.ID,
		Reviewer:     reviewer,
		Score:        score,
		Approved:     approved,
		LedgerRef:    evt.Ledger(),
	})
	if err != nil {
		return err
	}
	// 同一键的评审只计数一次，但提交始终镜像最近一次评审
	if created {
		sub.ReviewCount++
	}
	sub.ApplyReview(score, approved, evt.BlockTimestamp)
	return s.Submissions.Put(ctx, sub)
}

// WinnerSelected 提交置为 WINNER；提交者只在首次进入获胜者列表时计入完成任务数
func (SubmissionHandler) WinnerSelected(ctx context.Context, s Store, evt event.Event) error {
	questKey, err := questKey(evt)
	if err != nil {
		return err
	}
	q, err := s.Quests.Get(ctx, questKey)
	if err != nil {
		return err
	}
	if q == nil {
		return skipf("任务不存在: %s", questKey)
	}
	sub, err := loadSubmission(ctx, s, evt)
	if err != nil {
		return err
	}
	if sub.QuestID != q.ID {
		return skipf("提交 %s 不属于任务 %s", sub.Number, questKey)
	}

	if sub.Status != schema.SubmissionWinner {
		sub.SetStatus(schema.SubmissionWinner)
		sub.UpdatedTimestamp = evt.BlockTimestamp
		if err := s.Submissions.Put(ctx, sub); err != nil {
			return err
		}
	}

	if !q.Winners.Add(sub.Submitter) {
		return nil
	}
	q.UpdatedTimestamp = evt.BlockTimestamp
	if err := s.Quests.Put(ctx, q); err != nil {
		return err
	}

	u, _, err := s.Users.GetOrCreate(ctx, sub.Submitter)
	if err != nil {
		return err
	}
	u.QuestsCompleted++
	return s.Users.Put(ctx, u)
}
