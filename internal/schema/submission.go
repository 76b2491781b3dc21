package schema

// SubmissionStatus 提交状态
type SubmissionStatus string

const (
	SubmissionCreated     SubmissionStatus = "CREATED"
	SubmissionUnderReview SubmissionStatus = "UNDER_REVIEW"
	SubmissionApproved    SubmissionStatus = "APPROVED"
	SubmissionRejected    SubmissionStatus = "REJECTED"
	SubmissionWinner      SubmissionStatus = "WINNER"
)

// SubmissionStatusFromCode 合约状态码 -> 枚举；未知状态码返回 false（向前兼容，直接忽略）
func SubmissionStatusFromCode(code uint64) (SubmissionStatus, bool) {
	switch code {
	case 0:
		return SubmissionCreated, true
	case 1:
		return SubmissionUnderReview, true
	case 2:
		return SubmissionApproved, true
	case 3:
		return SubmissionRejected, true
	case 4:
		return SubmissionWinner, true
	}
	return "", false
}

// Submission 提交投影
// 不变量：IsWinner == (Status == WINNER)；WINNER 一旦设置不会回退。
type Submission struct {
	ID                string           `gorm:"primaryKey;size:66" json:"id"`
	Number            string           `gorm:"size:78;not null" json:"number"`
	QuestID           string           `gorm:"size:66;index;not null" json:"quest_id"`
	Submitter         string           `gorm:"size:42;index;not null" json:"submitter"`
	TeamID            string           `gorm:"size:66" json:"team_id,omitempty"`
	ContentURI        string           `gorm:"size:500" json:"content_uri,omitempty"`
	Status            SubmissionStatus `gorm:"size:20;index;not null" json:"status"`
	Score             *int64           `json:"score"`
	IsApproved        bool             `gorm:"not null" json:"is_approved"`
	IsWinner          bool             `gorm:"not null" json:"is_winner"`
	LikeCount         int64            `gorm:"not null" json:"like_count"`
	CommentCount      int64            `gorm:"not null" json:"comment_count"`
	ReviewCount       int64            `gorm:"not null" json:"review_count"`
	CreatedTimestamp  int64            `gorm:"not null" json:"created_timestamp"`
	UpdatedTimestamp  int64            `gorm:"not null" json:"updated_timestamp"`
	ReviewedTimestamp *int64           `json:"reviewed_timestamp"`
}

func (Submission) TableName() string {
	return "submissions"
}

// NewSubmission 零值提交，初始状态 CREATED
func NewSubmission(id string) *Submission {
	return &Submission{ID: id, Status: SubmissionCreated}
}

// SetStatus 按状态机切换状态并同步 IsApproved/IsWinner
// 已是 WINNER 时拒绝降级，返回 false。
func (s *Submission) SetStatus(status SubmissionStatus) bool {
	if s.Status == SubmissionWinner && status != SubmissionWinner {
		return false
	}
	s.Status = status
	switch status {
	case SubmissionApproved:
		s.IsApproved = true
	case SubmissionCreated, SubmissionUnderReview, SubmissionRejected:
		s.IsApproved = false
	}
	s.IsWinner = status == SubmissionWinner
	return true
}

// ApplyReview 最新评审覆盖分数与通过标记；WINNER 状态保持不变
func (s *Submission) ApplyReview(score int64, approved bool, ts int64) {
	s.Score = &score
	reviewed := ts
	s.ReviewedTimestamp = &reviewed
	s.UpdatedTimestamp = ts
	if s.Status == SubmissionWinner {
		s.IsApproved = approved
		return
	}
	if approved {
		s.SetStatus(SubmissionApproved)
	} else {
		s.SetStatus(SubmissionRejected)
	}
}

// SubmissionLike 点赞，(submission, liker) 唯一
type SubmissionLike struct {
	ID           string `gorm:"primaryKey;size:120" json:"id"`
	SubmissionID string `gorm:"size:66;index;not null" json:"submission_id"`
	Liker        string `gorm:"size:42;not null" json:"liker"`
	LedgerRef    `gorm:"embedded"`
}

func (SubmissionLike) TableName() string {
	return "submission_likes"
}

// SubmissionComment 评论，只追加
type SubmissionComment struct {
	ID           string `gorm:"primaryKey;size:140" json:"id"`
	SubmissionID string `gorm:"size:66;index;not null" json:"submission_id"`
	Commenter    string `gorm:"size:42;not null" json:"commenter"`
	ContentURI   string `gorm:"size:500" json:"content_uri,omitempty"`
	LedgerRef    `gorm:"embedded"`
}

func (SubmissionComment) TableName() string {
	return "submission_comments"
}

// SubmissionReview 评审，只追加；提交上的分数镜像最近一次评审
type SubmissionReview struct {
	ID           string `gorm:"primaryKey;size:140" json:"id"`
	SubmissionID string `gorm:"size:66;index;not null" json:"submission_id"`
	Reviewer     string `gorm:"size:42;not null" json:"reviewer"`
	Score        int64  `gorm:"not null" json:"score"`
	Approved     bool   `gorm:"not null" json:"approved"`
	LedgerRef    `gorm:"embedded"`
}

func (SubmissionReview) TableName() string {
	return "submission_reviews"
}
