package schema

// RoleEventKind 角色事件类型，三者互斥
type RoleEventKind string

const (
	RoleGranted      RoleEventKind = "GRANTED"
	RoleRevoked      RoleEventKind = "REVOKED"
	RoleAdminChanged RoleEventKind = "ADMIN_CHANGED"
)

// RoleEvent 角色变更审计记录
// 以 (tx hash, log index) 为键，只追加、不去重：每次出现都是独立事实。
// 当前角色成员关系不在这里维护，由下游扫描审计流得出。
type RoleEvent struct {
	ID                string        `gorm:"primaryKey;size:80" json:"id"`
	Contract          string        `gorm:"size:64;index;not null" json:"contract"`
	Kind              RoleEventKind `gorm:"size:20;index;not null" json:"kind"`
	Role              string        `gorm:"size:66;index;not null" json:"role"`
	Account           string        `gorm:"size:42;index" json:"account,omitempty"`
	Sender            string        `gorm:"size:42" json:"sender,omitempty"`
	PreviousAdminRole string        `gorm:"size:66" json:"previous_admin_role,omitempty"`
	NewAdminRole      string        `gorm:"size:66" json:"new_admin_role,omitempty"`
	LedgerRef         `gorm:"embedded"`
}

func (RoleEvent) TableName() string {
	return "role_events"
}

// PauseEvent 暂停/恢复审计记录，只追加
type PauseEvent struct {
	ID        string `gorm:"primaryKey;size:80" json:"id"`
	Contract  string `gorm:"size:64;index;not null" json:"contract"`
	Account   string `gorm:"size:42;index;not null" json:"account"`
	Paused    bool   `gorm:"not null" json:"paused"`
	LedgerRef `gorm:"embedded"`
}

func (PauseEvent) TableName() string {
	return "pause_events"
}
