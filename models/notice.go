package models

import (
	"time"
)

const (
	NoticeGeneral      = "GENERAL"
	NoticeStoreManager = "STORE_MANAGER"
	NoticeMemberOnly   = "MEMBER_ONLY"
)

const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Notice is an announcement scoped to an audience (everyone, store managers
// or regular members).
type Notice struct {
	ID         string `json:"id" gorm:"primaryKey"`
	Title      string `json:"title" gorm:"not null"`
	Content    string `json:"content" gorm:"type:text;not null"`
	NoticeType string `json:"notice_type" gorm:"type:varchar(16);default:'GENERAL';index"`
	Priority   string `json:"priority" gorm:"type:varchar(8);default:'NORMAL'"`
	AuthorID   string `json:"author_id" gorm:"index;not null"`

	IsPublished bool `json:"is_published" gorm:"default:true"`
	IsPinned    bool `json:"is_pinned" gorm:"default:false"`
	ZOrder      int  `json:"z_order" gorm:"default:0"`
	ViewCount   int  `json:"view_count" gorm:"default:0"`

	AttachmentURL string     `json:"attachment_url,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Author User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

// VisibleTo reports whether a user with the given role should see the notice.
func (n *Notice) VisibleTo(role UserRole) bool {
	if !n.IsPublished {
		return false
	}
	switch n.NoticeType {
	case NoticeStoreManager:
		return role == RoleStoreOwner || role == RoleAdmin
	case NoticeMemberOnly:
		return role == RoleUser || role == RoleAdmin
	default:
		return true
	}
}

// InWindow reports whether the notice is inside its publish window.
func (n *Notice) InWindow(now time.Time) bool {
	if n.StartDate != nil && now.Before(*n.StartDate) {
		return false
	}
	if n.EndDate != nil && now.After(*n.EndDate) {
		return false
	}
	return true
}
