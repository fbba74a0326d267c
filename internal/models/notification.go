package models

import (
	"time"
)

// Notification types
const (
	NotifyTypeHeart   = "heart"
	NotifyTypeComment = "comment"
	NotifyTypeFollow  = "follow"
)

// Notification is the persisted record of an event addressed to a user. It
// is written independently of the live fan-out and survives regardless of
// whether any connection was live at push time. Creation is deliberately not
// idempotent: re-hearting after un-hearting produces a second row.
type Notification struct {
	ID        string    `gorm:"type:varchar(36);primaryKey;column:id" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index:idx_notif_user_created;column:user_id" json:"user_id"`
	ActorID   string    `gorm:"type:varchar(36);not null;column:actor_id" json:"actor_id"`
	PostID    string    `gorm:"type:varchar(36);column:post_id" json:"post_id,omitempty"`
	CommentID string    `gorm:"type:varchar(36);column:comment_id" json:"comment_id,omitempty"`
	Type      string    `gorm:"type:varchar(16);not null;column:type" json:"type"`
	Message   string    `gorm:"type:varchar(255);not null;column:message" json:"message"`
	IsRead    bool      `gorm:"not null;default:false;column:is_read" json:"is_read"`
	CreatedAt time.Time `gorm:"not null;index:idx_notif_user_created,sort:desc;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "user_notifications"
}
