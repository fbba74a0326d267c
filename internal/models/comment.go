package models

import (
	"time"
)

// Comment represents a comment on a post. Comments have an independent
// lifecycle: deleting one decrements the parent's comment counter and
// reverses the point grant tied to it.
type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey;column:id" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;index;column:post_id" json:"post_id"`
	UserID    string    `gorm:"type:varchar(36);not null;index;column:user_id" json:"user_id"`
	Text      string    `gorm:"type:text;not null;column:text" json:"text"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "post_comments"
}
