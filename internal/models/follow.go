package models

import (
	"time"
)

// Follow represents a follower → following edge between two users.
type Follow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	FollowerID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair;index;column:follower_id" json:"follower_id"`
	FollowingID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair;index;column:following_id" json:"following_id"`
	FollowedAt  time.Time `gorm:"not null;column:followed_at" json:"followed_at"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "user_follows"
}
