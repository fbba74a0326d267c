package models

import (
	"time"
)

// User represents a platform account. TotalPoints is a cached rollup of the
// user's point_transactions rows; it is maintained incrementally and must
// equal the ledger sum at rest.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	UserID   string `gorm:"type:varchar(36);not null;uniqueIndex;column:user_id" json:"user_id"`
	Username string `gorm:"type:varchar(64);not null;column:username" json:"username"`
	Name     string `gorm:"type:varchar(128);column:name" json:"name"`
	Avatar   string `gorm:"type:varchar(512);column:avatar" json:"avatar,omitempty"`
	Bio      string `gorm:"type:text;column:bio" json:"bio,omitempty"`
	Email    string `gorm:"type:varchar(255);index;column:email" json:"email,omitempty"`
	Gender   string `gorm:"type:varchar(16);column:gender" json:"gender,omitempty"`

	TotalPoints    int64 `gorm:"not null;default:0;column:total_points" json:"total_points"`
	TotalFollowers int64 `gorm:"not null;default:0;column:total_followers" json:"total_followers"`
	TotalFollowing int64 `gorm:"not null;default:0;column:total_following" json:"total_following"`
	TotalBookmarks int64 `gorm:"not null;default:0;column:total_bookmarks" json:"total_bookmarks"`

	TotalStories  int64 `gorm:"not null;default:0;column:total_stories" json:"total_stories"`
	TotalJokes    int64 `gorm:"not null;default:0;column:total_jokes" json:"total_jokes"`
	TotalPoems    int64 `gorm:"not null;default:0;column:total_poems" json:"total_poems"`
	TotalQuotes   int64 `gorm:"not null;default:0;column:total_quotes" json:"total_quotes"`
	TotalFacts    int64 `gorm:"not null;default:0;column:total_facts" json:"total_facts"`
	TotalRiddles  int64 `gorm:"not null;default:0;column:total_riddles" json:"total_riddles"`
	TotalArticles int64 `gorm:"not null;default:0;column:total_articles" json:"total_articles"`

	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
