package models

import (
	"time"
)

// Post type constants
const (
	PostTypeStory   = "story"
	PostTypeJoke    = "joke"
	PostTypePoem    = "poem"
	PostTypeQuote   = "quote"
	PostTypeFact    = "fact"
	PostTypeRiddle  = "riddle"
	PostTypeArticle = "article"
)

// PostStats holds the denormalized engagement counters on a post. The
// counters are updated atomically in the store, never recomputed from the
// reaction rows on the hot path.
type PostStats struct {
	Views     int64 `gorm:"not null;default:0;column:views" json:"views"`
	Hearts    int64 `gorm:"not null;default:0;column:hearts" json:"hearts"`
	Comments  int64 `gorm:"not null;default:0;column:comments" json:"comments"`
	Bookmarks int64 `gorm:"not null;default:0;column:bookmarks" json:"bookmarks"`
	Shares    int64 `gorm:"not null;default:0;column:shares" json:"shares"`
}

// Post represents a piece of content
type Post struct {
	ID           string    `gorm:"type:varchar(36);primaryKey;column:id" json:"id"`
	Type         string    `gorm:"type:varchar(16);not null;index;column:type" json:"type"`
	AuthorUserID string    `gorm:"type:varchar(36);not null;index;column:author_user_id" json:"author_user_id"`
	Title        string    `gorm:"type:varchar(255);column:title" json:"title"`
	Image        string    `gorm:"type:varchar(512);column:image" json:"image,omitempty"`
	Content      string    `gorm:"type:text;column:content" json:"content"`
	IsDraft      bool      `gorm:"not null;default:false;column:is_draft" json:"is_draft"`
	IsAnonymous  bool      `gorm:"not null;default:false;column:is_anonymous" json:"is_anonymous"`
	Is18Plus     bool      `gorm:"not null;default:false;column:is_18_plus" json:"is_18_plus"`
	Stats        PostStats `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	CreatedAt    time.Time `gorm:"not null;index;column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// PostView records that a user has seen a post. The unique (user, post) pair
// makes the view counter increment at most once per user.
type PostView struct {
	ID       int64     `gorm:"primaryKey;autoIncrement;column:id"`
	UserID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_view_user_post;column:user_id"`
	PostID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_view_user_post;column:post_id"`
	ViewedAt time.Time `gorm:"not null;column:viewed_at"`
}

// TableName specifies the table name for PostView
func (PostView) TableName() string {
	return "post_views"
}
