package models

import (
	"time"
)

// ReactionKind identifies the kind of a presence-based reaction.
type ReactionKind string

// Reaction kinds
const (
	ReactionHeart    ReactionKind = "heart"
	ReactionBookmark ReactionKind = "bookmark"
)

// Valid reports whether k is a known reaction kind.
func (k ReactionKind) Valid() bool {
	return k == ReactionHeart || k == ReactionBookmark
}

// Reaction is a presence-based association between a user and a post. The
// existence of the row is the "on" state; there is no boolean toggle field.
// The unique (user, post, kind) index is the store-level invariant the
// toggle engine's insert-if-absent primitive relies on.
type Reaction struct {
	ID        int64        `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	UserID    string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_reaction_key;column:user_id" json:"user_id"`
	PostID    string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_reaction_key;index;column:post_id" json:"post_id"`
	Kind      ReactionKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_reaction_key;column:kind" json:"kind"`
	CreatedAt time.Time    `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Reaction
func (Reaction) TableName() string {
	return "post_reactions"
}
