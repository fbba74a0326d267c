package models

import (
	"time"
)

// Point transaction types
const (
	PointTypeEarned = "earned"
)

// Point reasons. Reversal looks transactions up by (user, source, reason),
// so these strings are part of the ledger contract, not display text.
const (
	ReasonHeartedPost   = "Hearted post"
	ReasonPostedComment = "Posted comment"
	ReasonFollowedUser  = "Followed user"
	ReasonCreatedPost   = "Created post"
	ReasonRegistration  = "Registration bonus"
)

// PointTransaction is one append-only entry in the points ledger. Points is
// always positive; Type carries the sign semantics. SourceID references the
// entity that triggered the grant (post, comment or followed user) so a
// reversal can find the matching row; it is empty for one-time grants like
// the registration bonus. PostID additionally groups every row attached to a
// post (including comment grants) so a post deletion can claw them back.
type PointTransaction struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index;column:user_id" json:"user_id"`
	SourceID  string    `gorm:"type:varchar(36);index;column:source_id" json:"source_id,omitempty"`
	PostID    string    `gorm:"type:varchar(36);index;column:post_id" json:"post_id,omitempty"`
	Type      string    `gorm:"type:varchar(16);not null;column:type" json:"type"`
	Icon      string    `gorm:"type:varchar(16);column:icon" json:"icon,omitempty"`
	Points    int64     `gorm:"not null;column:points" json:"points"`
	Reason    string    `gorm:"type:varchar(64);not null;column:reason" json:"reason"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for PointTransaction
func (PointTransaction) TableName() string {
	return "point_transactions"
}
