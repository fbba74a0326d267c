// Package notify delivers engagement notifications: rows persisted for the
// inbox plus best-effort pushes to live connections.
package notify

import (
	"time"
)

// Actor identifies the user whose action triggered an event
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Event is the payload pushed to a recipient's live connections. It mirrors
// the persisted notification row so clients render pushes and inbox entries
// the same way.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Actor     Actor     `json:"actor"`
	PostID    string    `json:"post_id,omitempty"`
	CommentID string    `json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
