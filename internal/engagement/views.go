package engagement

import (
	"context"
	"fmt"

	"github.com/vurse/backend/internal/db"
)

// RecordView counts a (user, post) view once. Repeat views by the same user
// leave the counter untouched and return counted=false.
func (e *Engine) RecordView(ctx context.Context, userID, postID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidID
	}
	post, err := e.getPost(ctx, postID)
	if err != nil {
		return false, err
	}

	first, err := e.views.InsertIfAbsent(ctx, userID, post.ID, now())
	if err != nil {
		return false, fmt.Errorf("record view: %w", err)
	}
	if !first {
		return false, nil
	}

	if _, err := e.posts.IncStat(ctx, post.ID, db.StatViews); err != nil {
		return false, fmt.Errorf("increment view count: %w", err)
	}
	e.cache.Invalidate(TagPost + post.ID)
	return true, nil
}
