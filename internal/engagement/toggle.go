package engagement

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/models"
	"github.com/vurse/backend/internal/points"
)

// ToggleResult reports the reaction state after a toggle
type ToggleResult struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// Toggle flips the (user, post, kind) reaction. One call with no prior
// reaction creates it; one call with an existing reaction removes it. The
// flip itself is a single atomic insert-if-absent or delete-if-present, so
// concurrent toggles of the same key settle into a consistent state without
// locks. When both primitives report no change the toggle lost its race to
// a concurrent request; it retries the whole decision once and then gives
// up with ErrConflict.
func (e *Engine) Toggle(ctx context.Context, userID, postID string, kind models.ReactionKind) (*ToggleResult, error) {
	if userID == "" || !kind.Valid() {
		return nil, ErrInvalidID
	}
	post, err := e.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		added, err := e.reactions.InsertIfAbsent(ctx, userID, postID, kind, now())
		if err != nil {
			return nil, fmt.Errorf("insert reaction: %w", err)
		}
		if added {
			return e.reactionAdded(ctx, userID, post, kind)
		}

		removed, err := e.reactions.DeleteIfPresent(ctx, userID, postID, kind)
		if err != nil {
			return nil, fmt.Errorf("delete reaction: %w", err)
		}
		if removed {
			return e.reactionRemoved(ctx, userID, post, kind)
		}

		// A concurrent toggle removed the row between our failed insert
		// and our failed delete. Go around once more.
		e.logger.Debug("toggle lost race, retrying",
			zap.String("user_id", userID),
			zap.String("post_id", postID),
			zap.String("kind", string(kind)))
	}

	return nil, ErrConflict
}

func (e *Engine) reactionAdded(ctx context.Context, userID string, post *models.Post, kind models.ReactionKind) (*ToggleResult, error) {
	count, err := e.posts.IncStat(ctx, post.ID, statColumn(kind))
	if err != nil {
		return nil, fmt.Errorf("increment %s count: %w", kind, err)
	}

	switch kind {
	case models.ReactionHeart:
		if err := e.ledger.Award(ctx, userID, post.ID, post.ID, points.HeartPoints, models.ReasonHeartedPost, "❤️"); err != nil {
			return nil, err
		}
		actor := e.actorFor(ctx, userID)
		message := fmt.Sprintf("%s hearted your post", actor.Name)
		if err := e.notifier.Notify(ctx, post.AuthorUserID, actor, models.NotifyTypeHeart, message, post.ID, ""); err != nil {
			// The reaction stands; the recipient just misses the ping.
			e.logger.Warn("heart notification failed",
				zap.String("post_id", post.ID),
				zap.Error(err))
		}
		e.cache.Invalidate(TagUserPoints + userID)
	case models.ReactionBookmark:
		if err := e.users.AdjustCounter(ctx, userID, db.CounterBookmarks, 1); err != nil {
			return nil, fmt.Errorf("adjust bookmark count: %w", err)
		}
		e.cache.Invalidate(TagBookmarks+userID, TagUserProfile+userID)
	}

	e.invalidateFeeds(post.ID)
	return &ToggleResult{Active: true, Count: count}, nil
}

func (e *Engine) reactionRemoved(ctx context.Context, userID string, post *models.Post, kind models.ReactionKind) (*ToggleResult, error) {
	count, err := e.posts.DecStatClamped(ctx, post.ID, statColumn(kind))
	if err != nil {
		return nil, fmt.Errorf("decrement %s count: %w", kind, err)
	}

	switch kind {
	case models.ReactionHeart:
		if _, err := e.ledger.Revoke(ctx, userID, post.ID, models.ReasonHeartedPost); err != nil {
			return nil, err
		}
		e.cache.Invalidate(TagUserPoints + userID)
	case models.ReactionBookmark:
		if err := e.users.AdjustCounter(ctx, userID, db.CounterBookmarks, -1); err != nil {
			return nil, fmt.Errorf("adjust bookmark count: %w", err)
		}
		e.cache.Invalidate(TagBookmarks+userID, TagUserProfile+userID)
	}

	e.invalidateFeeds(post.ID)
	return &ToggleResult{Active: false, Count: count}, nil
}

func statColumn(kind models.ReactionKind) db.StatColumn {
	if kind == models.ReactionBookmark {
		return db.StatBookmarks
	}
	return db.StatHearts
}
