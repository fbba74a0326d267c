package engagement

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/models"
	"github.com/vurse/backend/internal/points"
)

// Follow creates the follower → following edge. It is idempotent: following
// a user you already follow returns changed=false with no side effects.
// Self-follows are rejected.
func (e *Engine) Follow(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == "" || followingID == "" || followerID == followingID {
		return false, ErrInvalidID
	}
	target, err := e.users.GetByUserID(ctx, followingID)
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, ErrNotFound
	}

	added, err := e.follows.InsertIfAbsent(ctx, followerID, followingID, now())
	if err != nil {
		return false, fmt.Errorf("create follow: %w", err)
	}
	if !added {
		return false, nil
	}

	if err := e.users.AdjustCounter(ctx, followerID, db.CounterFollowing, 1); err != nil {
		return false, fmt.Errorf("adjust following count: %w", err)
	}
	if err := e.users.AdjustCounter(ctx, followingID, db.CounterFollowers, 1); err != nil {
		return false, fmt.Errorf("adjust follower count: %w", err)
	}
	if err := e.ledger.Award(ctx, followerID, followingID, "", points.FollowPoints, models.ReasonFollowedUser, "➕"); err != nil {
		return false, err
	}

	actor := e.actorFor(ctx, followerID)
	message := fmt.Sprintf("%s started following you", actor.Name)
	if err := e.notifier.Notify(ctx, followingID, actor, models.NotifyTypeFollow, message, "", ""); err != nil {
		e.logger.Warn("follow notification failed",
			zap.String("user_id", followingID),
			zap.Error(err))
	}

	e.cache.Invalidate(
		TagUserProfile+followerID,
		TagUserProfile+followingID,
		TagUserPoints+followerID,
	)
	return true, nil
}

// Unfollow removes the follower → following edge. Unfollowing someone you
// do not follow returns changed=false with no side effects.
func (e *Engine) Unfollow(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == "" || followingID == "" || followerID == followingID {
		return false, ErrInvalidID
	}

	removed, err := e.follows.DeleteIfPresent(ctx, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	if !removed {
		return false, nil
	}

	if err := e.users.AdjustCounter(ctx, followerID, db.CounterFollowing, -1); err != nil {
		return false, fmt.Errorf("adjust following count: %w", err)
	}
	if err := e.users.AdjustCounter(ctx, followingID, db.CounterFollowers, -1); err != nil {
		return false, fmt.Errorf("adjust follower count: %w", err)
	}
	if _, err := e.ledger.Revoke(ctx, followerID, followingID, models.ReasonFollowedUser); err != nil {
		return false, err
	}

	e.cache.Invalidate(
		TagUserProfile+followerID,
		TagUserProfile+followingID,
		TagUserPoints+followerID,
	)
	return true, nil
}

// IsFollowing reports whether the follower → following edge exists
func (e *Engine) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == "" || followingID == "" {
		return false, ErrInvalidID
	}
	return e.follows.Exists(ctx, followerID, followingID)
}

// Followers returns a page of users following userID, newest edge first
func (e *Engine) Followers(ctx context.Context, userID string, page, limit int) ([]*models.User, int64, error) {
	edges, total, err := e.follows.ListFollowers(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.FollowerID)
	}
	users, err := e.resolveUsers(ctx, ids)
	return users, total, err
}

// Following returns a page of users userID follows, newest edge first
func (e *Engine) Following(ctx context.Context, userID string, page, limit int) ([]*models.User, int64, error) {
	edges, total, err := e.follows.ListFollowing(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.FollowingID)
	}
	users, err := e.resolveUsers(ctx, ids)
	return users, total, err
}

// resolveUsers maps ids to user rows, preserving order and skipping ids
// whose account has since been removed.
func (e *Engine) resolveUsers(ctx context.Context, ids []string) ([]*models.User, error) {
	byID, err := e.users.GetByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := byID[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}
