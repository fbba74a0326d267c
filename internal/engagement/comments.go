package engagement

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/models"
	"github.com/vurse/backend/internal/points"
)

// AddComment creates a comment on a post, bumps the comment counter, grants
// points to the commenter and notifies the post author.
func (e *Engine) AddComment(ctx context.Context, userID, postID, text string) (*models.Comment, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}
	text = strings.TrimSpace(text)
	if text == "" || len(text) > e.maxCommentLength {
		return nil, ErrInvalidID
	}
	post, err := e.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		UserID:    userID,
		Text:      text,
		CreatedAt: now(),
	}
	if err := e.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if _, err := e.posts.IncStat(ctx, post.ID, db.StatComments); err != nil {
		return nil, fmt.Errorf("increment comment count: %w", err)
	}
	if err := e.ledger.Award(ctx, userID, comment.ID, post.ID, points.CommentPoints, models.ReasonPostedComment, "💬"); err != nil {
		return nil, err
	}

	actor := e.actorFor(ctx, userID)
	message := fmt.Sprintf("%s commented on your post", actor.Name)
	if err := e.notifier.Notify(ctx, post.AuthorUserID, actor, models.NotifyTypeComment, message, post.ID, comment.ID); err != nil {
		e.logger.Warn("comment notification failed",
			zap.String("post_id", post.ID),
			zap.Error(err))
	}

	e.cache.Invalidate(TagPostComments+post.ID, TagUserPoints+userID)
	e.invalidateFeeds(post.ID)
	return comment, nil
}

// DeleteComment removes the caller's comment, reverses its counter bump and
// claws back its point grant. Only the comment author may delete it.
func (e *Engine) DeleteComment(ctx context.Context, userID, commentID string) error {
	if userID == "" || commentID == "" {
		return ErrInvalidID
	}
	comment, err := e.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return ErrNotFound
	}
	if comment.UserID != userID {
		return ErrForbidden
	}

	removed, err := e.comments.Delete(ctx, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if !removed {
		// A concurrent delete won; nothing left to reverse.
		return nil
	}
	if _, err := e.posts.DecStatClamped(ctx, comment.PostID, db.StatComments); err != nil {
		return fmt.Errorf("decrement comment count: %w", err)
	}
	if _, err := e.ledger.Revoke(ctx, userID, commentID, models.ReasonPostedComment); err != nil {
		return err
	}

	e.cache.Invalidate(TagPostComments+comment.PostID, TagUserPoints+userID)
	e.invalidateFeeds(comment.PostID)
	return nil
}

// ListComments returns a page of a post's comments, newest first. Results
// are cached per post until the next comment write.
func (e *Engine) ListComments(ctx context.Context, postID string, page, limit int) ([]*models.Comment, int64, error) {
	if _, err := e.getPost(ctx, postID); err != nil {
		return nil, 0, err
	}

	type commentPage struct {
		Comments []*models.Comment
		Total    int64
	}
	result, err := e.cache.Do(ctx, commentListTTL, []string{TagPostComments + postID}, "comments.list",
		[]interface{}{postID, page, limit},
		func(ctx context.Context) (interface{}, error) {
			comments, total, err := e.comments.ListForPost(ctx, postID, page, limit)
			if err != nil {
				return nil, err
			}
			return &commentPage{Comments: comments, Total: total}, nil
		})
	if err != nil {
		return nil, 0, err
	}
	cp := result.(*commentPage)
	return cp.Comments, cp.Total, nil
}
