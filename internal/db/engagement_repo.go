package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vurse/backend/internal/models"
)

// ReactionRepository provides reaction-related database operations. The
// insert-if-absent / delete-if-present pair is the atomic primitive the
// toggle engine builds on: both report whether they actually changed a row,
// with no read-modify-write gap.
type ReactionRepository struct {
	*Repository
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(repo *Repository) *ReactionRepository {
	return &ReactionRepository{Repository: repo}
}

// InsertIfAbsent inserts a reaction row keyed by (user, post, kind) unless
// one already exists, relying on the unique index plus ON CONFLICT DO
// NOTHING. Returns true only when this call created the row.
func (r *ReactionRepository) InsertIfAbsent(ctx context.Context, userID, postID string, kind models.ReactionKind, at time.Time) (bool, error) {
	reaction := &models.Reaction{
		UserID:    userID,
		PostID:    postID,
		Kind:      kind,
		CreatedAt: at,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reaction)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteIfPresent removes the reaction row keyed by (user, post, kind).
// Returns true only when this call removed a row.
func (r *ReactionRepository) DeleteIfPresent(ctx context.Context, userID, postID string, kind models.ReactionKind) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ? AND kind = ?", userID, postID, kind).
		Delete(&models.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListForPost returns a page of reactions of one kind on a post, newest
// first, plus the total count.
func (r *ReactionRepository) ListForPost(ctx context.Context, postID string, kind models.ReactionKind, page, limit int) ([]*models.Reaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("post_id = ? AND kind = ?", postID, kind).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reactions []*models.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND kind = ?", postID, kind).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reactions).Error
	if err != nil {
		return nil, 0, err
	}
	return reactions, total, nil
}

// ReactedPostIDs returns which of the given posts the user has a reaction of
// the given kind on.
func (r *ReactionRepository) ReactedPostIDs(ctx context.Context, userID string, kind models.ReactionKind, postIDs []string) (map[string]bool, error) {
	if len(postIDs) == 0 {
		return map[string]bool{}, nil
	}
	var reactions []*models.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND post_id IN ?", userID, kind, postIDs).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	reacted := make(map[string]bool, len(reactions))
	for _, re := range reactions {
		reacted[re.PostID] = true
	}
	return reacted, nil
}

// ListBookmarked returns a page of the user's bookmark reactions, newest
// first, plus the total count.
func (r *ReactionRepository) ListBookmarked(ctx context.Context, userID string, page, limit int) ([]*models.Reaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("user_id = ? AND kind = ?", userID, models.ReactionBookmark).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reactions []*models.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, models.ReactionBookmark).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reactions).Error
	if err != nil {
		return nil, 0, err
	}
	return reactions, total, nil
}

// DeleteForPost removes every reaction row referencing a post
func (r *ReactionRepository) DeleteForPost(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Reaction{}).Error
}

// ViewRepository provides post-view tracking operations
type ViewRepository struct {
	*Repository
}

// NewViewRepository creates a new view repository
func NewViewRepository(repo *Repository) *ViewRepository {
	return &ViewRepository{Repository: repo}
}

// InsertIfAbsent records a (user, post) view unless one exists. Returns true
// only on the first view.
func (r *ViewRepository) InsertIfAbsent(ctx context.Context, userID, postID string, at time.Time) (bool, error) {
	view := &models.PostView{
		UserID:   userID,
		PostID:   postID,
		ViewedAt: at,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(view)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteForPost removes every view row referencing a post
func (r *ViewRepository) DeleteForPost(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.PostView{}).Error
}

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// Delete removes a comment row; returns true when a row was removed.
func (r *CommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListForPost returns a page of comments on a post, newest first, plus the
// total count.
func (r *CommentRepository) ListForPost(ctx context.Context, postID string, page, limit int) ([]*models.Comment, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// DeleteForPost removes every comment referencing a post
func (r *CommentRepository) DeleteForPost(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{}).Error
}

// FollowRepository provides follow-graph database operations
type FollowRepository struct {
	*Repository
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(repo *Repository) *FollowRepository {
	return &FollowRepository{Repository: repo}
}

// InsertIfAbsent creates the follower → following edge unless it exists.
// Returns true only when this call created the edge.
func (r *FollowRepository) InsertIfAbsent(ctx context.Context, followerID, followingID string, at time.Time) (bool, error) {
	follow := &models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
		FollowedAt:  at,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteIfPresent removes the follower → following edge. Returns true only
// when this call removed it.
func (r *FollowRepository) DeleteIfPresent(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Exists reports whether the follower → following edge exists.
func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// ListFollowers returns a page of edges pointing at userID, newest first,
// plus the total count.
func (r *FollowRepository) ListFollowers(ctx context.Context, userID string, page, limit int) ([]*models.Follow, int64, error) {
	return r.listEdges(ctx, "following_id", userID, page, limit)
}

// ListFollowing returns a page of edges originating from userID, newest
// first, plus the total count.
func (r *FollowRepository) ListFollowing(ctx context.Context, userID string, page, limit int) ([]*models.Follow, int64, error) {
	return r.listEdges(ctx, "follower_id", userID, page, limit)
}

func (r *FollowRepository) listEdges(ctx context.Context, column, userID string, page, limit int) ([]*models.Follow, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where(column+" = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var follows []*models.Follow
	err := r.db.WithContext(ctx).
		Where(column+" = ?", userID).
		Order("followed_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&follows).Error
	if err != nil {
		return nil, 0, err
	}
	return follows, total, nil
}

// FollowingIDs returns which of the given candidate users the follower
// currently follows.
func (r *FollowRepository) FollowingIDs(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error) {
	if len(candidateIDs) == 0 {
		return map[string]bool{}, nil
	}
	var follows []*models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id IN ?", followerID, candidateIDs).
		Find(&follows).Error
	if err != nil {
		return nil, err
	}
	following := make(map[string]bool, len(follows))
	for _, f := range follows {
		following[f.FollowingID] = true
	}
	return following, nil
}

// FollowingIDsAll returns every user id the follower currently follows.
func (r *FollowRepository) FollowingIDsAll(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("following_id", &ids).Error
	return ids, err
}

// FollowerIDsAll returns every user id currently following userID.
func (r *FollowRepository) FollowerIDsAll(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, err
}
