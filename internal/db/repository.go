package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vurse/backend/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UserRepository provides account-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByUserID retrieves a user by their public user id
func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUserIDs retrieves multiple users by their public user ids
func (r *UserRepository) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}
	return byID, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateProfile sets profile fields on a user. Counter columns are never
// written through this path.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Updates(fields).Error
}

// UserCounter names a denormalized counter column on the users table.
type UserCounter string

// User counter columns
const (
	CounterPoints    UserCounter = "total_points"
	CounterFollowers UserCounter = "total_followers"
	CounterFollowing UserCounter = "total_following"
	CounterBookmarks UserCounter = "total_bookmarks"
	CounterStories   UserCounter = "total_stories"
	CounterJokes     UserCounter = "total_jokes"
	CounterPoems     UserCounter = "total_poems"
	CounterQuotes    UserCounter = "total_quotes"
	CounterFacts     UserCounter = "total_facts"
	CounterRiddles   UserCounter = "total_riddles"
	CounterArticles  UserCounter = "total_articles"
)

var userCounters = map[UserCounter]bool{
	CounterPoints:    true,
	CounterFollowers: true,
	CounterFollowing: true,
	CounterBookmarks: true,
	CounterStories:   true,
	CounterJokes:     true,
	CounterPoems:     true,
	CounterQuotes:    true,
	CounterFacts:     true,
	CounterRiddles:   true,
	CounterArticles:  true,
}

// AdjustCounter atomically applies a delta to a user counter column. The
// arithmetic is evaluated by the store, never computed client-side, and
// negative deltas are clamped so the column can never go below zero.
func (r *UserRepository) AdjustCounter(ctx context.Context, userID string, col UserCounter, delta int64) error {
	if !userCounters[col] {
		return fmt.Errorf("unknown user counter %q", col)
	}
	if delta == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx).Model(&models.User{}).Where("user_id = ?", userID)
	if delta > 0 {
		return tx.UpdateColumn(string(col), gorm.Expr(fmt.Sprintf("%s + ?", col), delta)).Error
	}
	d := -delta
	expr := fmt.Sprintf("CASE WHEN %s > ? THEN %s - ? ELSE 0 END", col, col)
	return tx.UpdateColumn(string(col), gorm.Expr(expr, d, d)).Error
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetByIDs retrieves multiple posts by id
func (r *PostRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// UpdateFields sets non-stat fields on a post owned by authorID. Returns
// false when no post matched (unknown id or wrong author).
func (r *PostRepository) UpdateFields(ctx context.Context, id, authorID string, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND author_user_id = ?", id, authorID).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a post row
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{}).Error
}

// StatColumn names a denormalized counter column on the posts table.
type StatColumn string

// Post stat columns
const (
	StatViews     StatColumn = "stats_views"
	StatHearts    StatColumn = "stats_hearts"
	StatComments  StatColumn = "stats_comments"
	StatBookmarks StatColumn = "stats_bookmarks"
	StatShares    StatColumn = "stats_shares"
)

var statColumns = map[StatColumn]bool{
	StatViews:     true,
	StatHearts:    true,
	StatComments:  true,
	StatBookmarks: true,
	StatShares:    true,
}

// IncStat atomically increments a stat counter and returns the new value.
// The update and the read are one statement, so the returned count is the
// counter immediately after this increment even under concurrent toggles.
func (r *PostRepository) IncStat(ctx context.Context, postID string, col StatColumn) (int64, error) {
	if !statColumns[col] {
		return 0, fmt.Errorf("unknown stat column %q", col)
	}
	return r.updateStatReturning(ctx, postID, col, fmt.Sprintf("%s + 1", col))
}

// DecStatClamped atomically decrements a stat counter with a floor of zero
// and returns the new value. The clamp is a store-evaluated expression so
// concurrent decrements can never drive the counter negative.
func (r *PostRepository) DecStatClamped(ctx context.Context, postID string, col StatColumn) (int64, error) {
	if !statColumns[col] {
		return 0, fmt.Errorf("unknown stat column %q", col)
	}
	expr := fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", col, col)
	return r.updateStatReturning(ctx, postID, col, expr)
}

// updateStatReturning applies a column expression and reads the result back
// through a RETURNING clause. Valid on postgres and sqlite. The column name
// is always one of statColumns, never caller input.
func (r *PostRepository) updateStatReturning(ctx context.Context, postID string, col StatColumn, expr string) (int64, error) {
	var count int64
	res := r.db.WithContext(ctx).Raw(
		fmt.Sprintf("UPDATE posts SET %s = %s WHERE id = ? RETURNING %s", col, expr, col),
		postID,
	).Scan(&count)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return count, nil
}

// StatCount reads the current value of a single stat counter.
func (r *PostRepository) StatCount(ctx context.Context, postID string, col StatColumn) (int64, error) {
	if !statColumns[col] {
		return 0, fmt.Errorf("unknown stat column %q", col)
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Pluck(string(col), &count).Error
	return count, err
}

// PostQuery describes a filtered post listing.
type PostQuery struct {
	Types        []string
	Search       string
	AuthorIDs    []string
	IsDraft      bool
	CreatedAfter time.Time
	SortBy       string // created_at | stats_views | stats_hearts | stats_comments
	Page         int
	Limit        int
}

var postSortColumns = map[string]bool{
	"created_at":     true,
	"stats_views":    true,
	"stats_hearts":   true,
	"stats_comments": true,
}

func (q *PostQuery) apply(db *gorm.DB) *gorm.DB {
	db = db.Where("is_draft = ?", q.IsDraft)
	if len(q.Types) > 0 {
		db = db.Where("type IN ?", q.Types)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}
	if len(q.AuthorIDs) > 0 {
		db = db.Where("author_user_id IN ?", q.AuthorIDs)
	}
	if !q.CreatedAfter.IsZero() {
		db = db.Where("created_at >= ?", q.CreatedAfter)
	}
	return db
}

// List returns a page of posts matching the query plus the total match count.
func (r *PostRepository) List(ctx context.Context, q *PostQuery) ([]*models.Post, int64, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}
	sortBy := q.SortBy
	if !postSortColumns[sortBy] {
		sortBy = "created_at"
	}

	base := q.apply(r.db.WithContext(ctx).Model(&models.Post{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := q.apply(r.db.WithContext(ctx)).
		Order(sortBy + " DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
