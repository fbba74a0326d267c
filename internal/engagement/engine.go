// Package engagement implements the reaction toggle engine and the
// surrounding write paths: comments, follows, views and post lifecycle.
// Every mutation keeps the denormalized counters, the points ledger, the
// notification stream and the caches in step.
package engagement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vurse/backend/internal/cache"
	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/models"
	"github.com/vurse/backend/internal/notify"
	"github.com/vurse/backend/internal/points"
	"github.com/vurse/backend/pkg/logging"
)

// Cache tags. Write paths invalidate these; cached read paths register
// under them.
const (
	TagPost         = "post:"          // single post payload
	TagPostComments = "post_comments:" // comment list for a post
	TagUserProfile  = "user_profile:"  // profile payload
	TagUserPoints   = "user_points:"   // points history
	TagBookmarks    = "bookmarks:"     // bookmark list for a user
	TagFeeds        = "feeds"          // every list/feed query
)

// TTLs for cached read paths. Short for fast-moving lists, longer for
// single-entity payloads; staleness is bounded by these even when an
// invalidation is missed.
const (
	postTTL        = 5 * time.Minute
	commentListTTL = time.Minute
	listTTL        = 30 * time.Second
	profileTTL     = 5 * time.Minute
)

// Engine coordinates engagement writes across the repositories, the points
// ledger, the notifier and the caches.
type Engine struct {
	users     *db.UserRepository
	posts     *db.PostRepository
	reactions *db.ReactionRepository
	comments  *db.CommentRepository
	follows   *db.FollowRepository
	views     *db.ViewRepository

	ledger   *points.Ledger
	notifier *notify.Notifier
	cache    *cache.TagCache
	feed     *cache.Cache

	maxCommentLength int
	trendingTTL      time.Duration
	logger           *zap.Logger
}

// Options carries the engine's collaborators
type Options struct {
	Users     *db.UserRepository
	Posts     *db.PostRepository
	Reactions *db.ReactionRepository
	Comments  *db.CommentRepository
	Follows   *db.FollowRepository
	Views     *db.ViewRepository

	Ledger   *points.Ledger
	Notifier *notify.Notifier
	Cache    *cache.TagCache
	Feed     *cache.Cache

	MaxCommentLength int
	TrendingTTL      time.Duration
}

// NewEngine creates an engagement engine
func NewEngine(opts Options) *Engine {
	maxLen := opts.MaxCommentLength
	if maxLen <= 0 {
		maxLen = 2000
	}
	trendingTTL := opts.TrendingTTL
	if trendingTTL <= 0 {
		trendingTTL = 5 * time.Minute
	}
	return &Engine{
		users:            opts.Users,
		posts:            opts.Posts,
		reactions:        opts.Reactions,
		comments:         opts.Comments,
		follows:          opts.Follows,
		views:            opts.Views,
		ledger:           opts.Ledger,
		notifier:         opts.Notifier,
		cache:            opts.Cache,
		feed:             opts.Feed,
		maxCommentLength: maxLen,
		trendingTTL:      trendingTTL,
		logger:           logging.GetLogger().Named("engagement"),
	}
}

// actorFor loads the display identity used in notification payloads. A
// missing actor row degrades to an id-only actor rather than failing the
// triggering action.
func (e *Engine) actorFor(ctx context.Context, userID string) notify.Actor {
	user, err := e.users.GetByUserID(ctx, userID)
	if err != nil || user == nil {
		return notify.Actor{UserID: userID}
	}
	return notify.Actor{
		UserID: user.UserID,
		Name:   user.Name,
		Avatar: user.Avatar,
	}
}

// getPost resolves a post id, mapping absence to ErrNotFound
func (e *Engine) getPost(ctx context.Context, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, ErrInvalidID
	}
	post, err := e.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// invalidateFeeds drops cached list queries after any post-visible change
func (e *Engine) invalidateFeeds(postID string) {
	e.cache.Invalidate(TagPost+postID, TagFeeds)
	if e.feed != nil {
		if err := e.feed.Delete(trendingFeedKey); err != nil && err != cache.ErrCacheDisabled {
			e.logger.Warn("feed cache invalidation failed", zap.Error(err))
		}
	}
}

func now() time.Time {
	return time.Now().UTC()
}
