package engagement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/models"
	"github.com/vurse/backend/internal/points"
)

const trendingFeedKey = "feed:trending"

var postTypeCounters = map[string]db.UserCounter{
	models.PostTypeStory:   db.CounterStories,
	models.PostTypeJoke:    db.CounterJokes,
	models.PostTypePoem:    db.CounterPoems,
	models.PostTypeQuote:   db.CounterQuotes,
	models.PostTypeFact:    db.CounterFacts,
	models.PostTypeRiddle:  db.CounterRiddles,
	models.PostTypeArticle: db.CounterArticles,
}

// PostInput carries the author-supplied fields for a new post
type PostInput struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Image       string `json:"image"`
	Content     string `json:"content"`
	IsDraft     bool   `json:"is_draft"`
	IsAnonymous bool   `json:"is_anonymous"`
	Is18Plus    bool   `json:"is_18_plus"`
}

// CreatePost creates a post, bumps the author's per-type counter and grants
// creation points. Drafts earn no points until published.
func (e *Engine) CreatePost(ctx context.Context, authorID string, input *PostInput) (*models.Post, error) {
	if authorID == "" || input.Content == "" {
		return nil, ErrInvalidID
	}
	counter, ok := postTypeCounters[input.Type]
	if !ok {
		return nil, ErrInvalidID
	}

	post := &models.Post{
		ID:           uuid.NewString(),
		Type:         input.Type,
		AuthorUserID: authorID,
		Title:        input.Title,
		Image:        input.Image,
		Content:      input.Content,
		IsDraft:      input.IsDraft,
		IsAnonymous:  input.IsAnonymous,
		Is18Plus:     input.Is18Plus,
		CreatedAt:    now(),
		UpdatedAt:    now(),
	}
	if err := e.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if err := e.users.AdjustCounter(ctx, authorID, counter, 1); err != nil {
		return nil, fmt.Errorf("adjust %s count: %w", input.Type, err)
	}
	if !post.IsDraft {
		if err := e.ledger.Award(ctx, authorID, post.ID, post.ID, creationPoints(post.Type), models.ReasonCreatedPost, "📝"); err != nil {
			return nil, err
		}
	}

	e.cache.Invalidate(TagUserProfile+authorID, TagUserPoints+authorID, TagFeeds)
	e.invalidateFeeds(post.ID)
	return post, nil
}

func creationPoints(postType string) int64 {
	if postType == models.PostTypeStory {
		return points.StoryPoints
	}
	return points.PostPoints
}

// GetPost returns one post. The payload is cached per post and dropped by
// every engagement write against it.
func (e *Engine) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, ErrInvalidID
	}
	result, err := e.cache.Do(ctx, postTTL, []string{TagPost + postID}, "posts.get",
		[]interface{}{postID},
		func(ctx context.Context) (interface{}, error) {
			return e.getPost(ctx, postID)
		})
	if err != nil {
		return nil, err
	}
	return result.(*models.Post), nil
}

// UpdatePost applies author-supplied field changes to the author's own post
func (e *Engine) UpdatePost(ctx context.Context, authorID, postID string, fields map[string]interface{}) error {
	if authorID == "" || postID == "" || len(fields) == 0 {
		return ErrInvalidID
	}
	updated, err := e.posts.UpdateFields(ctx, postID, authorID, fields)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if !updated {
		// Either no such post or not the author; do not leak which.
		return ErrNotFound
	}
	e.invalidateFeeds(postID)
	return nil
}

// DeletePost removes the author's post along with every row hanging off it:
// reactions, views, comments and the point grants they produced. Cached
// totals of every affected holder are clamped down with the clawback.
func (e *Engine) DeletePost(ctx context.Context, authorID, postID string) error {
	if authorID == "" {
		return ErrInvalidID
	}
	post, err := e.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorUserID != authorID {
		return ErrForbidden
	}

	if err := e.ledger.RevokeForPost(ctx, postID); err != nil {
		return err
	}
	if err := e.reactions.DeleteForPost(ctx, postID); err != nil {
		return fmt.Errorf("delete reactions: %w", err)
	}
	if err := e.comments.DeleteForPost(ctx, postID); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if err := e.views.DeleteForPost(ctx, postID); err != nil {
		return fmt.Errorf("delete views: %w", err)
	}
	if err := e.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if counter, ok := postTypeCounters[post.Type]; ok {
		if err := e.users.AdjustCounter(ctx, authorID, counter, -1); err != nil {
			return fmt.Errorf("adjust %s count: %w", post.Type, err)
		}
	}

	e.cache.Invalidate(
		TagPostComments+postID,
		TagUserProfile+authorID,
	)
	e.invalidateFeeds(postID)
	return nil
}

// PostPage is a page of posts plus the unfiltered total
type PostPage struct {
	Posts []*models.Post `json:"posts"`
	Total int64          `json:"total"`
}

// ListPosts returns a filtered, paged post listing. Results are cached
// briefly under the shared feed tag.
func (e *Engine) ListPosts(ctx context.Context, q *db.PostQuery) (*PostPage, error) {
	args := map[string]interface{}{
		"types":   fmt.Sprintf("%v", q.Types),
		"search":  q.Search,
		"authors": fmt.Sprintf("%v", q.AuthorIDs),
		"after":   q.CreatedAfter.Unix(),
		"sort":    q.SortBy,
		"page":    q.Page,
		"limit":   q.Limit,
	}
	result, err := e.cache.Do(ctx, listTTL, []string{TagFeeds}, "posts.list",
		[]interface{}{args},
		func(ctx context.Context) (interface{}, error) {
			posts, total, err := e.posts.List(ctx, q)
			if err != nil {
				return nil, err
			}
			return &PostPage{Posts: posts, Total: total}, nil
		})
	if err != nil {
		return nil, err
	}
	return result.(*PostPage), nil
}

// FollowingPosts narrows a listing to the authors the user follows. An empty
// follow graph yields an empty page without touching the post store.
func (e *Engine) FollowingPosts(ctx context.Context, userID string, q *db.PostQuery) (*PostPage, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}
	authorIDs, err := e.follows.FollowingIDsAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve following: %w", err)
	}
	if len(authorIDs) == 0 {
		return &PostPage{Posts: []*models.Post{}}, nil
	}
	q.AuthorIDs = authorIDs
	return e.ListPosts(ctx, q)
}

// UserPage is a page of users plus the unfiltered total
type UserPage struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
}

// Hearts returns the users who hearted a post, newest first.
func (e *Engine) Hearts(ctx context.Context, postID string, page, limit int) (*UserPage, error) {
	if _, err := e.getPost(ctx, postID); err != nil {
		return nil, err
	}
	result, err := e.cache.Do(ctx, listTTL, []string{TagPost + postID}, "posts.hearts",
		[]interface{}{postID, page, limit},
		func(ctx context.Context) (interface{}, error) {
			reactions, total, err := e.reactions.ListForPost(ctx, postID, models.ReactionHeart, page, limit)
			if err != nil {
				return nil, err
			}
			ids := make([]string, 0, len(reactions))
			for _, reaction := range reactions {
				ids = append(ids, reaction.UserID)
			}
			users, err := e.resolveUsers(ctx, ids)
			if err != nil {
				return nil, err
			}
			return &UserPage{Users: users, Total: total}, nil
		})
	if err != nil {
		return nil, err
	}
	return result.(*UserPage), nil
}

// How many posts the shared trending feed holds
const trendingFeedSize = 50

// Trending returns the heart-ranked feed. The full feed page is shared
// across server instances through Redis under one key, so any post-visible
// write can drop it, and sliced to the requested size per caller.
func (e *Engine) Trending(ctx context.Context, limit int) ([]*models.Post, error) {
	if limit < 1 || limit > trendingFeedSize {
		limit = 20
	}

	var feed []*models.Post
	hit, err := e.feed.GetJSON(trendingFeedKey, &feed)
	if err != nil {
		e.logger.Warn("trending cache read failed", zap.Error(err))
	}
	if !hit {
		feed, _, err = e.posts.List(ctx, &db.PostQuery{
			SortBy: "stats_hearts",
			Page:   1,
			Limit:  trendingFeedSize,
		})
		if err != nil {
			return nil, err
		}
		if err := e.feed.SetJSON(trendingFeedKey, feed, e.trendingTTL); err != nil {
			e.logger.Warn("trending cache write failed", zap.Error(err))
		}
	}

	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}

// Bookmarks returns a page of the user's bookmarked posts, newest bookmark
// first. Posts deleted since bookmarking are skipped.
func (e *Engine) Bookmarks(ctx context.Context, userID string, page, limit int) (*PostPage, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}
	result, err := e.cache.Do(ctx, listTTL, []string{TagBookmarks + userID}, "posts.bookmarks",
		[]interface{}{userID, page, limit},
		func(ctx context.Context) (interface{}, error) {
			marks, total, err := e.reactions.ListBookmarked(ctx, userID, page, limit)
			if err != nil {
				return nil, err
			}
			ids := make([]string, 0, len(marks))
			for _, m := range marks {
				ids = append(ids, m.PostID)
			}
			posts, err := e.posts.GetByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			byID := make(map[string]*models.Post, len(posts))
			for _, p := range posts {
				byID[p.ID] = p
			}
			ordered := make([]*models.Post, 0, len(ids))
			for _, id := range ids {
				if p, ok := byID[id]; ok {
					ordered = append(ordered, p)
				}
			}
			return &PostPage{Posts: ordered, Total: total}, nil
		})
	if err != nil {
		return nil, err
	}
	return result.(*PostPage), nil
}
