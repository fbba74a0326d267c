package engagement

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vurse/backend/internal/cache"
	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/models"
	"github.com/vurse/backend/internal/notify"
	"github.com/vurse/backend/internal/points"
)

type testEnv struct {
	engine   *Engine
	users    *db.UserRepository
	posts    *db.PostRepository
	registry *notify.Registry
	notifier *notify.Notifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.PostView{},
		&models.Reaction{},
		&models.Comment{},
		&models.Follow{},
		&models.PointTransaction{},
		&models.Notification{},
	))

	repo := db.NewRepository(gdb)
	users := db.NewUserRepository(repo)
	posts := db.NewPostRepository(repo)
	pointsRepo := db.NewPointsRepository(repo)
	registry := notify.NewRegistry()
	notifier := notify.NewNotifier(db.NewNotificationRepository(repo), registry)

	engine := NewEngine(Options{
		Users:     users,
		Posts:     posts,
		Reactions: db.NewReactionRepository(repo),
		Comments:  db.NewCommentRepository(repo),
		Follows:   db.NewFollowRepository(repo),
		Views:     db.NewViewRepository(repo),
		Ledger:    points.NewLedger(pointsRepo, users),
		Notifier:  notifier,
		Cache:     cache.NewTagCache(true, 1024),
	})

	return &testEnv{
		engine:   engine,
		users:    users,
		posts:    posts,
		registry: registry,
		notifier: notifier,
	}
}

func (env *testEnv) seedUser(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, env.users.Create(context.Background(), &models.User{
		UserID: userID,
		Name:   "user-" + userID,
	}))
}

func (env *testEnv) seedPost(t *testing.T, postID, authorID string) *models.Post {
	t.Helper()
	post := &models.Post{
		ID:           postID,
		Type:         models.PostTypeStory,
		AuthorUserID: authorID,
		Content:      "content of " + postID,
	}
	require.NoError(t, env.posts.Create(context.Background(), post))
	return post
}

func (env *testEnv) points(t *testing.T, userID string) int64 {
	t.Helper()
	user, err := env.users.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.TotalPoints
}

func (env *testEnv) hearts(t *testing.T, postID string) int64 {
	t.Helper()
	count, err := env.posts.StatCount(context.Background(), postID, db.StatHearts)
	require.NoError(t, err)
	return count
}

func TestToggleHeartOnAndOff(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")
	env.seedUser(t, "reader")
	env.seedPost(t, "post-1", "author")

	conn := &recordingConn{}
	env.registry.Connect("author", conn)

	// First toggle creates the heart
	result, err := env.engine.Toggle(ctx, "reader", "post-1", models.ReactionHeart)
	require.NoError(t, err)
	require.True(t, result.Active)
	require.EqualValues(t, 1, result.Count)
	require.EqualValues(t, 1, env.hearts(t, "post-1"))
	require.EqualValues(t, points.HeartPoints, env.points(t, "reader"))
	require.Len(t, conn.events, 1)
	require.Equal(t, models.NotifyTypeHeart, conn.events[0].Type)

	// Second toggle removes it and reverses everything
	result, err = env.engine.Toggle(ctx, "reader", "post-1", models.ReactionHeart)
	require.NoError(t, err)
	require.False(t, result.Active)
	require.EqualValues(t, 0, result.Count)
	require.EqualValues(t, 0, env.hearts(t, "post-1"))
	require.EqualValues(t, 0, env.points(t, "reader"))

	// Removal does not generate another notification
	require.Len(t, conn.events, 1)
}

func TestToggleHeartOwnPostSkipsNotification(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")
	env.seedPost(t, "post-1", "author")

	conn := &recordingConn{}
	env.registry.Connect("author", conn)

	result, err := env.engine.Toggle(ctx, "author", "post-1", models.ReactionHeart)
	require.NoError(t, err)
	require.True(t, result.Active)

	// Points still land, but no self-notification
	require.EqualValues(t, points.HeartPoints, env.points(t, "author"))
	require.Empty(t, conn.events)
}

func TestToggleBookmark(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")
	env.seedUser(t, "reader")
	env.seedPost(t, "post-1", "author")

	result, err := env.engine.Toggle(ctx, "reader", "post-1", models.ReactionBookmark)
	require.NoError(t, err)
	require.True(t, result.Active)
	require.EqualValues(t, 1, result.Count)

	// Bookmarks earn no points but bump the user's bookmark counter
	require.EqualValues(t, 0, env.points(t, "reader"))
	user, err := env.users.GetByUserID(ctx, "reader")
	require.NoError(t, err)
	require.EqualValues(t, 1, user.TotalBookmarks)

	page, err := env.engine.Bookmarks(ctx, "reader", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Equal(t, "post-1", page.Posts[0].ID)

	result, err = env.engine.Toggle(ctx, "reader", "post-1", models.ReactionBookmark)
	require.NoError(t, err)
	require.False(t, result.Active)
	user, err = env.users.GetByUserID(ctx, "reader")
	require.NoError(t, err)
	require.EqualValues(t, 0, user.TotalBookmarks)
}

func TestToggleKindsAreIndependent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")
	env.seedUser(t, "reader")
	env.seedPost(t, "post-1", "author")

	_, err := env.engine.Toggle(ctx, "reader", "post-1", models.ReactionHeart)
	require.NoError(t, err)
	_, err = env.engine.Toggle(ctx, "reader", "post-1", models.ReactionBookmark)
	require.NoError(t, err)

	// Removing the bookmark leaves the heart standing
	result, err := env.engine.Toggle(ctx, "reader", "post-1", models.ReactionBookmark)
	require.NoError(t, err)
	require.False(t, result.Active)
	require.EqualValues(t, 1, env.hearts(t, "post-1"))
}

func TestToggleValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "reader")

	_, err := env.engine.Toggle(ctx, "reader", "missing-post", models.ReactionHeart)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.engine.Toggle(ctx, "", "post-1", models.ReactionHeart)
	require.ErrorIs(t, err, ErrInvalidID)

	_, err = env.engine.Toggle(ctx, "reader", "post-1", models.ReactionKind("applaud"))
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestToggleStress(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")
	env.seedUser(t, "reader")
	env.seedPost(t, "post-1", "author")

	// A randomized action mix, reconciling the ledger sum against the
	// cached total after every step. Fixed seed keeps failures replayable.
	rng := rand.New(rand.NewSource(1))
	heartOn := false
	var comments []string

	for i := 0; i < 200; i++ {
		switch rng.Intn(4) {
		case 0:
			result, err := env.engine.Toggle(ctx, "reader", "post-1", models.ReactionHeart)
			require.NoError(t, err)
			heartOn = result.Active
		case 1:
			_, err := env.engine.Toggle(ctx, "reader", "post-1", models.ReactionBookmark)
			require.NoError(t, err)
		case 2:
			comment, err := env.engine.AddComment(ctx, "reader", "post-1", "comment")
			require.NoError(t, err)
			comments = append(comments, comment.ID)
		case 3:
			if len(comments) == 0 {
				continue
			}
			pick := rng.Intn(len(comments))
			require.NoError(t, env.engine.DeleteComment(ctx, "reader", comments[pick]))
			comments = append(comments[:pick], comments[pick+1:]...)
		}

		sum, err := env.engine.ledger.SumForUser(ctx, "reader")
		require.NoError(t, err)
		require.Equal(t, env.points(t, "reader"), sum)
	}

	// Final state matches the tracked model
	if heartOn {
		require.EqualValues(t, 1, env.hearts(t, "post-1"))
	} else {
		require.EqualValues(t, 0, env.hearts(t, "post-1"))
	}

	commentCount, err := env.posts.StatCount(ctx, "post-1", db.StatComments)
	require.NoError(t, err)
	require.EqualValues(t, len(comments), commentCount)

	// Draining everything lands every counter and the ledger back at zero
	if heartOn {
		_, err := env.engine.Toggle(ctx, "reader", "post-1", models.ReactionHeart)
		require.NoError(t, err)
	}
	for _, id := range comments {
		require.NoError(t, env.engine.DeleteComment(ctx, "reader", id))
	}

	require.EqualValues(t, 0, env.hearts(t, "post-1"))
	require.EqualValues(t, 0, env.points(t, "reader"))

	sum, err := env.engine.ledger.SumForUser(ctx, "reader")
	require.NoError(t, err)
	require.EqualValues(t, 0, sum)
}

func TestAddAndDeleteComment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")
	env.seedUser(t, "reader")
	env.seedPost(t, "post-1", "author")

	conn := &recordingConn{}
	env.registry.Connect("author", conn)

	comment, err := env.engine.AddComment(ctx, "reader", "post-1", "  nice one  ")
	require.NoError(t, err)
	require.Equal(t, "nice one", comment.Text)
	require.EqualValues(t, points.CommentPoints, env.points(t, "reader"))
	require.Len(t, conn.events, 1)
	require.Equal(t, models.NotifyTypeComment, conn.events[0].Type)
	require.Equal(t, comment.ID, conn.events[0].CommentID)

	comments, total, err := env.engine.ListComments(ctx, "post-1", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, comments, 1)

	// Only the comment author may delete it
	err = env.engine.DeleteComment(ctx, "author", comment.ID)
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.engine.DeleteComment(ctx, "reader", comment.ID))
	require.EqualValues(t, 0, env.points(t, "reader"))

	_, total, err = env.engine.ListComments(ctx, "post-1", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 0, total)

	err = env.engine.DeleteComment(ctx, "reader", comment.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCommentValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "reader")
	env.seedUser(t, "author")
	env.seedPost(t, "post-1", "author")

	_, err := env.engine.AddComment(ctx, "reader", "post-1", "   ")
	require.ErrorIs(t, err, ErrInvalidID)

	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'a'
	}
	_, err = env.engine.AddComment(ctx, "reader", "post-1", string(long))
	require.ErrorIs(t, err, ErrInvalidID)

	_, err = env.engine.AddComment(ctx, "reader", "missing", "hello")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFollowAndUnfollow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")

	conn := &recordingConn{}
	env.registry.Connect("bob", conn)

	changed, err := env.engine.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	require.True(t, changed)

	// Idempotent: a second follow changes nothing
	changed, err = env.engine.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	require.False(t, changed)

	alice, err := env.users.GetByUserID(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 1, alice.TotalFollowing)
	require.EqualValues(t, points.FollowPoints, alice.TotalPoints)

	bob, err := env.users.GetByUserID(ctx, "bob")
	require.NoError(t, err)
	require.EqualValues(t, 1, bob.TotalFollowers)
	require.Len(t, conn.events, 1)
	require.Equal(t, models.NotifyTypeFollow, conn.events[0].Type)

	following, err := env.engine.IsFollowing(ctx, "alice", "bob")
	require.NoError(t, err)
	require.True(t, following)

	followers, total, err := env.engine.Followers(ctx, "bob", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "alice", followers[0].UserID)

	changed, err = env.engine.Unfollow(ctx, "alice", "bob")
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = env.engine.Unfollow(ctx, "alice", "bob")
	require.NoError(t, err)
	require.False(t, changed)

	alice, err = env.users.GetByUserID(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 0, alice.TotalFollowing)
	require.EqualValues(t, 0, alice.TotalPoints)
}

func TestSelfFollowRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "alice")

	_, err := env.engine.Follow(ctx, "alice", "alice")
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestFollowMissingUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "alice")

	_, err := env.engine.Follow(ctx, "alice", "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordViewCountsOncePerUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")
	env.seedUser(t, "reader")
	env.seedPost(t, "post-1", "author")

	counted, err := env.engine.RecordView(ctx, "reader", "post-1")
	require.NoError(t, err)
	require.True(t, counted)

	counted, err = env.engine.RecordView(ctx, "reader", "post-1")
	require.NoError(t, err)
	require.False(t, counted)

	views, err := env.posts.StatCount(ctx, "post-1", db.StatViews)
	require.NoError(t, err)
	require.EqualValues(t, 1, views)
}

func TestCreateAndDeletePostClawsBackPoints(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")
	env.seedUser(t, "reader")

	post, err := env.engine.CreatePost(ctx, "author", &PostInput{
		Type:    models.PostTypeStory,
		Title:   "a story",
		Content: "once upon a time",
	})
	require.NoError(t, err)
	require.EqualValues(t, points.StoryPoints, env.points(t, "author"))

	author, err := env.users.GetByUserID(ctx, "author")
	require.NoError(t, err)
	require.EqualValues(t, 1, author.TotalStories)

	_, err = env.engine.Toggle(ctx, "reader", post.ID, models.ReactionHeart)
	require.NoError(t, err)
	_, err = env.engine.AddComment(ctx, "reader", post.ID, "loved it")
	require.NoError(t, err)
	require.EqualValues(t, points.HeartPoints+points.CommentPoints, env.points(t, "reader"))

	// Only the author may delete
	err = env.engine.DeletePost(ctx, "reader", post.ID)
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.engine.DeletePost(ctx, "author", post.ID))

	// Every grant hanging off the post is clawed back
	require.EqualValues(t, 0, env.points(t, "author"))
	require.EqualValues(t, 0, env.points(t, "reader"))

	author, err = env.users.GetByUserID(ctx, "author")
	require.NoError(t, err)
	require.EqualValues(t, 0, author.TotalStories)

	_, err = env.engine.GetPost(ctx, post.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDraftEarnsNoPoints(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")

	_, err := env.engine.CreatePost(ctx, "author", &PostInput{
		Type:    models.PostTypeJoke,
		Content: "a draft",
		IsDraft: true,
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, env.points(t, "author"))
}

func TestRegisterUserGrantsBonusOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.engine.RegisterUser(ctx, "alice", "Alice", "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "alice", user.UserID)
	require.EqualValues(t, points.RegistrationPoints, env.points(t, "alice"))

	// Re-registering (e.g. repeated login) never double-grants
	_, err = env.engine.RegisterUser(ctx, "alice", "Alice", "alice@example.com")
	require.NoError(t, err)
	require.EqualValues(t, points.RegistrationPoints, env.points(t, "alice"))
}

func TestProfileCachedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")

	profile, err := env.engine.Profile(ctx, "bob")
	require.NoError(t, err)
	require.EqualValues(t, 0, profile.TotalFollowers)

	// The follow invalidates both profiles, so the next read sees it
	_, err = env.engine.Follow(ctx, "alice", "bob")
	require.NoError(t, err)

	profile, err = env.engine.Profile(ctx, "bob")
	require.NoError(t, err)
	require.EqualValues(t, 1, profile.TotalFollowers)
}

func TestPointsHistory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "author")
	env.seedUser(t, "reader")
	env.seedPost(t, "post-1", "author")

	_, err := env.engine.Toggle(ctx, "reader", "post-1", models.ReactionHeart)
	require.NoError(t, err)

	txs, total, err := env.engine.PointsHistory(ctx, "reader", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, models.ReasonHeartedPost, txs[0].Reason)

	// The toggle-off drops the cached history before the next read
	_, err = env.engine.Toggle(ctx, "reader", "post-1", models.ReactionHeart)
	require.NoError(t, err)

	_, total, err = env.engine.PointsHistory(ctx, "reader", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
}

func TestEngagementScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "owner")
	env.seedUser(t, "alice")
	env.seedPost(t, "post-1", "owner")

	conn := &recordingConn{}
	env.registry.Connect("owner", conn)
	baseline := env.points(t, "alice")

	// alice hearts the post
	result, err := env.engine.Toggle(ctx, "alice", "post-1", models.ReactionHeart)
	require.NoError(t, err)
	require.True(t, result.Active)
	require.EqualValues(t, 1, env.hearts(t, "post-1"))
	require.Equal(t, baseline+points.HeartPoints, env.points(t, "alice"))
	require.Len(t, conn.events, 1)

	// alice hearts again: back to baseline, no second notification
	result, err = env.engine.Toggle(ctx, "alice", "post-1", models.ReactionHeart)
	require.NoError(t, err)
	require.False(t, result.Active)
	require.EqualValues(t, 0, env.hearts(t, "post-1"))
	require.Equal(t, baseline, env.points(t, "alice"))
	require.Len(t, conn.events, 1)

	// alice comments
	comment, err := env.engine.AddComment(ctx, "alice", "post-1", "well put")
	require.NoError(t, err)
	require.Equal(t, baseline+points.CommentPoints, env.points(t, "alice"))
	require.Len(t, conn.events, 2)

	comments, err := env.posts.StatCount(ctx, "post-1", db.StatComments)
	require.NoError(t, err)
	require.EqualValues(t, 1, comments)

	// alice removes her comment: counter and points land back at zero
	require.NoError(t, env.engine.DeleteComment(ctx, "alice", comment.ID))
	require.Equal(t, baseline, env.points(t, "alice"))
	comments, err = env.posts.StatCount(ctx, "post-1", db.StatComments)
	require.NoError(t, err)
	require.EqualValues(t, 0, comments)
}

// recordingConn captures pushed events for assertions
type recordingConn struct {
	events []*notify.Event
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.events = append(c.events, v.(*notify.Event))
	return nil
}

func (c *recordingConn) Close() error { return nil }
