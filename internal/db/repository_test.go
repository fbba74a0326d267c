package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vurse/backend/internal/models"
)

func newTestPosts(t *testing.T) *PostRepository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.Post{}))
	return NewPostRepository(NewRepository(gdb))
}

func TestStatUpdateReturnsPostUpdateValue(t *testing.T) {
	ctx := context.Background()
	posts := newTestPosts(t)
	require.NoError(t, posts.Create(ctx, &models.Post{
		ID:           "post-1",
		Type:         models.PostTypeStory,
		AuthorUserID: "author",
		Content:      "content",
	}))

	// Each call reports the counter it just wrote, not a later re-read
	count, err := posts.IncStat(ctx, "post-1", StatHearts)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = posts.IncStat(ctx, "post-1", StatHearts)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	count, err = posts.DecStatClamped(ctx, "post-1", StatHearts)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	stored, err := posts.StatCount(ctx, "post-1", StatHearts)
	require.NoError(t, err)
	require.Equal(t, count, stored)
}

func TestDecStatClampedFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	posts := newTestPosts(t)
	require.NoError(t, posts.Create(ctx, &models.Post{
		ID:           "post-1",
		Type:         models.PostTypeStory,
		AuthorUserID: "author",
		Content:      "content",
	}))

	for i := 0; i < 3; i++ {
		count, err := posts.DecStatClamped(ctx, "post-1", StatHearts)
		require.NoError(t, err)
		require.EqualValues(t, 0, count)
	}
}

func TestStatUpdateMissingPost(t *testing.T) {
	ctx := context.Background()
	posts := newTestPosts(t)

	_, err := posts.IncStat(ctx, "ghost", StatHearts)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = posts.DecStatClamped(ctx, "ghost", StatHearts)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = posts.IncStat(ctx, "ghost", StatColumn("drop table"))
	require.Error(t, err)
}
