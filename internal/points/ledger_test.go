package points

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/models"
)

func newTestLedger(t *testing.T) (*Ledger, *db.UserRepository) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.PointTransaction{}))

	repo := db.NewRepository(gdb)
	users := db.NewUserRepository(repo)
	return NewLedger(db.NewPointsRepository(repo), users), users
}

func seedUser(t *testing.T, users *db.UserRepository, userID string) {
	t.Helper()
	require.NoError(t, users.Create(context.Background(), &models.User{
		UserID: userID,
		Name:   "user-" + userID,
	}))
}

func TestAwardAndRevoke(t *testing.T) {
	ctx := context.Background()
	ledger, users := newTestLedger(t)
	seedUser(t, users, "alice")

	err := ledger.Award(ctx, "alice", "post-1", "post-1", HeartPoints, models.ReasonHeartedPost, "❤️")
	require.NoError(t, err)

	user, err := users.GetByUserID(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 5, user.TotalPoints)

	sum, err := ledger.SumForUser(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 5, sum)

	removed, err := ledger.Revoke(ctx, "alice", "post-1", models.ReasonHeartedPost)
	require.NoError(t, err)
	require.True(t, removed)

	user, err = users.GetByUserID(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 0, user.TotalPoints)
}

func TestRevokeMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	ledger, users := newTestLedger(t)
	seedUser(t, users, "alice")

	removed, err := ledger.Revoke(ctx, "alice", "post-1", models.ReasonHeartedPost)
	require.NoError(t, err)
	require.False(t, removed)

	user, err := users.GetByUserID(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 0, user.TotalPoints)
}

func TestRevokeNeverDrivesTotalNegative(t *testing.T) {
	ctx := context.Background()
	ledger, users := newTestLedger(t)
	seedUser(t, users, "alice")

	// Cached total drifted below the ledger sum; the clamp keeps the
	// rollup at zero instead of going negative.
	require.NoError(t, ledger.Award(ctx, "alice", "post-1", "post-1", HeartPoints, models.ReasonHeartedPost, "❤️"))
	require.NoError(t, users.AdjustCounter(ctx, "alice", db.CounterPoints, -3))

	removed, err := ledger.Revoke(ctx, "alice", "post-1", models.ReasonHeartedPost)
	require.NoError(t, err)
	require.True(t, removed)

	user, err := users.GetByUserID(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 0, user.TotalPoints)
}

func TestRegistrationBonusIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger, users := newTestLedger(t)
	seedUser(t, users, "alice")

	granted, err := ledger.GrantRegistrationBonus(ctx, "alice")
	require.NoError(t, err)
	require.True(t, granted)

	granted, err = ledger.GrantRegistrationBonus(ctx, "alice")
	require.NoError(t, err)
	require.False(t, granted)

	user, err := users.GetByUserID(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, RegistrationPoints, user.TotalPoints)

	sum, err := ledger.SumForUser(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, RegistrationPoints, sum)
}

func TestRevokeForPost(t *testing.T) {
	ctx := context.Background()
	ledger, users := newTestLedger(t)
	seedUser(t, users, "alice")
	seedUser(t, users, "bob")

	// Hearts from two users plus a comment grant, all tied to one post
	require.NoError(t, ledger.Award(ctx, "alice", "post-1", "post-1", HeartPoints, models.ReasonHeartedPost, "❤️"))
	require.NoError(t, ledger.Award(ctx, "bob", "post-1", "post-1", HeartPoints, models.ReasonHeartedPost, "❤️"))
	require.NoError(t, ledger.Award(ctx, "bob", "comment-1", "post-1", CommentPoints, models.ReasonPostedComment, "💬"))
	require.NoError(t, ledger.Award(ctx, "alice", "post-2", "post-2", HeartPoints, models.ReasonHeartedPost, "❤️"))

	require.NoError(t, ledger.RevokeForPost(ctx, "post-1"))

	alice, err := users.GetByUserID(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, HeartPoints, alice.TotalPoints) // post-2 grant survives

	bob, err := users.GetByUserID(ctx, "bob")
	require.NoError(t, err)
	require.EqualValues(t, 0, bob.TotalPoints)

	txs, _, err := ledger.History(ctx, "bob", 1, 10)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestHistoryPaging(t *testing.T) {
	ctx := context.Background()
	ledger, users := newTestLedger(t)
	seedUser(t, users, "alice")

	for i := 0; i < 5; i++ {
		sourceID := "post-" + string(rune('a'+i))
		require.NoError(t, ledger.Award(ctx, "alice", sourceID, sourceID, HeartPoints, models.ReasonHeartedPost, "❤️"))
	}

	txs, total, err := ledger.History(ctx, "alice", 1, 3)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, txs, 3)

	txs, _, err = ledger.History(ctx, "alice", 2, 3)
	require.NoError(t, err)
	require.Len(t, txs, 2)
}
