// Package points maintains the append-only points ledger and the cached
// per-user total it rolls up into.
package points

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/models"
	"github.com/vurse/backend/pkg/logging"
)

// Point values granted per action
const (
	HeartPoints        int64 = 5
	CommentPoints      int64 = 10
	FollowPoints       int64 = 10
	StoryPoints        int64 = 50
	PostPoints         int64 = 40
	RegistrationPoints int64 = 50
)

// Ledger appends and reverses point transactions and keeps the cached
// total_points rollup on the users table in step. The ledger rows are the
// source of truth; the rollup is a read optimization that never goes
// negative.
type Ledger struct {
	points *db.PointsRepository
	users  *db.UserRepository
	logger *zap.Logger
}

// NewLedger creates a points ledger over the given repositories
func NewLedger(points *db.PointsRepository, users *db.UserRepository) *Ledger {
	return &Ledger{
		points: points,
		users:  users,
		logger: logging.GetLogger().Named("points"),
	}
}

// Award appends a transaction and increments the user's cached total.
// sourceID identifies the triggering entity so Revoke can find the row;
// postID groups rows for post-deletion clawback and may be empty.
func (l *Ledger) Award(ctx context.Context, userID, sourceID, postID string, amount int64, reason, icon string) error {
	tx := &models.PointTransaction{
		UserID:    userID,
		SourceID:  sourceID,
		PostID:    postID,
		Type:      models.PointTypeEarned,
		Icon:      icon,
		Points:    amount,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.points.Create(ctx, tx); err != nil {
		return fmt.Errorf("award points: %w", err)
	}
	if err := l.users.AdjustCounter(ctx, userID, db.CounterPoints, amount); err != nil {
		return fmt.Errorf("adjust points total: %w", err)
	}
	l.logger.Debug("points awarded",
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.Int64("points", amount))
	return nil
}

// Revoke removes the transaction matching (user, source, reason) and
// decrements the cached total by that row's amount, floored at zero. It is a
// no-op returning false when no matching transaction exists, so reversing an
// action that never granted points is safe.
func (l *Ledger) Revoke(ctx context.Context, userID, sourceID, reason string) (bool, error) {
	tx, err := l.points.FindBySource(ctx, userID, sourceID, reason)
	if err != nil {
		return false, fmt.Errorf("find points transaction: %w", err)
	}
	if tx == nil {
		return false, nil
	}
	removed, err := l.points.DeleteByID(ctx, tx.ID)
	if err != nil {
		return false, fmt.Errorf("revoke points: %w", err)
	}
	if !removed {
		// Another revocation won the race; the winner adjusts the total.
		return false, nil
	}
	if err := l.users.AdjustCounter(ctx, userID, db.CounterPoints, -tx.Points); err != nil {
		return false, fmt.Errorf("adjust points total: %w", err)
	}
	l.logger.Debug("points revoked",
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.Int64("points", tx.Points))
	return true, nil
}

// GrantRegistrationBonus awards the one-time signup bonus. Returns false
// without error when the user already holds a registration transaction.
func (l *Ledger) GrantRegistrationBonus(ctx context.Context, userID string) (bool, error) {
	existing, err := l.points.FindByReason(ctx, userID, models.ReasonRegistration)
	if err != nil {
		return false, fmt.Errorf("check registration bonus: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	if err := l.Award(ctx, userID, "", "", RegistrationPoints, models.ReasonRegistration, "🎉"); err != nil {
		return false, err
	}
	return true, nil
}

// RevokeForPost claws back every transaction tied to a post, including
// comment grants on it, decrementing each holder's cached total. Used when a
// post is deleted.
func (l *Ledger) RevokeForPost(ctx context.Context, postID string) error {
	txs, err := l.points.ListForPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("list post transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil
	}
	totals := make(map[string]int64)
	for _, tx := range txs {
		totals[tx.UserID] += tx.Points
	}
	if err := l.points.DeleteForPost(ctx, postID); err != nil {
		return fmt.Errorf("delete post transactions: %w", err)
	}
	for userID, amount := range totals {
		if err := l.users.AdjustCounter(ctx, userID, db.CounterPoints, -amount); err != nil {
			return fmt.Errorf("adjust points total: %w", err)
		}
	}
	return nil
}

// History returns a page of the user's transactions, newest first
func (l *Ledger) History(ctx context.Context, userID string, page, limit int) ([]*models.PointTransaction, int64, error) {
	return l.points.ListForUser(ctx, userID, page, limit)
}

// SumForUser recomputes the user's total from ledger rows, for reconciling
// the cached rollup.
func (l *Ledger) SumForUser(ctx context.Context, userID string) (int64, error) {
	return l.points.SumForUser(ctx, userID)
}
