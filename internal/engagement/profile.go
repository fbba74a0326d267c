package engagement

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vurse/backend/internal/models"
)

// RegisterUser creates an account and grants the one-time registration
// bonus. Callers supply the public user id when the account originates in
// an external identity provider; a fresh one is minted otherwise.
func (e *Engine) RegisterUser(ctx context.Context, userID, name, email string) (*models.User, error) {
	if name == "" {
		return nil, ErrInvalidID
	}
	if userID == "" {
		userID = uuid.NewString()
	}

	existing, err := e.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = &models.User{
			UserID:    userID,
			Name:      name,
			Email:     email,
			CreatedAt: now(),
		}
		if err := e.users.Create(ctx, existing); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	// Safe to call on every login; the bonus lands exactly once.
	granted, err := e.ledger.GrantRegistrationBonus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if granted {
		// Pick up the bonus that just landed on the counters.
		if fresh, err := e.users.GetByUserID(ctx, userID); err == nil && fresh != nil {
			existing = fresh
		}
	}
	return existing, nil
}

// Profile returns a user's public profile with its cached counters. The
// payload is cached per user and dropped by follows, bookmarks and post
// lifecycle writes.
func (e *Engine) Profile(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}
	result, err := e.cache.Do(ctx, profileTTL, []string{TagUserProfile + userID}, "users.profile",
		[]interface{}{userID},
		func(ctx context.Context) (interface{}, error) {
			user, err := e.users.GetByUserID(ctx, userID)
			if err != nil {
				return nil, err
			}
			if user == nil {
				return nil, ErrNotFound
			}
			return user, nil
		})
	if err != nil {
		return nil, err
	}
	return result.(*models.User), nil
}

// UpdateProfile applies profile field changes and drops the cached payload
func (e *Engine) UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" || len(fields) == 0 {
		return ErrInvalidID
	}
	user, err := e.users.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if err := e.users.UpdateProfile(ctx, userID, fields); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	e.cache.Invalidate(TagUserProfile + userID)
	return nil
}

// PointsHistory returns a page of the user's point transactions, cached per
// user and dropped by every point-granting write.
func (e *Engine) PointsHistory(ctx context.Context, userID string, page, limit int) ([]*models.PointTransaction, int64, error) {
	if userID == "" {
		return nil, 0, ErrInvalidID
	}

	type historyPage struct {
		Transactions []*models.PointTransaction
		Total        int64
	}
	result, err := e.cache.Do(ctx, commentListTTL, []string{TagUserPoints + userID}, "users.points",
		[]interface{}{userID, page, limit},
		func(ctx context.Context) (interface{}, error) {
			txs, total, err := e.ledger.History(ctx, userID, page, limit)
			if err != nil {
				return nil, err
			}
			return &historyPage{Transactions: txs, Total: total}, nil
		})
	if err != nil {
		return nil, 0, err
	}
	hp := result.(*historyPage)
	return hp.Transactions, hp.Total, nil
}
