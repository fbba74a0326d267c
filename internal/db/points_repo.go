package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vurse/backend/internal/models"
)

// PointsRepository provides point-transaction database operations. The table
// is append-only from the engine's point of view; rows are deleted only to
// revoke an award.
type PointsRepository struct {
	*Repository
}

// NewPointsRepository creates a new points repository
func NewPointsRepository(repo *Repository) *PointsRepository {
	return &PointsRepository{Repository: repo}
}

// Create appends a point transaction
func (r *PointsRepository) Create(ctx context.Context, tx *models.PointTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// FindBySource returns the transaction awarded to userID for the given
// source and reason, or nil if none exists.
func (r *PointsRepository) FindBySource(ctx context.Context, userID, sourceID, reason string) (*models.PointTransaction, error) {
	var tx models.PointTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND source_id = ? AND reason = ?", userID, sourceID, reason).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// FindByReason returns the first transaction awarded to userID for the given
// reason regardless of source, or nil if none exists.
func (r *PointsRepository) FindByReason(ctx context.Context, userID, reason string) (*models.PointTransaction, error) {
	var tx models.PointTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND reason = ?", userID, reason).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// DeleteByID removes a transaction row; returns true when a row was removed.
func (r *PointsRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PointTransaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListForPost returns every transaction tied to a post, for clawback when
// the post is deleted.
func (r *PointsRepository) ListForPost(ctx context.Context, postID string) ([]*models.PointTransaction, error) {
	var txs []*models.PointTransaction
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Find(&txs).Error
	return txs, err
}

// DeleteForPost removes every transaction tied to a post
func (r *PointsRepository) DeleteForPost(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.PointTransaction{}).Error
}

// ListForUser returns a page of the user's transactions, newest first, plus
// the total count.
func (r *PointsRepository) ListForUser(ctx context.Context, userID string, page, limit int) ([]*models.PointTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.PointTransaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txs []*models.PointTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// SumForUser recomputes the user's total from the ledger rows. Used for
// reconciliation against the cached rollup, not on hot paths.
func (r *PointsRepository) SumForUser(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	return sum, err
}

// NotificationRepository provides notification database operations
type NotificationRepository struct {
	*Repository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{Repository: repo}
}

// Create persists a notification row
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListForUser returns a page of the user's notifications, newest first, plus
// the total count.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, page, limit int) ([]*models.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var notifications []*models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// CountUnread returns the user's unread notification count
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read; returns true when a row changed.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		UpdateColumn("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected >= 1, nil
}

// MarkAllRead marks every unread notification for the user read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	return res.RowsAffected, res.Error
}
