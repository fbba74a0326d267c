package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/models"
	"github.com/vurse/backend/pkg/logging"
)

// Notifier persists notifications and pushes them to live connections.
// Persistence failures are returned; push failures are absorbed so an
// offline or flaky recipient never fails the engagement action that
// triggered the notification.
type Notifier struct {
	repo     *db.NotificationRepository
	registry *Registry
	logger   *zap.Logger
}

// NewNotifier creates a notifier over the given repository and registry
func NewNotifier(repo *db.NotificationRepository, registry *Registry) *Notifier {
	return &Notifier{
		repo:     repo,
		registry: registry,
		logger:   logging.GetLogger().Named("notify"),
	}
}

// Notify persists a notification for the recipient and pushes it to their
// live connections. Self-notifications are dropped silently: acting on your
// own content never generates one.
func (n *Notifier) Notify(ctx context.Context, recipientID string, actor Actor, notifType, message, postID, commentID string) error {
	if recipientID == "" || recipientID == actor.UserID {
		return nil
	}

	row := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    recipientID,
		ActorID:   actor.UserID,
		PostID:    postID,
		CommentID: commentID,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := n.repo.Create(ctx, row); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	event := &Event{
		ID:        row.ID,
		Type:      notifType,
		Message:   message,
		Actor:     actor,
		PostID:    postID,
		CommentID: commentID,
		CreatedAt: row.CreatedAt,
	}
	delivered := n.registry.Push(recipientID, event)
	n.logger.Debug("notification dispatched",
		zap.String("user_id", recipientID),
		zap.String("type", notifType),
		zap.Int("delivered", delivered))
	return nil
}

// Inbox returns a page of the recipient's stored notifications, newest
// first, plus the total count.
func (n *Notifier) Inbox(ctx context.Context, userID string, page, limit int) ([]*models.Notification, int64, error) {
	return n.repo.ListForUser(ctx, userID, page, limit)
}

// UnreadCount returns the recipient's unread notification count
func (n *Notifier) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return n.repo.CountUnread(ctx, userID)
}

// MarkRead marks one notification read; false means no such notification
// belongs to the user.
func (n *Notifier) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	return n.repo.MarkRead(ctx, userID, notificationID)
}

// MarkAllRead marks every unread notification for the user read and returns
// how many changed.
func (n *Notifier) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return n.repo.MarkAllRead(ctx, userID)
}
