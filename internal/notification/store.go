package notification

import (
	"context"

	"github.com/Neeraj110/task-manager-app/internal/model"
)

// Store persists notifications. Every mutation filters on the owning user,
// so a caller can never touch another user's records. Mutations of records
// that do not exist or belong to someone else wrap apperr.ErrNotFound;
// backend faults wrap apperr.ErrStorage.
type Store interface {
	Insert(ctx context.Context, n *model.Notification) error
	// ListByUser returns at most limit notifications, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}
