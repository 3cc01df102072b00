// Package user is a read-only view of the user accounts owned by the auth
// service. Tasks only need to know that an id exists and what to call it.
package user

import (
	"context"

	"github.com/Neeraj110/task-manager-app/internal/model"
)

// Directory resolves user ids. FindByID wraps apperr.ErrNotFound for
// unknown ids; backend faults wrap apperr.ErrStorage.
type Directory interface {
	FindByID(ctx context.Context, id string) (*model.UserSummary, error)
	// FindByIDs skips ids that do not exist.
	FindByIDs(ctx context.Context, ids []string) (map[string]model.UserSummary, error)
	Count(ctx context.Context) (int64, error)
}
