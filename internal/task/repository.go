package task

import (
	"context"
	"sort"

	"github.com/Neeraj110/task-manager-app/internal/model"
)

// ListFilter scopes a task listing to one user. Without Created or Assigned
// a task matches when the user created it or is assigned to it.
type ListFilter struct {
	UserID   string
	Created  bool
	Assigned bool
	Status   model.Status
	Priority model.Priority
}

// Repository is the durable task store. Lookups of unknown ids return an
// error wrapping apperr.ErrNotFound; backend faults wrap apperr.ErrStorage.
type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Task, error)
	// FindByIDs skips ids that do not exist.
	FindByIDs(ctx context.Context, ids []string) ([]*model.Task, error)
	Create(ctx context.Context, t *model.Task) error
	Update(ctx context.Context, t *model.Task) error
	UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Task, error)
	Delete(ctx context.Context, id string) error
	// List returns matching tasks newest first.
	List(ctx context.Context, f ListFilter) ([]*model.Task, error)
}

const (
	SortCreatedAt = "createdAt"
	SortDueDate   = "dueDate"
	SortPriority  = "priority"
)

// SortTasks orders tasks in place. Unknown keys keep newest first.
func SortTasks(tasks []*model.Task, by string) {
	switch by {
	case SortDueDate:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
	case SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Priority.Rank() > tasks[j].Priority.Rank() })
	default:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	}
}

func (f ListFilter) matches(t *model.Task) bool {
	switch {
	case f.Created && f.Assigned:
		if t.CreatorID != f.UserID && t.AssignedToID != f.UserID {
			return false
		}
	case f.Created:
		if t.CreatorID != f.UserID {
			return false
		}
	case f.Assigned:
		if t.AssignedToID != f.UserID {
			return false
		}
	default:
		if t.CreatorID != f.UserID && t.AssignedToID != f.UserID {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}
