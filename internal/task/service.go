package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/model"
	"github.com/Neeraj110/task-manager-app/internal/user"
)

// UnknownActor stands in for a display name the directory cannot resolve.
const UnknownActor = "Someone"

type CreateInput struct {
	Title        string         `json:"title" validate:"required,max=200"`
	Description  string         `json:"description" validate:"max=5000"`
	DueDate      time.Time      `json:"dueDate"`
	Priority     model.Priority `json:"priority" validate:"omitempty,oneof=Low Medium High Urgent"`
	AssignedToID string         `json:"assignedToId" validate:"max=128"`
}

// UpdateInput carries a partial update; nil fields are left alone. An empty
// AssignedToID clears the assignee.
type UpdateInput struct {
	Title        *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string         `json:"description" validate:"omitempty,max=5000"`
	DueDate      *time.Time      `json:"dueDate"`
	Priority     *model.Priority `json:"priority" validate:"omitempty,oneof=Low Medium High Urgent"`
	Status       *model.Status   `json:"status" validate:"omitempty,oneof='To Do' 'In Progress' Review Completed"`
	AssignedToID *string         `json:"assignedToId" validate:"omitempty,max=128"`
}

type ListQuery struct {
	Created  bool
	Assigned bool
	Status   model.Status
	Priority model.Priority
	SortBy   string
}

// Service applies the task access rules on top of a Repository: creator or
// assignee may read and update, only the creator may delete. Assignees must
// exist in the user directory.
type Service struct {
	repo     Repository
	users    user.Directory
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, users user.Directory) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ResolveActor fills in a missing display name from the directory.
func (s *Service) ResolveActor(ctx context.Context, a model.Actor) model.Actor {
	if a.Name != "" || a.ID == "" {
		return a
	}
	a.Name = UnknownActor
	if u, err := s.users.FindByID(ctx, a.ID); err == nil && u.Name != "" {
		a.Name = u.Name
	}
	return a
}

func (s *Service) checkAssignee(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return fmt.Errorf("assignee: %w", err)
	}
	return nil
}

// populate attaches creator and assignee summaries. Users the directory does
// not know are left nil.
func (s *Service) populate(ctx context.Context, tasks ...*model.Task) error {
	seen := make(map[string]struct{})
	ids := []string{}
	for _, t := range tasks {
		for _, id := range []string{t.CreatorID, t.AssignedToID} {
			if _, ok := seen[id]; id != "" && !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		t.Creator, t.AssignedTo = nil, nil
		if u, ok := users[t.CreatorID]; ok {
			t.Creator = &u
		}
		if u, ok := users[t.AssignedToID]; ok {
			t.AssignedTo = &u
		}
	}
	return nil
}

// populateCommitted is populate after a write: the write stands, a directory
// fault only costs the summaries.
func (s *Service) populateCommitted(ctx context.Context, t *model.Task) {
	_ = s.populate(ctx, t)
}

func (s *Service) Repository() Repository { return s.repo }

func (s *Service) Create(ctx context.Context, actor model.Actor, in CreateInput) (*model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.AssignedToID = strings.TrimSpace(in.AssignedToID)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: dueDate is required", apperr.ErrBadRequest)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if err := s.checkAssignee(ctx, in.AssignedToID); err != nil {
		return nil, err
	}

	now := s.now()
	t := &model.Task{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      in.DueDate.UTC(),
		Priority:     in.Priority,
		Status:       model.StatusTodo,
		CreatorID:    actor.ID,
		AssignedToID: in.AssignedToID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.populateCommitted(ctx, t)
	return t, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id string) (*model.Task, error) {
	t, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) find(ctx context.Context, actor model.Actor, id string) (*model.Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(t, actor.ID) {
		return nil, fmt.Errorf("task %s: %w", id, apperr.ErrForbidden)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, q ListQuery) ([]*model.Task, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrBadRequest, q.Status)
	}
	if q.Priority != "" && !q.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", apperr.ErrBadRequest, q.Priority)
	}
	tasks, err := s.repo.List(ctx, ListFilter{
		UserID:   actor.ID,
		Created:  q.Created,
		Assigned: q.Assigned,
		Status:   q.Status,
		Priority: q.Priority,
	})
	if err != nil {
		return nil, err
	}
	SortTasks(tasks, q.SortBy)
	if err := s.populate(ctx, tasks...); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies in and returns the stored task together with the assignee
// it had before the write.
func (s *Service) Update(ctx context.Context, actor model.Actor, id string, in UpdateInput) (*model.Task, string, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	t, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	prev := t.AssignedToID

	if in.AssignedToID != nil {
		next := strings.TrimSpace(*in.AssignedToID)
		if next != prev {
			if err := s.checkAssignee(ctx, next); err != nil {
				return nil, "", err
			}
		}
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate.UTC()
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.AssignedToID != nil {
		t.AssignedToID = strings.TrimSpace(*in.AssignedToID)
	}
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, "", err
	}
	s.populateCommitted(ctx, t)
	return t, prev, nil
}

// UpdateStatus moves a task through the workflow and returns the previous
// assignee alongside the stored task.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Actor, id string, status model.Status) (*model.Task, string, error) {
	if !status.Valid() {
		return nil, "", fmt.Errorf("%w: unknown status %q", apperr.ErrBadRequest, status)
	}
	t, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	prev := t.AssignedToID

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, "", err
	}
	s.populateCommitted(ctx, updated)
	return updated, prev, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id string) error {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if t.CreatorID != actor.ID {
		return fmt.Errorf("only the creator can delete task %s: %w", id, apperr.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

func canAccess(t *model.Task, userID string) bool {
	return t.CreatorID == userID || (t.AssignedToID != "" && t.AssignedToID == userID)
}
