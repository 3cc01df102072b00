package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/events"
	"github.com/Neeraj110/task-manager-app/internal/metrics"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	assignmentTitle = "New Task Assigned"
)

// Deliverer pushes a live event to one identity's private room.
type Deliverer interface {
	Unicast(identity string, ev events.ServerEvent) int
}

// TaskFinder resolves task ids for display next to a notification.
type TaskFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]*model.Task, error)
}

type AssignmentInput struct {
	AssigneeID     string
	TaskID         string
	TaskTitle      string
	AssignedByID   string
	AssignedByName string
}

type Service struct {
	store   Store
	deliver Deliverer
	tasks   TaskFinder
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store Store, deliver Deliverer, tasks TaskFinder, logger *zap.SugaredLogger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		store:   store,
		deliver: deliver,
		tasks:   tasks,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create persists an unread notification. It never delivers anything live.
func (s *Service) Create(ctx context.Context, userID string, typ model.NotificationType, title, message, taskID string) (*model.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: notification recipient required", apperr.ErrBadRequest)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown notification type %q", apperr.ErrBadRequest, typ)
	}
	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		TaskID:    taskID,
		CreatedAt: s.now(),
	}
	if err := s.store.Insert(ctx, n); err != nil {
		return nil, err
	}
	s.metrics.NotificationCreated(string(typ))
	return n, nil
}

// CreateAssignmentNotification persists the assignment record and then
// pushes notification:assignment to the assignee. Nothing is pushed when the
// write fails; an offline assignee only sees the stored record.
func (s *Service) CreateAssignmentNotification(ctx context.Context, in AssignmentInput) (*model.Notification, error) {
	msg := fmt.Sprintf("%s assigned you to task: \"%s\"", in.AssignedByName, in.TaskTitle)
	n, err := s.Create(ctx, in.AssigneeID, model.NotificationAssignment, assignmentTitle, msg, in.TaskID)
	if err != nil {
		return nil, err
	}

	if s.deliver != nil {
		delivered := s.deliver.Unicast(in.AssigneeID, events.AssignmentNotification{
			TaskID:         in.TaskID,
			TaskTitle:      in.TaskTitle,
			AssignedBy:     in.AssignedByID,
			AssignedByName: in.AssignedByName,
			CreatedAt:      n.CreatedAt,
		})
		s.logger.Debugw("assignment notification", "user_id", in.AssigneeID, "task_id", in.TaskID, "live_deliveries", delivered)
	}
	return n, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

// ListForUser returns one page of the user's notifications, newest first,
// with task title and status attached where the task still exists.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]model.NotificationView, error) {
	items, err := s.store.ListByUser(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}

	byID := map[string]*model.Task{}
	if s.tasks != nil {
		ids := make([]string, 0, len(items))
		seen := map[string]struct{}{}
		for _, n := range items {
			if n.TaskID == "" {
				continue
			}
			if _, ok := seen[n.TaskID]; ok {
				continue
			}
			seen[n.TaskID] = struct{}{}
			ids = append(ids, n.TaskID)
		}
		if len(ids) > 0 {
			tasks, err := s.tasks.FindByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			for _, t := range tasks {
				byID[t.ID] = t
			}
		}
	}

	out := make([]model.NotificationView, 0, len(items))
	for _, n := range items {
		v := model.NotificationView{Notification: *n}
		if t, ok := byID[n.TaskID]; ok {
			v.Task = &model.TaskSummary{ID: t.ID, Title: t.Title, Status: t.Status}
		}
		out = append(out, v)
	}
	return out, nil
}

// MarkRead reports apperr.ErrNotFound for notifications owned by others.
func (s *Service) MarkRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	return s.store.MarkRead(ctx, id, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}
