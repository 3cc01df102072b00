package task

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Neeraj110/task-manager-app/internal/model"
)

const (
	activityLimit = 5
	deadlineLimit = 5
	day           = 24 * time.Hour
)

type Stats struct {
	TotalTasks     int   `json:"totalTasks"`
	CompletedTasks int   `json:"completedTasks"`
	InProgress     int   `json:"inProgress"`
	Urgent         int   `json:"urgent"`
	TeamMembers    int64 `json:"teamMembers"`
}

type Activity struct {
	ID     string `json:"id"`
	User   string `json:"user"`
	Action string `json:"action"`
	Task   string `json:"task"`
	Time   string `json:"time"`
}

type Deadline struct {
	ID       string         `json:"id"`
	Task     string         `json:"task"`
	Due      string         `json:"due"`
	Priority model.Priority `json:"priority"`
	Status   model.Status   `json:"status"`
}

type OverdueTask struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     time.Time      `json:"dueDate"`
	Priority    model.Priority `json:"priority"`
	Status      model.Status   `json:"status"`
	AssignedTo  string         `json:"assignedTo"`
	DaysOverdue int            `json:"daysOverdue"`
}

// Stats counts the tasks the actor created or is assigned to.
func (s *Service) Stats(ctx context.Context, actor model.Actor) (Stats, error) {
	tasks, err := s.repo.List(ctx, ListFilter{UserID: actor.ID})
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalTasks: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case model.StatusCompleted:
			st.CompletedTasks++
		case model.StatusInProgress:
			st.InProgress++
		}
		if t.Priority == model.PriorityUrgent {
			st.Urgent++
		}
	}
	if st.TeamMembers, err = s.users.Count(ctx); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// Activity describes the most recently touched tasks of the actor.
func (s *Service) Activity(ctx context.Context, actor model.Actor) ([]Activity, error) {
	tasks, err := s.repo.List(ctx, ListFilter{UserID: actor.ID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt) })
	if len(tasks) > activityLimit {
		tasks = tasks[:activityLimit]
	}
	if err := s.populate(ctx, tasks...); err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]Activity, 0, len(tasks))
	for _, t := range tasks {
		a := Activity{ID: t.ID, Task: t.Title, Time: timeAgo(now, t.UpdatedAt)}
		switch t.Status {
		case model.StatusCompleted:
			a.Action, a.User = "completed", nameOf(t.AssignedTo, UnknownActor)
		case model.StatusInProgress:
			a.Action, a.User = "started working on", nameOf(t.AssignedTo, UnknownActor)
		default:
			a.Action, a.User = "created", nameOf(t.Creator, UnknownActor)
		}
		out = append(out, a)
	}
	return out, nil
}

// Deadlines lists the next open tasks assigned to the actor that are not yet due.
func (s *Service) Deadlines(ctx context.Context, actor model.Actor) ([]Deadline, error) {
	tasks, err := s.openAssigned(ctx, actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []Deadline{}
	for _, t := range tasks {
		if !t.DueDate.After(now) {
			continue
		}
		out = append(out, Deadline{
			ID:       t.ID,
			Task:     t.Title,
			Due:      dueLabel(now, t.DueDate),
			Priority: t.Priority,
			Status:   t.Status,
		})
		if len(out) == deadlineLimit {
			break
		}
	}
	return out, nil
}

// Overdue lists open tasks assigned to the actor whose due date has passed,
// oldest deadline first.
func (s *Service) Overdue(ctx context.Context, actor model.Actor) ([]OverdueTask, error) {
	tasks, err := s.openAssigned(ctx, actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	late := []*model.Task{}
	for _, t := range tasks {
		if t.DueDate.Before(now) {
			late = append(late, t)
		}
	}
	if err := s.populate(ctx, late...); err != nil {
		return nil, err
	}

	out := make([]OverdueTask, 0, len(late))
	for _, t := range late {
		out = append(out, OverdueTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			DueDate:     t.DueDate,
			Priority:    t.Priority,
			Status:      t.Status,
			AssignedTo:  nameOf(t.AssignedTo, "Unassigned"),
			DaysOverdue: int(now.Sub(t.DueDate) / day),
		})
	}
	return out, nil
}

// openAssigned returns the actor's assigned tasks that are not completed and
// have a due date, earliest first.
func (s *Service) openAssigned(ctx context.Context, actor model.Actor) ([]*model.Task, error) {
	tasks, err := s.repo.List(ctx, ListFilter{UserID: actor.ID, Assigned: true})
	if err != nil {
		return nil, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if t.Status != model.StatusCompleted && !t.DueDate.IsZero() {
			out = append(out, t)
		}
	}
	SortTasks(out, SortDueDate)
	return out, nil
}

func nameOf(u *model.UserSummary, fallback string) string {
	if u == nil || u.Name == "" {
		return fallback
	}
	return u.Name
}

func timeAgo(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d/time.Minute))
	case d < day:
		return fmt.Sprintf("%d hours ago", int(d/time.Hour))
	case d < 7*day:
		return fmt.Sprintf("%d days ago", int(d/day))
	}
	return t.Format("1/2/2006")
}

func dueLabel(now, due time.Time) string {
	switch {
	case sameDay(due, now):
		return "today"
	case sameDay(due, now.AddDate(0, 0, 1)):
		return "tomorrow"
	}
	if days := int(due.Sub(now) / day); days < 7 {
		return fmt.Sprintf("in %d days", days)
	}
	return due.Format("Jan 2")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
