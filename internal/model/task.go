package model

import "time"

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// Rank orders priorities for sorting, Urgent highest.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p Priority) Valid() bool { return p.Rank() > 0 }

type Status string

const (
	StatusTodo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusReview     Status = "Review"
	StatusCompleted  Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusCompleted:
		return true
	}
	return false
}

// Task is owned by the task repository. The realtime core only reads
// CreatorID and AssignedToID after a mutation has been committed. Creator
// and AssignedTo are resolved from the user directory and never stored.
type Task struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	Description  string    `json:"description" bson:"description"`
	DueDate      time.Time `json:"dueDate" bson:"due_date"`
	Priority     Priority  `json:"priority" bson:"priority"`
	Status       Status    `json:"status" bson:"status"`
	CreatorID    string    `json:"creatorId" bson:"creator_id"`
	AssignedToID string    `json:"assignedToId" bson:"assigned_to_id"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`

	Creator    *UserSummary `json:"creator,omitempty" bson:"-"`
	AssignedTo *UserSummary `json:"assignedTo,omitempty" bson:"-"`
}

// Actor is the authenticated identity performing a mutation.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskSummary is the denormalized slice of a task shown next to a notification.
type TaskSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status Status `json:"status"`
}
