package model

import "time"

type NotificationType string

const (
	NotificationAssignment NotificationType = "assignment"
	NotificationUpdate     NotificationType = "update"
	NotificationMention    NotificationType = "mention"
	NotificationDeadline   NotificationType = "deadline"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationAssignment, NotificationUpdate, NotificationMention, NotificationDeadline:
		return true
	}
	return false
}

// Notification is the durable record behind every live notification.
// Read only ever moves from false to true.
type Notification struct {
	ID        string           `json:"id" bson:"_id"`
	UserID    string           `json:"userId" bson:"user_id"`
	Type      NotificationType `json:"type" bson:"type"`
	Title     string           `json:"title" bson:"title"`
	Message   string           `json:"message" bson:"message"`
	TaskID    string           `json:"taskId,omitempty" bson:"task_id,omitempty"`
	Read      bool             `json:"read" bson:"read"`
	CreatedAt time.Time        `json:"createdAt" bson:"created_at"`
}

// NotificationView is a Notification with its task denormalized for display.
// Task is nil when the notification has no task or the task no longer exists.
type NotificationView struct {
	Notification
	Task *TaskSummary `json:"task,omitempty"`
}
