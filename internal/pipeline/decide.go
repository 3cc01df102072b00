package pipeline

import (
	"github.com/Neeraj110/task-manager-app/internal/hub"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

type Mutation int

const (
	MutationCreate Mutation = iota
	MutationUpdate
	MutationDelete
)

func (m Mutation) String() string {
	switch m {
	case MutationCreate:
		return "created"
	case MutationUpdate:
		return "updated"
	case MutationDelete:
		return "deleted"
	}
	return "unknown"
}

// ShouldNotify reports whether a write gets an assignment notification for
// next. Creates notify any assignee other than the actor; updates only when
// the assignee changed to someone other than the actor. Deletes never do.
func ShouldNotify(m Mutation, prev, next, actorID string) bool {
	switch m {
	case MutationCreate:
		return next != "" && next != actorID
	case MutationUpdate:
		return next != "" && next != prev && next != actorID
	}
	return false
}

// Rooms lists the broadcast targets for a task event, each room once.
func Rooms(m Mutation, t *model.Task) []string {
	if m == MutationDelete || t == nil {
		return []string{hub.RoomDashboard}
	}
	rooms := []string{hub.RoomDashboard}
	if t.AssignedToID != "" {
		rooms = append(rooms, hub.UserRoom(t.AssignedToID))
	}
	if t.CreatorID != "" && t.CreatorID != t.AssignedToID {
		rooms = append(rooms, hub.UserRoom(t.CreatorID))
	}
	return rooms
}
