package client

import (
	"sort"
	"sync"

	"github.com/Neeraj110/task-manager-app/internal/events"
)

// Query keys a UI should refetch after a live event.
const (
	KeyTasks         = "tasks"
	KeyDashboard     = "dashboard"
	KeyNotifications = "notifications"
)

const maxLiveNotifications = 50

type BoardPeer struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// Snapshot is a copy of the client state at one point in time.
type Snapshot struct {
	Online        []string
	Notifications []events.AssignmentNotification
	Board         string
	BoardPeers    []BoardPeer
}

// State folds server events into what a dashboard shows. It is safe for
// concurrent use.
type State struct {
	mu            sync.RWMutex
	online        []string
	notifications []events.AssignmentNotification
	board         string
	peers         map[string]BoardPeer
}

func NewState() *State {
	return &State{peers: make(map[string]BoardPeer)}
}

// Apply folds ev into the state and returns the query keys it invalidates.
func (s *State) Apply(ev events.ServerEvent) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case events.TaskCreated:
		return []string{KeyTasks, KeyDashboard, KeyNotifications}
	case events.TaskUpdated, events.TaskDeleted:
		return []string{KeyTasks, KeyDashboard}
	case events.AssignmentNotification:
		s.notifications = append([]events.AssignmentNotification{e}, s.notifications...)
		if len(s.notifications) > maxLiveNotifications {
			s.notifications = s.notifications[:maxLiveNotifications]
		}
		return []string{KeyNotifications}
	case events.OnlineUsers:
		s.online = append([]string(nil), e.Users...)
	case events.UserJoined:
		if s.board != "" && e.UserID != "" {
			s.peers[e.UserID] = BoardPeer{UserID: e.UserID, UserName: e.UserName}
		}
	case events.UserLeft:
		delete(s.peers, e.UserID)
	}
	return nil
}

func (s *State) setBoard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = id
	s.peers = make(map[string]BoardPeer)
}

func (s *State) currentBoard() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

func (s *State) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.online {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	peers := make([]BoardPeer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].UserID < peers[j].UserID })
	return Snapshot{
		Online:        append([]string(nil), s.online...),
		Notifications: append([]events.AssignmentNotification(nil), s.notifications...),
		Board:         s.board,
		BoardPeers:    peers,
	}
}
