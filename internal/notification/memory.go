package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]model.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]model.Notification)}
}

func (s *MemoryStore) Insert(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[n.ID]; ok {
		return fmt.Errorf("notification %s exists: %w", n.ID, apperr.ErrStorage)
	}
	s.items[n.ID] = *n
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]*model.Notification, error) {
	s.mu.RLock()
	out := []*model.Notification{}
	for _, n := range s.items {
		if n.UserID == userID {
			out = append(out, &n)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id, userID string) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return nil, fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
	}
	n.Read = true
	s.items[id] = n
	return &n, nil
}

func (s *MemoryStore) MarkAllRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for id, n := range s.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.items[id] = n
			changed++
		}
	}
	return changed, nil
}

func (s *MemoryStore) CountUnread(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}
