package user

import (
	"context"
	"fmt"
	"sync"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]model.UserSummary
}

func NewMemoryDirectory(users ...model.UserSummary) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]model.UserSummary, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *MemoryDirectory) Add(u model.UserSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *MemoryDirectory) FindByID(_ context.Context, id string) (*model.UserSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return &u, nil
}

func (d *MemoryDirectory) FindByIDs(_ context.Context, ids []string) (map[string]model.UserSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (d *MemoryDirectory) Count(context.Context) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return int64(len(d.users)), nil
}
