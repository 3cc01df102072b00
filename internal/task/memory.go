package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

// MemoryRepository keeps tasks in process. Tests use it in place of Mongo.
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[string]model.Task)}
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
	}
	return &t, nil
}

func (r *MemoryRepository) FindByIDs(_ context.Context, ids []string) ([]*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.Task{}
	for _, id := range ids {
		if t, ok := r.tasks[id]; ok {
			out = append(out, &t)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Create(_ context.Context, t *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; ok {
		return fmt.Errorf("task %s exists: %w", t.ID, apperr.ErrStorage)
	}
	r.tasks[t.ID] = *t
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, t *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return fmt.Errorf("task %s: %w", t.ID, apperr.ErrNotFound)
	}
	r.tasks[t.ID] = *t
	return nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, status model.Status) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	r.tasks[id] = t
	return &t, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, f ListFilter) ([]*model.Task, error) {
	r.mu.RLock()
	out := []*model.Task{}
	for _, t := range r.tasks {
		if f.matches(&t) {
			t := t
			out = append(out, &t)
		}
	}
	r.mu.RUnlock()
	SortTasks(out, SortCreatedAt)
	return out, nil
}
