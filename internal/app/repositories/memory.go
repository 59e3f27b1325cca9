package repositories

import (
	"context"
	"sync"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
)

type MemoryTaskRepo struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	tasks  map[int64]models.Task
}

func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{
		nextID: 1,
		tasks:  make(map[int64]models.Task),
	}
}

func (r *MemoryTaskRepo) List(ctx context.Context) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]models.Task, 0, len(r.order))
	for _, id := range r.order {
		tasks = append(tasks, r.tasks[id])
	}
	return tasks, nil
}

func (r *MemoryTaskRepo) Get(ctx context.Context, id int64) (models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	return t, nil
}

func (r *MemoryTaskRepo) Create(ctx context.Context, title, description string) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := models.Task{
		ID:          r.nextID,
		Title:       title,
		Description: description,
	}
	r.nextID++
	r.tasks[t.ID] = t
	r.order = append(r.order, t.ID)
	return t, nil
}

func (r *MemoryTaskRepo) Update(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	t = patch.Apply(t)
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryTaskRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(r.tasks, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
