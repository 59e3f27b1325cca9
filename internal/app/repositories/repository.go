package repositories

import (
	"context"
	"errors"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepository is the authoritative task store. Implementations assign ids
// on Create and never hand out the same id twice.
type TaskRepository interface {
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id int64) (models.Task, error)
	Create(ctx context.Context, title, description string) (models.Task, error)
	Update(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, id int64) error
}
