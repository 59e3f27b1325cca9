package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
	"github.com/kalpovskii/checklist-ai/internal/app/repositories"
)

const (
	taskTTL     = 60 * time.Second
	taskListTTL = 15 * time.Second
)

var ErrInvalidTask = errors.New("title is required")

type Suggester interface {
	Suggest(ctx context.Context, description string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

type TaskService struct {
	repo      repositories.TaskRepository
	cache     repositories.TaskCache
	suggester Suggester
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*TaskService)

func WithCache(cache repositories.TaskCache) Option {
	return func(s *TaskService) { s.cache = cache }
}

func WithEvents(events EventPublisher) Option {
	return func(s *TaskService) { s.events = events }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *TaskService) { s.logger = logger }
}

func NewTaskService(repo repositories.TaskRepository, suggester Suggester, opts ...Option) *TaskService {
	s := &TaskService{
		repo:      repo,
		cache:     repositories.NoopTaskCache{},
		suggester: suggester,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseID turns a path segment into a task id. Anything that is not a
// positive base-10 integer cannot name a task and reports ErrTaskNotFound.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, repositories.ErrTaskNotFound
	}
	return id, nil
}

func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	if tasks, err := s.cache.GetTaskList(ctx); err == nil && tasks != nil {
		return tasks, nil
	}
	version, versionErr := s.cache.TaskListVersion(ctx)

	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	if versionErr == nil {
		_ = s.cache.SetTaskList(ctx, tasks, version, taskListTTL)
	}

	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, rawID string) (models.Task, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return models.Task{}, err
	}
	return s.get(ctx, id)
}

func (s *TaskService) get(ctx context.Context, id int64) (models.Task, error) {
	if task, err := s.cache.GetTask(ctx, id); err == nil && task != nil {
		return *task, nil
	}
	version, versionErr := s.cache.TaskVersion(ctx, id)

	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	if versionErr == nil {
		_ = s.cache.SetTask(ctx, task, version, taskTTL)
	}

	return task, nil
}

func (s *TaskService) Create(ctx context.Context, title, description string) (models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return models.Task{}, ErrInvalidTask
	}

	task, err := s.repo.Create(ctx, title, description)
	if err != nil {
		return models.Task{}, err
	}

	_ = s.cache.DeleteTaskList(ctx)
	s.publish(ctx, models.ActionCreated, task.ID)

	return task, nil
}

func (s *TaskService) Update(ctx context.Context, rawID string, patch models.TaskPatch) (models.Task, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return models.Task{}, err
	}

	task, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return models.Task{}, err
	}

	_ = s.cache.DeleteTask(ctx, id)
	_ = s.cache.DeleteTaskList(ctx)
	if !patch.Empty() {
		s.publish(ctx, models.ActionUpdated, task.ID)
	}

	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, rawID string) error {
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.cache.DeleteTask(ctx, id)
	_ = s.cache.DeleteTaskList(ctx)
	s.publish(ctx, models.ActionDeleted, id)

	return nil
}

// Suggest looks the task up and asks the suggester about its description.
// Suggester errors are returned as is.
func (s *TaskService) Suggest(ctx context.Context, rawID string) (models.Suggestion, error) {
	task, err := s.Get(ctx, rawID)
	if err != nil {
		return models.Suggestion{}, err
	}

	text, err := s.suggester.Suggest(ctx, task.Description)
	if err != nil {
		return models.Suggestion{}, err
	}

	s.publish(ctx, models.ActionSuggested, task.ID)

	return models.Suggestion{Suggestion: text}, nil
}

func (s *TaskService) publish(ctx context.Context, action string, id int64) {
	if s.events == nil {
		return
	}
	event := models.Event{Action: action, TaskID: id, At: s.now().UTC()}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish task event", "action", action, "task_id", id, "error", err)
	}
}
