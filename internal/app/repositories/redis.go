package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
	"github.com/redis/go-redis/v9"
)

// TaskCache is a read-through cache in front of a TaskRepository.
// Get methods return nil, nil on a miss.
//
// Every Delete bumps a version. Readers take the version before they read
// the store and pass it to Set, which is a no-op if the version moved in
// between, so a value read before a mutation never lands after it.
type TaskCache interface {
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	TaskVersion(ctx context.Context, id int64) (int64, error)
	SetTask(ctx context.Context, task models.Task, version int64, ttl time.Duration) error
	DeleteTask(ctx context.Context, id int64) error

	GetTaskList(ctx context.Context) ([]models.Task, error)
	TaskListVersion(ctx context.Context) (int64, error)
	SetTaskList(ctx context.Context, tasks []models.Task, version int64, ttl time.Duration) error
	DeleteTaskList(ctx context.Context) error
}

type RedisTaskRepository struct {
	rdb *redis.Client
}

func NewRedisTaskRepository(rdb *redis.Client) *RedisTaskRepository {
	return &RedisTaskRepository{rdb: rdb}
}

const (
	taskListKey        = "tasks:list"
	taskListVersionKey = "tasks:list:version"

	// versionTTL must outlive any single read-then-set window.
	versionTTL = time.Hour
)

func taskKey(id int64) string {
	return "task:" + strconv.FormatInt(id, 10)
}

func taskVersionKey(id int64) string {
	return taskKey(id) + ":version"
}

func (r *RedisTaskRepository) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	val, err := r.rdb.Get(ctx, taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}

	var task models.Task
	if err := json.Unmarshal(val, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *RedisTaskRepository) TaskVersion(ctx context.Context, id int64) (int64, error) {
	return r.version(ctx, taskVersionKey(id))
}

func (r *RedisTaskRepository) SetTask(ctx context.Context, task models.Task, version int64, ttl time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return r.setIfVersion(ctx, taskKey(task.ID), taskVersionKey(task.ID), data, version, ttl)
}

func (r *RedisTaskRepository) DeleteTask(ctx context.Context, id int64) error {
	return r.invalidate(ctx, taskKey(id), taskVersionKey(id))
}

func (r *RedisTaskRepository) GetTaskList(ctx context.Context) ([]models.Task, error) {
	val, err := r.rdb.Get(ctx, taskListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	if err := json.Unmarshal(val, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *RedisTaskRepository) TaskListVersion(ctx context.Context) (int64, error) {
	return r.version(ctx, taskListVersionKey)
}

func (r *RedisTaskRepository) SetTaskList(ctx context.Context, tasks []models.Task, version int64, ttl time.Duration) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return r.setIfVersion(ctx, taskListKey, taskListVersionKey, data, version, ttl)
}

func (r *RedisTaskRepository) DeleteTaskList(ctx context.Context) error {
	return r.invalidate(ctx, taskListKey, taskListVersionKey)
}

func (r *RedisTaskRepository) version(ctx context.Context, versionKey string) (int64, error) {
	v, err := r.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *RedisTaskRepository) setIfVersion(ctx context.Context, key, versionKey string, data []byte, version int64, ttl time.Duration) error {
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if errors.Is(err, redis.Nil) {
			current, err = 0, nil
		}
		if err != nil {
			return err
		}
		if current != version {
			return nil // invalidated since the read
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil // invalidated while setting
	}
	return err
}

func (r *RedisTaskRepository) invalidate(ctx context.Context, key, versionKey string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionTTL)
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

// NoopTaskCache always misses. Used when no redis is configured.
type NoopTaskCache struct{}

func (NoopTaskCache) GetTask(context.Context, int64) (*models.Task, error) { return nil, nil }

func (NoopTaskCache) TaskVersion(context.Context, int64) (int64, error) { return 0, nil }

func (NoopTaskCache) SetTask(context.Context, models.Task, int64, time.Duration) error { return nil }

func (NoopTaskCache) DeleteTask(context.Context, int64) error { return nil }

func (NoopTaskCache) GetTaskList(context.Context) ([]models.Task, error) { return nil, nil }

func (NoopTaskCache) TaskListVersion(context.Context) (int64, error) { return 0, nil }

func (NoopTaskCache) SetTaskList(context.Context, []models.Task, int64, time.Duration) error {
	return nil
}

func (NoopTaskCache) DeleteTaskList(context.Context) error { return nil }
