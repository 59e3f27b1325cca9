package repositories

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// AUTOINCREMENT keeps sqlite from handing out the id of a deleted max row again.
const createSQLiteTasksTable = `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)
`

type taskRow struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	Title       string `gorm:"column:title"`
	Description string `gorm:"column:description"`
}

func (taskRow) TableName() string { return "tasks" }

func (r taskRow) model() models.Task {
	return models.Task{ID: r.ID, Title: r.Title, Description: r.Description}
}

type SQLiteTaskRepo struct {
	db *gorm.DB
}

func NewSQLiteTaskRepo(path string) (*SQLiteTaskRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	gdb, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := gdb.Exec(`PRAGMA busy_timeout=5000;`).Error; err != nil {
		return nil, err
	}
	if err := gdb.Exec(createSQLiteTasksTable).Error; err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return &SQLiteTaskRepo{db: gdb}, nil
}

func (r *SQLiteTaskRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *SQLiteTaskRepo) List(ctx context.Context) ([]models.Task, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.model())
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) Get(ctx context.Context, id int64) (models.Task, error) {
	var row taskRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	return row.model(), nil
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, title, description string) (models.Task, error) {
	row := taskRow{Title: title, Description: description}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Task{}, err
	}
	return row.model(), nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	var out models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if len(updates) > 0 {
			res := tx.Model(&taskRow{}).Where("id = ?", id).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
		}
		var row taskRow
		if err := tx.Where("id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		out = row.model()
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Task{}, ErrTaskNotFound
	}
	return out, err
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&taskRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
