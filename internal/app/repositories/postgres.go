package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/kalpovskii/checklist-ai/internal/app/models"
	_ "github.com/lib/pq"
)

const createTasksTable = `
	CREATE TABLE IF NOT EXISTS tasks (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)
`

type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo opens dsn with the given database/sql driver name,
// "postgres" for lib/pq or "pgx" for the pgx stdlib adapter.
func NewPostgresTaskRepo(ctx context.Context, driver, dsn string) (*PostgresTaskRepo, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	repo, err := NewPostgresTaskRepoFromDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func NewPostgresTaskRepoFromDB(ctx context.Context, db *sql.DB) (*PostgresTaskRepo, error) {
	if _, err := db.ExecContext(ctx, createTasksTable); err != nil {
		return nil, fmt.Errorf("create tasks table: %w", err)
	}
	return &PostgresTaskRepo{db: db}, nil
}

func (r *PostgresTaskRepo) Close() error {
	return r.db.Close()
}

func (r *PostgresTaskRepo) List(ctx context.Context) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, title, description FROM tasks ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *PostgresTaskRepo) Get(ctx context.Context, id int64) (models.Task, error) {
	var t models.Task
	err := r.db.QueryRowContext(ctx, "SELECT id, title, description FROM tasks WHERE id = $1", id).
		Scan(&t.ID, &t.Title, &t.Description)
	return t, notFound(err)
}

func (r *PostgresTaskRepo) Create(ctx context.Context, title, description string) (models.Task, error) {
	var t models.Task
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO tasks (title, description) VALUES ($1, $2) RETURNING id, title, description",
		title, description,
	).Scan(&t.ID, &t.Title, &t.Description)
	return t, err
}

// Update writes only the fields present in patch; absent ones are passed as
// NULL and kept by COALESCE, so the whole change is a single statement.
func (r *PostgresTaskRepo) Update(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	var t models.Task
	err := r.db.QueryRowContext(ctx,
		"UPDATE tasks SET title = COALESCE($2, title), description = COALESCE($3, description) "+
			"WHERE id = $1 RETURNING id, title, description",
		id, nullString(patch.Title), nullString(patch.Description),
	).Scan(&t.ID, &t.Title, &t.Description)
	return t, notFound(err)
}

func (r *PostgresTaskRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTaskNotFound
	}
	return err
}
