package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kalpovskii/checklist-ai/internal/app/models"
)

func newMockPostgres(t *testing.T) (*PostgresTaskRepo, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tasks").WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewPostgresTaskRepoFromDB(context.Background(), db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo, mock
}

func TestPostgresTaskRepo_List(t *testing.T) {
	repo, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT id, title, description FROM tasks ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description"}).
			AddRow(1, "one", "first").
			AddRow(3, "three", ""))

	tasks, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != 1 || tasks[1].Title != "three" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresTaskRepo_ListEmpty(t *testing.T) {
	repo, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT id, title, description FROM tasks`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description"}))

	tasks, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestPostgresTaskRepo_Create(t *testing.T) {
	repo, mock := newMockPostgres(t)

	mock.ExpectQuery(`INSERT INTO tasks \(title, description\) VALUES \(\$1, \$2\) RETURNING id, title, description`).
		WithArgs("Buy milk", "2% from the store").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description"}).
			AddRow(1, "Buy milk", "2% from the store"))

	task, err := repo.Create(context.Background(), "Buy milk", "2% from the store")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := models.Task{ID: 1, Title: "Buy milk", Description: "2% from the store"}
	if task != want {
		t.Fatalf("got %+v, want %+v", task, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresTaskRepo_GetNotFound(t *testing.T) {
	repo, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT id, title, description FROM tasks WHERE id = \$1`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description"}))

	if _, err := repo.Get(context.Background(), 42); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestPostgresTaskRepo_UpdatePassesNullForAbsentFields(t *testing.T) {
	repo, mock := newMockPostgres(t)

	mock.ExpectQuery(`UPDATE tasks SET title = COALESCE\(\$2, title\), description = COALESCE\(\$3, description\)`).
		WithArgs(1, nil, "skim milk").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description"}).
			AddRow(1, "Buy milk", "skim milk"))

	desc := "skim milk"
	task, err := repo.Update(context.Background(), 1, models.TaskPatch{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if task.Title != "Buy milk" || task.Description != "skim milk" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresTaskRepo_UpdateNotFound(t *testing.T) {
	repo, mock := newMockPostgres(t)

	mock.ExpectQuery(`UPDATE tasks`).
		WithArgs(7, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description"}))

	if _, err := repo.Update(context.Background(), 7, models.TaskPatch{}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestPostgresTaskRepo_Delete(t *testing.T) {
	repo, mock := newMockPostgres(t)

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(context.Background(), 1); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestPostgresTaskRepo_StoreErrorPassesThrough(t *testing.T) {
	repo, mock := newMockPostgres(t)

	dbErr := errors.New("connection refused")
	mock.ExpectQuery(`SELECT id, title, description FROM tasks`).WillReturnError(dbErr)

	_, err := repo.List(context.Background())
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if errors.Is(err, ErrTaskNotFound) {
		t.Fatal("store error must not be reported as not found")
	}
}
