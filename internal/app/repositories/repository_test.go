package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
)

func strPtr(s string) *string { return &s }

// runRepositoryContract checks the behaviour every TaskRepository shares.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) TaskRepository) {
	ctx := context.Background()

	t.Run("create assigns fresh ids", func(t *testing.T) {
		repo := newRepo(t)

		a, err := repo.Create(ctx, "Buy milk", "2% from the store")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		b, err := repo.Create(ctx, "Walk dog", "")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if a.ID <= 0 || b.ID <= 0 || a.ID == b.ID {
			t.Fatalf("unexpected ids %d and %d", a.ID, b.ID)
		}
		if a.Title != "Buy milk" || a.Description != "2% from the store" {
			t.Fatalf("unexpected task %+v", a)
		}

		got, err := repo.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != a {
			t.Fatalf("get returned %+v, want %+v", got, a)
		}
	})

	t.Run("list keeps creation order", func(t *testing.T) {
		repo := newRepo(t)

		tasks, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(tasks) != 0 {
			t.Fatalf("expected empty store, got %d tasks", len(tasks))
		}

		var created []models.Task
		for _, title := range []string{"one", "two", "three"} {
			task, err := repo.Create(ctx, title, "")
			if err != nil {
				t.Fatalf("create %s: %v", title, err)
			}
			created = append(created, task)
		}

		tasks, err = repo.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(tasks) != 3 {
			t.Fatalf("expected 3 tasks, got %d", len(tasks))
		}
		for i := range created {
			if tasks[i] != created[i] {
				t.Errorf("position %d: got %+v, want %+v", i, tasks[i], created[i])
			}
		}
	})

	t.Run("update overwrites present fields only", func(t *testing.T) {
		repo := newRepo(t)
		task, _ := repo.Create(ctx, "Buy milk", "2% from the store")

		got, err := repo.Update(ctx, task.ID, models.TaskPatch{Description: strPtr("skim milk")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Title != "Buy milk" || got.Description != "skim milk" || got.ID != task.ID {
			t.Fatalf("unexpected task after description update: %+v", got)
		}

		got, err = repo.Update(ctx, task.ID, models.TaskPatch{Title: strPtr("")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Title != "" || got.Description != "skim milk" {
			t.Fatalf("unexpected task after title update: %+v", got)
		}

		stored, err := repo.Get(ctx, task.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored != got {
			t.Fatalf("stored %+v differs from returned %+v", stored, got)
		}
	})

	t.Run("empty update returns current record", func(t *testing.T) {
		repo := newRepo(t)
		task, _ := repo.Create(ctx, "title", "description")

		got, err := repo.Update(ctx, task.ID, models.TaskPatch{})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got != task {
			t.Fatalf("got %+v, want %+v", got, task)
		}
	})

	t.Run("missing ids report not found", func(t *testing.T) {
		repo := newRepo(t)

		if _, err := repo.Get(ctx, 999); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("get: expected ErrTaskNotFound, got %v", err)
		}
		if _, err := repo.Update(ctx, 999, models.TaskPatch{Title: strPtr("x")}); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("update: expected ErrTaskNotFound, got %v", err)
		}
		if _, err := repo.Update(ctx, 999, models.TaskPatch{}); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("empty update: expected ErrTaskNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, 999); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("delete: expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("deleted ids are gone and never reused", func(t *testing.T) {
		repo := newRepo(t)
		first, _ := repo.Create(ctx, "first", "")
		second, _ := repo.Create(ctx, "second", "")

		if err := repo.Delete(ctx, second.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.Get(ctx, second.ID); !errors.Is(err, ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound after delete, got %v", err)
		}
		if err := repo.Delete(ctx, second.ID); !errors.Is(err, ErrTaskNotFound) {
			t.Fatalf("second delete: expected ErrTaskNotFound, got %v", err)
		}

		third, _ := repo.Create(ctx, "third", "")
		if third.ID == second.ID || third.ID == first.ID {
			t.Fatalf("id %d was reused", third.ID)
		}

		tasks, _ := repo.List(ctx)
		if len(tasks) != 2 {
			t.Fatalf("expected 2 tasks after 3 creates and 1 delete, got %d", len(tasks))
		}
	})
}

func TestMemoryTaskRepo(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) TaskRepository {
		return NewMemoryTaskRepo()
	})
}

func TestMemoryTaskRepo_IndependentInstances(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryTaskRepo()
	b := NewMemoryTaskRepo()

	if _, err := a.Create(ctx, "only in a", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	task, err := b.Create(ctx, "first in b", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID != 1 {
		t.Fatalf("expected b to start at id 1, got %d", task.ID)
	}
	tasks, _ := b.List(ctx)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task in b, got %d", len(tasks))
	}
}

func TestSQLiteTaskRepo(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) TaskRepository {
		repo, err := NewSQLiteTaskRepo(filepath.Join(t.TempDir(), "tasks.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}
