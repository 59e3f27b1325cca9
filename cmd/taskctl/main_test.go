package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kalpovskii/checklist-ai/internal/app/handlers"
	"github.com/kalpovskii/checklist-ai/internal/app/repositories"
	"github.com/kalpovskii/checklist-ai/internal/app/services"
	"github.com/kalpovskii/checklist-ai/internal/app/suggest"
)

type suggesterFunc func(ctx context.Context, description string) (string, error)

func (f suggesterFunc) Suggest(ctx context.Context, description string) (string, error) {
	return f(ctx, description)
}

func newTestAPI(t *testing.T) (string, *repositories.MemoryTaskRepo) {
	t.Helper()

	return newTestAPIWith(t, suggesterFunc(func(ctx context.Context, description string) (string, error) {
		return "Priority: High", nil
	}))
}

func newTestAPIWith(t *testing.T, suggester services.Suggester) (string, *repositories.MemoryTaskRepo) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewMemoryTaskRepo()
	svc := services.NewTaskService(repo, suggester, services.WithLogger(logger))
	srv := httptest.NewServer(handlers.NewServer(svc, logger).Handler())
	t.Cleanup(srv.Close)
	return srv.URL, repo
}

func run(t *testing.T, server, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	server, repo := newTestAPI(t)

	out, err := run(t, server, "", "add", "Buy milk", "-d", "2% from the store")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if out != "created task 1\n" {
		t.Fatalf("unexpected add output %q", out)
	}

	if _, err := run(t, server, "", "edit", "1", "--description", "skim milk"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	task, _ := repo.Get(context.Background(), 1)
	if task.Title != "Buy milk" || task.Description != "skim milk" {
		t.Fatalf("edit must only touch the given flag: %+v", task)
	}

	out, err = run(t, server, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "   1  Buy milk") || !strings.Contains(out, "skim milk") {
		t.Fatalf("unexpected list output %q", out)
	}

	out, err = run(t, server, "", "suggest", "1")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if out != "Priority: High\n" {
		t.Fatalf("unexpected suggestion output %q", out)
	}

	if _, err := run(t, server, "", "rm", "1"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	_, err = run(t, server, "", "rm", "1")
	if err == nil || !strings.Contains(err.Error(), "Task not found") {
		t.Fatalf("expected not found error, got %v", err)
	}

	if _, err := run(t, server, "", "rm", "abc"); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestShell(t *testing.T) {
	server, repo := newTestAPI(t)

	script := strings.Join([]string{
		"add Buy milk | 2% from the store",
		"edit 1",
		"title Buy oat milk",
		"save",
		"suggest 1",
		"title orphan",
		"bogus",
		"quit",
	}, "\n")

	out, err := run(t, server, script, "shell")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}

	for _, want := range []string{
		"(no tasks)",
		"created task 1",
		`editing 1: title="Buy milk" description="2% from the store"`,
		"saved task 1",
		"task 1: Loading...",
		"task 1: Priority: High",
		"error: no task is being edited",
		`error: unknown command "bogus"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	task, _ := repo.Get(context.Background(), 1)
	if task.Title != "Buy oat milk" || task.Description != "2% from the store" {
		t.Fatalf("unexpected stored task %+v", task)
	}
}

func TestSuggestFailure(t *testing.T) {
	server, _ := newTestAPIWith(t, suggesterFunc(func(ctx context.Context, description string) (string, error) {
		return "", &suggest.Error{Err: errors.New("invalid api key")}
	}))

	if _, err := run(t, server, "", "add", "Buy milk"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := run(t, server, "", "suggest", "1")
	if out != "Error getting suggestion\n" {
		t.Fatalf("expected the static error text, got %q", out)
	}
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("expected details in the returned error, got %v", err)
	}
}
