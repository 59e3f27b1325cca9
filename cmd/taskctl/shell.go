package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
	"github.com/kalpovskii/checklist-ai/internal/client"
	"github.com/spf13/cobra"
)

const shellHelp = `commands:
  ls                          show tasks
  refresh                     reload tasks from the server
  add TITLE [| DESCRIPTION]   create a task
  edit ID                     start editing a task
  title TEXT                  set the title of the task being edited
  desc TEXT                   set the description of the task being edited
  save                        send the edit to the server
  cancel                      drop the edit
  rm ID                       delete a task
  suggest ID                  ask the AI about a task in the background
  quit                        leave
`

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with background suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd.Context())
		},
	}
}

func (a *app) runShell(ctx context.Context) error {
	out := &lockedWriter{w: a.out}
	var pending sync.WaitGroup
	defer pending.Wait()

	if err := a.refresh(ctx); err != nil {
		return err
	}
	client.Render(out, a.state)

	scanner := bufio.NewScanner(a.in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		verb, rest, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		rest = strings.TrimSpace(rest)

		var err error
		switch verb {
		case "":
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprint(out, shellHelp)
		case "ls":
			client.Render(out, a.state)
		case "refresh":
			if err = a.refresh(ctx); err == nil {
				client.Render(out, a.state)
			}
		case "add":
			err = a.shellAdd(ctx, out, rest)
		case "edit":
			err = a.shellEdit(out, rest)
		case "title":
			err = a.state.SetDraftTitle(rest)
		case "desc":
			err = a.state.SetDraftDescription(rest)
		case "save":
			err = a.shellSave(ctx, out)
		case "cancel":
			a.state.CancelEdit()
		case "rm":
			err = a.shellRemove(ctx, out, rest)
		case "suggest":
			err = a.shellSuggest(ctx, out, rest, &pending)
		default:
			err = fmt.Errorf("unknown command %q, try help", verb)
		}
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}

func (a *app) shellAdd(ctx context.Context, out io.Writer, rest string) error {
	title, description, _ := strings.Cut(rest, "|")
	task, err := a.api.CreateTask(ctx, strings.TrimSpace(title), strings.TrimSpace(description))
	if err != nil {
		return err
	}
	a.state.ApplyCreated(task)
	fmt.Fprintf(out, "created task %d\n", task.ID)
	return nil
}

func (a *app) shellEdit(out io.Writer, rest string) error {
	id, err := parseID(rest)
	if err != nil {
		return err
	}
	d, err := a.state.StartEdit(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "editing %d: title=%q description=%q\n", d.ID, d.Title, d.Description)
	return nil
}

func (a *app) shellSave(ctx context.Context, out io.Writer) error {
	d, ok := a.state.Draft()
	if !ok {
		return client.ErrNotEditing
	}
	task, err := a.api.UpdateTask(ctx, d.ID, models.TaskPatch{Title: &d.Title, Description: &d.Description})
	if err != nil {
		return err
	}
	a.state.ApplyUpdated(task)
	fmt.Fprintf(out, "saved task %d\n", task.ID)
	return nil
}

func (a *app) shellRemove(ctx context.Context, out io.Writer, rest string) error {
	id, err := parseID(rest)
	if err != nil {
		return err
	}
	if err := a.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	a.state.ApplyDeleted(id)
	fmt.Fprintf(out, "deleted task %d\n", id)
	return nil
}

// shellSuggest starts a suggestion request in the background. Only one
// request per task may be outstanding.
func (a *app) shellSuggest(ctx context.Context, out io.Writer, rest string, pending *sync.WaitGroup) error {
	id, err := parseID(rest)
	if err != nil {
		return err
	}
	if _, ok := a.state.Task(id); !ok {
		return client.ErrUnknownTask
	}
	if err := a.state.BeginSuggestion(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "task %d: %s\n", id, client.SuggestionLoading)

	pending.Add(1)
	go func() {
		defer pending.Done()
		s, err := a.api.GetSuggestion(ctx, id)
		if err != nil {
			a.state.FailSuggestion(id)
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.NotFound() {
				a.state.ApplyDeleted(id)
			}
			fmt.Fprintf(out, "\ntask %d: %s\n", id, client.SuggestionError)
			return
		}
		a.state.ResolveSuggestion(id, s.Suggestion)
		fmt.Fprintf(out, "\ntask %d: %s\n", id, s.Suggestion)
	}()
	return nil
}
