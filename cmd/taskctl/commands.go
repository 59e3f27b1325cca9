package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
	"github.com/kalpovskii/checklist-ai/internal/client"
	"github.com/spf13/cobra"
)

type app struct {
	api   *client.Client
	state *client.State
	in    io.Reader
	out   io.Writer
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{state: client.NewState(), in: in, out: out}
	var server string

	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage tasks and ask for AI priority suggestions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.api = client.New(server, nil)
		},
	}

	defaultServer := os.Getenv("TASKCTL_SERVER")
	if defaultServer == "" {
		defaultServer = client.DefaultServer
	}
	root.PersistentFlags().StringVarP(&server, "server", "s", defaultServer, "task API address")

	root.AddCommand(a.listCmd())
	root.AddCommand(a.addCmd())
	root.AddCommand(a.editCmd())
	root.AddCommand(a.rmCmd())
	root.AddCommand(a.suggestCmd())
	root.AddCommand(a.shellCmd())

	return root
}

// refresh loads the full list, as the UI does once on start.
func (a *app) refresh(ctx context.Context) error {
	tasks, err := a.api.FetchTasks(ctx)
	if err != nil {
		return err
	}
	a.state.Load(tasks)
	return nil
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.refresh(cmd.Context()); err != nil {
				return err
			}
			client.Render(a.out, a.state)
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.api.CreateTask(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			a.state.ApplyCreated(task)
			fmt.Fprintf(a.out, "created task %d\n", task.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the title and/or description of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var patch models.TaskPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			task, err := a.api.UpdateTask(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			a.state.ApplyUpdated(task)
			fmt.Fprintf(a.out, "%4d  %s\n      %s\n", task.ID, task.Title, task.Description)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			a.state.ApplyDeleted(id)
			fmt.Fprintf(a.out, "deleted task %d\n", id)
			return nil
		},
	}
}

func (a *app) suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest ID",
		Short: "Ask the AI for a priority and due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.api.GetSuggestion(cmd.Context(), id)
			if err != nil {
				// the details go to stderr through main
				fmt.Fprintln(a.out, client.SuggestionError)
				return err
			}
			fmt.Fprintln(a.out, s.Suggestion)
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}
