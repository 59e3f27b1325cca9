package client

import (
	"fmt"
	"io"
	"strings"
)

// Render writes the task list with any known suggestion under each task.
func Render(w io.Writer, s *State) {
	tasks := s.Tasks()
	if len(tasks) == 0 {
		fmt.Fprintln(w, "(no tasks)")
		return
	}
	for _, t := range tasks {
		fmt.Fprintf(w, "%4d  %s\n", t.ID, oneLine(t.Title, "(untitled)"))
		if d := oneLine(t.Description, ""); d != "" {
			fmt.Fprintf(w, "      %s\n", d)
		}
		if text, ok := s.Suggestion(t.ID); ok {
			fmt.Fprintf(w, "      AI: %s\n", oneLine(text, ""))
		}
	}
}

func oneLine(s, empty string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return empty
	}
	return s
}
