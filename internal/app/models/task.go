package models

import "time"

type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TaskPatch carries a partial update. A nil field is left unchanged,
// a non-nil one overwrites, empty string included.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil
}

// Apply returns t with the present fields of p written over it.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	return t
}

type Suggestion struct {
	Suggestion string `json:"suggestion"`
}

const (
	ActionCreated   = "task.created"
	ActionUpdated   = "task.updated"
	ActionDeleted   = "task.deleted"
	ActionSuggested = "task.suggested"
)

// Event describes a task lifecycle change published to the event log.
type Event struct {
	Action string    `json:"action"`
	TaskID int64     `json:"task_id"`
	At     time.Time `json:"at"`
}
