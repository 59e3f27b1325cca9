package client

import (
	"errors"
	"sync"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
)

const (
	SuggestionLoading = "Loading..."
	SuggestionError   = "Error getting suggestion"
)

var (
	ErrSuggestionPending = errors.New("suggestion already loading for this task")
	ErrNotEditing        = errors.New("no task is being edited")
	ErrUnknownTask       = errors.New("task is not in the local list")
)

// Draft holds the edit buffers of the single task being edited.
type Draft struct {
	ID          int64
	Title       string
	Description string
}

// State is the client's cached view of the server. It only changes through
// the reconciliation methods, which take what the server returned.
type State struct {
	mu          sync.Mutex
	tasks       []models.Task
	draft       *Draft
	suggestions map[int64]string
	loading     map[int64]bool
}

func NewState() *State {
	return &State{
		suggestions: make(map[int64]string),
		loading:     make(map[int64]bool),
	}
}

// Load replaces the list with a fresh fetch.
func (s *State) Load(tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]models.Task(nil), tasks...)
}

func (s *State) ApplyCreated(task models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(task.ID); i >= 0 {
		s.tasks[i] = task
		return
	}
	s.tasks = append(s.tasks, task)
}

// ApplyUpdated swaps in the server's copy of the task and closes the editor
// if it was open on that task.
func (s *State) ApplyUpdated(task models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(task.ID); i >= 0 {
		s.tasks[i] = task
	}
	if s.draft != nil && s.draft.ID == task.ID {
		s.draft = nil
	}
}

func (s *State) ApplyDeleted(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	if s.draft != nil && s.draft.ID == id {
		s.draft = nil
	}
	delete(s.suggestions, id)
}

func (s *State) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Task(nil), s.tasks...)
}

func (s *State) Task(id int64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.tasks[i], true
	}
	return models.Task{}, false
}

// StartEdit opens the editor on id, discarding any other open draft.
func (s *State) StartEdit(id int64) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return Draft{}, ErrUnknownTask
	}
	t := s.tasks[i]
	s.draft = &Draft{ID: t.ID, Title: t.Title, Description: t.Description}
	return *s.draft, nil
}

func (s *State) SetDraftTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return ErrNotEditing
	}
	s.draft.Title = title
	return nil
}

func (s *State) SetDraftDescription(description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return ErrNotEditing
	}
	s.draft.Description = description
	return nil
}

func (s *State) Draft() (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

func (s *State) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

// BeginSuggestion marks id as loading. It refuses while a request for the
// same id is outstanding; other ids are independent.
func (s *State) BeginSuggestion(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading[id] {
		return ErrSuggestionPending
	}
	s.loading[id] = true
	s.suggestions[id] = SuggestionLoading
	return nil
}

// ResolveSuggestion stores the result. Results for tasks deleted in the
// meantime are dropped.
func (s *State) ResolveSuggestion(id int64, text string) {
	s.finishSuggestion(id, text)
}

func (s *State) FailSuggestion(id int64) {
	s.finishSuggestion(id, SuggestionError)
}

func (s *State) finishSuggestion(id int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loading, id)
	if s.index(id) < 0 {
		delete(s.suggestions, id)
		return
	}
	s.suggestions[id] = text
}

func (s *State) Suggestion(id int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.suggestions[id]
	return text, ok
}

func (s *State) Loading(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[id]
}

func (s *State) index(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
