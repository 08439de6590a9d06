package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
)

// Draft holds the caller-editable fields of a task.
type Draft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (d Draft) normalize() (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Title == "" {
		return Draft{}, ErrEmptyTitle
	}
	p, err := ParsePriority(string(d.Priority))
	if err != nil {
		return Draft{}, err
	}
	d.Priority = p
	return d, nil
}

// Store is an in-memory task list, newest first. It is safe for
// concurrent use.
type Store struct {
	mu    sync.RWMutex
	tasks []Task
	now   func() time.Time
}

// NewStore returns an empty Store. A nil now uses time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

// Add creates a task from d and puts it first.
func (s *Store) Add(d Draft) (Task, error) {
	d, err := d.normalize()
	if err != nil {
		return Task{}, err
	}
	now := s.now()
	t := Task{
		ID:          NewID(now),
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
		CreatedAt:   now,
	}
	s.mu.Lock()
	s.tasks = slices.Insert(s.tasks, 0, t)
	s.mu.Unlock()
	return t, nil
}

// Get returns the task with id.
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.tasks[i], nil
}

// Update replaces the editable fields of task id.
func (s *Store) Update(id string, d Draft) (Task, error) {
	d, err := d.normalize()
	if err != nil {
		return Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	now := s.now()
	t := &s.tasks[i]
	t.Title, t.Description, t.Priority, t.DueDate = d.Title, d.Description, d.Priority, d.DueDate
	t.UpdatedAt = &now
	return *t, nil
}

// Toggle flips the completion state of task id.
func (s *Store) Toggle(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t := &s.tasks[i]
	t.Completed = !t.Completed
	t.CompletedAt = nil
	if t.Completed {
		now := s.now()
		t.CompletedAt = &now
	}
	return *t, nil
}

// Delete removes task id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return nil
}

// ClearCompleted removes completed tasks and returns how many it removed.
func (s *Store) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.tasks)
	s.tasks = slices.DeleteFunc(s.tasks, func(t Task) bool { return t.Completed })
	return before - len(s.tasks)
}

// List returns a copy of every task, newest first.
func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Task{}, s.tasks...)
}

// Export writes the task list as indented JSON.
func (s *Store) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.List())
}

// Import replaces the task list with the JSON array read from r. The
// existing list is kept when r does not hold a valid array of tasks.
func (s *Store) Import(r io.Reader) (int, error) {
	var list []Task
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return 0, fmt.Errorf("tasks: import: %w", err)
	}
	for i, t := range list {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("tasks: import entry %d: %w", i, err)
		}
		if t.ID == "" {
			list[i].ID = NewID(s.now())
		}
		if t.Priority == "" {
			list[i].Priority = PriorityMedium
		}
	}
	s.mu.Lock()
	s.tasks = list
	s.mu.Unlock()
	return len(list), nil
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}
