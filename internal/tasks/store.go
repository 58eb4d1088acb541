// Package tasks keeps user-entered to-do items in process memory.
package tasks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dayboard/internal/analytics"
	appLog "dayboard/internal/log"
	"dayboard/internal/model"
)

var (
	ErrNotFound  = errors.New("tasks: not found")
	ErrEmptyText = errors.New("tasks: text is empty")
)

// Store is a mutex-guarded in-memory task list. The zero value is not
// usable; call NewStore.
type Store struct {
	mu    sync.RWMutex
	items map[string]model.Task
	now   func() time.Time

	// version increments on every mutation.
	version uint64
}

// NewStore returns an empty store. A nil clock means time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{items: make(map[string]model.Task), now: now}
}

// Add creates an open task. dueDate is empty or a YYYY-MM-DD civil date.
func (s *Store) Add(text, dueDate string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}
	dueDate = strings.TrimSpace(dueDate)
	if dueDate != "" {
		if _, err := time.Parse(model.DateLayout, dueDate); err != nil {
			return model.Task{}, fmt.Errorf("tasks: due date %q: %w", dueDate, err)
		}
	}

	t := model.Task{
		ID:        uuid.NewString(),
		Text:      text,
		DueDate:   dueDate,
		Category:  string(analytics.Categorize(text)),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.items[t.ID] = t
	s.version++
	s.mu.Unlock()

	appLog.Debug("task added", "id", t.ID, "category", t.Category)
	return t, nil
}

// Complete marks a task done and stamps CompletedAt. Completing an already
// completed task keeps the original timestamp.
func (s *Store) Complete(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.items[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	if !t.Completed {
		at := s.now()
		t.Completed = true
		t.CompletedAt = &at
		s.items[id] = t
		s.version++
	}
	return t, nil
}

// SetNote replaces the free-text note of a task.
func (s *Store) SetNote(id, note string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.items[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	t.Note = note
	s.items[id] = t
	s.version++
	return t, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	s.version++
	return nil
}

func (s *Store) Get(id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.items[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

// List returns a copy of all tasks ordered by creation time.
func (s *Store) List() []model.Task {
	s.mu.RLock()
	out := make([]model.Task, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version changes whenever the task list changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
