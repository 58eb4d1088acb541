package tasks

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayboard/internal/analytics"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestStore() *Store {
	c := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	return NewStore(c.now)
}

func TestAddValidates(t *testing.T) {
	s := newTestStore()

	_, err := s.Add("   ", "")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = s.Add("Write report", "10/03/2025")
	assert.Error(t, err)

	task, err := s.Add("  Client project review ", "2025-03-12")
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Client project review", task.Text)
	assert.Equal(t, "2025-03-12", task.DueDate)
	assert.Equal(t, string(analytics.Work), task.Category)
	assert.False(t, task.Completed)
}

func TestCompleteIsIdempotent(t *testing.T) {
	s := newTestStore()
	task, err := s.Add("Gym", "")
	require.NoError(t, err)

	done, err := s.Complete(task.ID)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	first := *done.CompletedAt

	again, err := s.Complete(task.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *again.CompletedAt)

	_, err = s.Complete("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNoteAndDelete(t *testing.T) {
	s := newTestStore()
	task, err := s.Add("Read book", "")
	require.NoError(t, err)

	updated, err := s.SetNote(task.ID, "chapter 3")
	require.NoError(t, err)
	assert.Equal(t, "chapter 3", updated.Note)

	got, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "chapter 3", got.Note)

	before := s.Version()
	require.NoError(t, s.Delete(task.ID))
	assert.Greater(t, s.Version(), before)
	assert.ErrorIs(t, s.Delete(task.ID), ErrNotFound)
	_, err = s.SetNote(task.ID, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestListOrderedByCreation(t *testing.T) {
	s := newTestStore()
	for _, text := range []string{"one", "two", "three"} {
		_, err := s.Add(text, "")
		require.NoError(t, err)
	}

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "one", list[0].Text)
	assert.Equal(t, "three", list[2].Text)

	list[0].Text = "mutated"
	assert.Equal(t, "one", s.List()[0].Text)
}

func TestConcurrentAdds(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add("task", "")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
