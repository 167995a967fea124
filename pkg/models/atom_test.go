package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomValidate(t *testing.T) {
	testcases := []struct {
		name    string
		mutate  func(a *Atom)
		wantErr error
	}{
		{
			name:   "valid note",
			mutate: func(a *Atom) {},
		},
		{
			name:    "blank content",
			mutate:  func(a *Atom) { a.Content = "  \t\n" },
			wantErr: ErrEmptyContent,
		},
		{
			name: "end before start",
			mutate: func(a *Atom) {
				a.StartAt = Ptr(int64(2000))
				a.EndAt = Ptr(int64(1000))
			},
			wantErr: &InvalidEventWindowError{Start: 2000, End: 1000},
		},
		{
			name: "point event",
			mutate: func(a *Atom) {
				a.StartAt = Ptr(int64(1000))
				a.EndAt = Ptr(int64(1000))
			},
		},
		{
			name:   "deadline only",
			mutate: func(a *Atom) { a.EndAt = Ptr(int64(-5)) },
		},
		{
			name:    "unknown status",
			mutate:  func(a *Atom) { a.TaskStatus = Ptr(TaskStatus("blocked")) },
			wantErr: &InvalidTaskStatusError{Value: "blocked"},
		},
		{
			name: "content is checked before window",
			mutate: func(a *Atom) {
				a.Content = ""
				a.StartAt = Ptr(int64(2))
				a.EndAt = Ptr(int64(1))
			},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			atom := NewAtom(AtomKindNote, "hello")
			tc.mutate(atom)

			err := atom.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantErr, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestValidateRejectsIffEndBeforeStart(t *testing.T) {
	for start := int64(-3); start <= 3; start++ {
		for end := int64(-3); end <= 3; end++ {
			atom := NewAtom(AtomKindEvent, "window")
			atom.StartAt = Ptr(start)
			atom.EndAt = Ptr(end)

			err := atom.Validate()
			if end < start {
				var windowErr *InvalidEventWindowError
				require.ErrorAs(t, err, &windowErr, "start=%d end=%d", start, end)
				assert.Equal(t, start, windowErr.Start)
				assert.Equal(t, end, windowErr.End)
			} else {
				require.NoError(t, err, "start=%d end=%d", start, end)
			}
		}
	}
}

func TestStatusIsOrthogonalToKind(t *testing.T) {
	for _, kind := range []AtomKind{AtomKindNote, AtomKindTask, AtomKindEvent} {
		atom := NewAtom(kind, "x")
		atom.TaskStatus = Ptr(TaskStatusInProgress)
		require.NoError(t, atom.Validate(), kind)
	}
}

func TestParseAtomKindAndStatus(t *testing.T) {
	kind, err := ParseAtomKind("event")
	require.NoError(t, err)
	assert.Equal(t, AtomKindEvent, kind)

	_, err = ParseAtomKind("Event")
	require.Error(t, err)

	status, err := ParseTaskStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusInProgress, status)
	assert.False(t, status.IsTerminal())

	_, err = ParseTaskStatus("")
	require.ErrorIs(t, err, ErrValidation)

	assert.True(t, TaskStatusDone.IsTerminal())
	assert.True(t, TaskStatusCancelled.IsTerminal())
}

func TestAtomIsOpen(t *testing.T) {
	atom := NewAtom(AtomKindTask, "ship it")
	assert.True(t, atom.IsOpen())

	atom.TaskStatus = Ptr(TaskStatusTodo)
	assert.True(t, atom.IsOpen())

	atom.TaskStatus = Ptr(TaskStatusCancelled)
	assert.False(t, atom.IsOpen())

	atom.TaskStatus = nil
	atom.IsDeleted = true
	assert.False(t, atom.IsOpen())
}

func TestAtomClone(t *testing.T) {
	atom := NewAtom(AtomKindEvent, "standup")
	atom.StartAt = Ptr(int64(10))
	atom.TaskStatus = Ptr(TaskStatusTodo)

	clone := atom.Clone()
	*clone.StartAt = 20
	*clone.TaskStatus = TaskStatusDone

	assert.Equal(t, int64(10), *atom.StartAt)
	assert.Equal(t, TaskStatusTodo, *atom.TaskStatus)
	assert.Equal(t, atom.ID, clone.ID)
}
