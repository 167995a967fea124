package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

func TestTaskServiceAttachesTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewTaskService(f.atoms, f.tags)

	tagged := f.createAtom(t, models.AtomKindTask, "file report", nil, nil)
	plain := f.createAtom(t, models.AtomKindNote, "scratch", nil, nil)
	require.NoError(t, f.tags.SetTags(ctx, tagged.ID, []string{" Work ", "urgent", "work"}))

	inbox, err := svc.FetchInbox(ctx, store.Page{Limit: 50})
	require.NoError(t, err)
	require.Len(t, inbox, 2)

	byID := map[models.AtomID]SectionAtom{}
	for _, item := range inbox {
		byID[item.Atom.ID] = item
	}
	assert.Equal(t, []string{"urgent", "work"}, byID[tagged.ID].Tags)
	assert.NotNil(t, byID[plain.ID].Tags)
	assert.Empty(t, byID[plain.ID].Tags)
}

func TestTaskServiceSections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewTaskService(f.atoms, f.tags)
	window := store.DayWindow{BeginOfDay: 0, EndOfDay: 1000}

	dueToday := f.createAtom(t, models.AtomKindTask, "due today", nil, at(500))
	later := f.createAtom(t, models.AtomKindTask, "due later", nil, at(5000))
	meeting := f.createAtom(t, models.AtomKindEvent, "meeting", at(200), at(300))
	require.NoError(t, f.tags.SetTags(ctx, meeting.ID, []string{"work"}))

	today, err := svc.FetchToday(ctx, window, store.Page{})
	require.NoError(t, err)
	require.Len(t, today, 2)
	assert.Equal(t, meeting.ID, today[0].Atom.ID)
	assert.Equal(t, []string{"work"}, today[0].Tags)
	assert.Equal(t, dueToday.ID, today[1].Atom.ID)

	upcoming, err := svc.FetchUpcoming(ctx, window.EndOfDay, store.Page{})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, later.ID, upcoming[0].Atom.ID)

	calendar, err := svc.FetchByTimeRange(ctx, 0, 1000, store.Page{})
	require.NoError(t, err)
	require.Len(t, calendar, 1)
	assert.Equal(t, meeting.ID, calendar[0].Atom.ID)
}

func TestTaskServiceEmptySection(t *testing.T) {
	f := newFixture(t)
	svc := NewTaskService(f.atoms, f.tags)

	items, err := svc.FetchInbox(context.Background(), store.Page{})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestTaskServiceUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewTaskService(f.atoms, f.tags)

	task := f.createAtom(t, models.AtomKindTask, "ship it", nil, nil)
	require.NoError(t, svc.UpdateStatus(ctx, task.ID, models.Ptr(models.TaskStatusDone)))

	inbox, err := svc.FetchInbox(ctx, store.Page{})
	require.NoError(t, err)
	assert.Empty(t, inbox)

	require.NoError(t, svc.UpdateStatus(ctx, task.ID, nil))
	got, err := f.atoms.Get(ctx, task.ID, false)
	require.NoError(t, err)
	assert.Nil(t, got.TaskStatus)

	missing := models.NewAtomID()
	err = svc.UpdateStatus(ctx, missing, models.Ptr(models.TaskStatusTodo))
	require.ErrorIs(t, err, ErrAtomNotFound)
	var notFound *AtomNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.ID)

	err = svc.UpdateStatus(ctx, task.ID, models.Ptr(models.TaskStatus("blocked")))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTaskServiceUpdateEventTimes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewTaskService(f.atoms, f.tags)

	event := f.createAtom(t, models.AtomKindEvent, "standup", at(100), at(200))
	require.NoError(t, svc.UpdateEventTimes(ctx, event.ID, at(300), at(400)))

	got, err := f.atoms.Get(ctx, event.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(300), *got.StartAt)
	assert.Equal(t, int64(400), *got.EndAt)

	err = svc.UpdateEventTimes(ctx, event.ID, at(500), at(400))
	var window *models.InvalidEventWindowError
	require.ErrorAs(t, err, &window)

	require.NoError(t, f.atoms.SoftDelete(ctx, event.ID))
	err = svc.UpdateEventTimes(ctx, event.ID, at(1), at(2))
	assert.ErrorIs(t, err, ErrAtomNotFound)
}
