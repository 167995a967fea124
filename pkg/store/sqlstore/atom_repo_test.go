package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

func TestAtomCreateAndGet(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	atom := &models.Atom{
		Kind:           models.AtomKindEvent,
		Content:        "dentist",
		PreviewText:    models.Ptr("dentist"),
		TaskStatus:     models.Ptr(models.TaskStatusTodo),
		StartAt:        models.Ptr(int64(1000)),
		EndAt:          models.Ptr(int64(2000)),
		RecurrenceRule: models.Ptr("FREQ=YEARLY"),
		HLCTimestamp:   models.Ptr("0001-a"),
	}
	id, err := repo.Create(ctx, atom)
	require.NoError(t, err)
	require.False(t, id.IsZero())
	assert.Equal(t, id, atom.ID)

	got, err := repo.Get(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, atom, got)

	missing, err := repo.Get(ctx, models.NewAtomID(), true)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAtomCreateValidatesFirst(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	atom := models.NewAtom(models.AtomKindEvent, "backwards")
	atom.StartAt = models.Ptr(int64(10))
	atom.EndAt = models.Ptr(int64(5))

	_, err := repo.Create(ctx, atom)
	var windowErr *models.InvalidEventWindowError
	require.ErrorAs(t, err, &windowErr)

	got, err := repo.Get(ctx, atom.ID, true)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAtomCreateDuplicateID(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	atom := models.NewAtom(models.AtomKindNote, "once")
	_, err := repo.Create(ctx, atom)
	require.NoError(t, err)

	_, err = repo.Create(ctx, atom)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAtomUpdate(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	atom := models.NewAtom(models.AtomKindTask, "draft")
	atom.PreviewText = models.Ptr("draft")
	_, err := repo.Create(ctx, atom)
	require.NoError(t, err)

	updated := atom.Clone()
	updated.Content = "final"
	updated.PreviewText = nil
	updated.EndAt = models.Ptr(int64(99))
	require.NoError(t, repo.Update(ctx, updated))

	got, err := repo.Get(ctx, atom.ID, false)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	t.Run("missing", func(t *testing.T) {
		err := repo.Update(ctx, models.NewAtom(models.AtomKindNote, "ghost"))
		var notFound *store.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("invalid", func(t *testing.T) {
		bad := updated.Clone()
		bad.Content = " "
		require.ErrorIs(t, repo.Update(ctx, bad), models.ErrEmptyContent)
	})

	t.Run("deleted rows are not revived", func(t *testing.T) {
		require.NoError(t, repo.SoftDelete(ctx, atom.ID))
		revive := updated.Clone()
		revive.IsDeleted = false
		require.ErrorIs(t, repo.Update(ctx, revive), store.ErrNotFound)

		got, err := repo.Get(ctx, atom.ID, true)
		require.NoError(t, err)
		assert.True(t, got.IsDeleted)
	})
}

func TestAtomSoftDelete(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	atom := models.NewAtom(models.AtomKindNote, "temporary")
	_, err := repo.Create(ctx, atom)
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, atom.ID))
	first, err := repo.Get(ctx, atom.ID, true)
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, atom.ID))
	second, err := repo.Get(ctx, atom.ID, true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, second.IsDeleted)

	hidden, err := repo.Get(ctx, atom.ID, false)
	require.NoError(t, err)
	assert.Nil(t, hidden)

	err = repo.SoftDelete(ctx, models.NewAtomID())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAtomUpdateStatus(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	note := models.NewAtom(models.AtomKindNote, "status on a note")
	_, err := repo.Create(ctx, note)
	require.NoError(t, err)

	for _, status := range []models.TaskStatus{models.TaskStatusDone, models.TaskStatusTodo, models.TaskStatusTodo} {
		require.NoError(t, repo.UpdateStatus(ctx, note.ID, models.Ptr(status)))
		got, err := repo.Get(ctx, note.ID, false)
		require.NoError(t, err)
		require.NotNil(t, got.TaskStatus)
		assert.Equal(t, status, *got.TaskStatus)
	}

	require.NoError(t, repo.UpdateStatus(ctx, note.ID, nil))
	got, err := repo.Get(ctx, note.ID, false)
	require.NoError(t, err)
	assert.Nil(t, got.TaskStatus)

	err = repo.UpdateStatus(ctx, note.ID, models.Ptr(models.TaskStatus("paused")))
	require.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, repo.SoftDelete(ctx, note.ID))
	err = repo.UpdateStatus(ctx, note.ID, models.Ptr(models.TaskStatusDone))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAtomUpdateEventTimes(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	event := models.NewAtom(models.AtomKindEvent, "call")
	_, err := repo.Create(ctx, event)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateEventTimes(ctx, event.ID, models.Ptr(int64(100)), models.Ptr(int64(200))))
	got, err := repo.Get(ctx, event.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(100), *got.StartAt)
	assert.Equal(t, int64(200), *got.EndAt)

	err = repo.UpdateEventTimes(ctx, event.ID, models.Ptr(int64(300)), models.Ptr(int64(200)))
	var windowErr *models.InvalidEventWindowError
	require.ErrorAs(t, err, &windowErr)
	assert.Equal(t, &models.InvalidEventWindowError{Start: 300, End: 200}, windowErr)

	require.NoError(t, repo.UpdateEventTimes(ctx, event.ID, nil, models.Ptr(int64(50))))
	got, err = repo.Get(ctx, event.ID, false)
	require.NoError(t, err)
	assert.Nil(t, got.StartAt)
	assert.Equal(t, int64(50), *got.EndAt)

	err = repo.UpdateEventTimes(ctx, models.NewAtomID(), nil, nil)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAtomList(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	var created []*models.Atom
	for _, kind := range []models.AtomKind{models.AtomKindNote, models.AtomKindTask, models.AtomKindNote, models.AtomKindEvent} {
		atom := models.NewAtom(kind, "item "+string(kind))
		_, err := repo.Create(ctx, atom)
		require.NoError(t, err)
		created = append(created, atom)
	}
	require.NoError(t, repo.SoftDelete(ctx, created[0].ID))

	all, err := repo.List(ctx, store.AtomListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, created[3].ID, all[0].ID)
	assert.Equal(t, created[1].ID, all[2].ID)

	withDeleted, err := repo.List(ctx, store.AtomListQuery{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, withDeleted, 4)
	assert.Equal(t, created[0].ID, withDeleted[0].ID, "soft delete bumps updated_at")

	notes, err := repo.List(ctx, store.AtomListQuery{Kind: models.Ptr(models.AtomKindNote)})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, created[2].ID, notes[0].ID)

	page, err := repo.List(ctx, store.AtomListQuery{Page: store.Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[1].ID, page[0].ID)

	tail, err := repo.List(ctx, store.AtomListQuery{Page: store.Page{Offset: 2}})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, all[2].ID, tail[0].ID)
}

func TestAtomListTieBreaksByID(t *testing.T) {
	ctx := context.Background()
	db, repo := newTestAtomRepo(t)

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, models.NewAtom(models.AtomKindNote, "same time"))
		require.NoError(t, err)
	}
	require.NoError(t, db.gorm.Exec("UPDATE atoms SET updated_at = 42").Error)

	atoms, err := repo.List(ctx, store.AtomListQuery{})
	require.NoError(t, err)
	require.Len(t, atoms, 5)
	for i := 1; i < len(atoms); i++ {
		assert.Less(t, atoms[i-1].ID.String(), atoms[i].ID.String())
	}
}

func TestAtomReadRejectsCorruptRows(t *testing.T) {
	ctx := context.Background()

	testcases := []struct {
		name   string
		update string
	}{
		{name: "unknown kind", update: "UPDATE atoms SET kind = 'memo'"},
		{name: "unknown status", update: "UPDATE atoms SET task_status = 'blocked'"},
		{name: "empty content", update: "UPDATE atoms SET content = '   '"},
		{name: "inverted window", update: "UPDATE atoms SET start_at = 10, end_at = 5"},
		{name: "malformed id", update: "UPDATE atoms SET uuid = 'not-a-uuid'"},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			db, repo := newTestAtomRepo(t)
			atom := models.NewAtom(models.AtomKindTask, "fine")
			_, err := repo.Create(ctx, atom)
			require.NoError(t, err)
			require.NoError(t, db.gorm.Exec(tc.update).Error)

			_, err = repo.List(ctx, store.AtomListQuery{})
			var invalid *store.InvalidDataError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "atoms", invalid.Table)
			assert.ErrorIs(t, err, store.ErrInvalidData)
			assert.NotErrorIs(t, err, store.ErrNotFound)
		})
	}

	t.Run("get", func(t *testing.T) {
		db, repo := newTestAtomRepo(t)
		atom := models.NewAtom(models.AtomKindTask, "fine")
		_, err := repo.Create(ctx, atom)
		require.NoError(t, err)
		require.NoError(t, db.gorm.Exec("UPDATE atoms SET kind = 'memo'").Error)

		got, err := repo.Get(ctx, atom.ID, false)
		require.ErrorIs(t, err, store.ErrInvalidData)
		assert.Nil(t, got)
	})
}

func TestAtomSearch(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	for _, content := range []string{"Buy milk", "buy bread", "100% done", "call mom"} {
		_, err := repo.Create(ctx, models.NewAtom(models.AtomKindTask, content))
		require.NoError(t, err)
	}
	deleted := models.NewAtom(models.AtomKindTask, "buy stamps")
	_, err := repo.Create(ctx, deleted)
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(ctx, deleted.ID))

	hits, err := repo.Search(ctx, store.SearchQuery{Text: "BUY", Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "buy bread", hits[0].Content)

	hits, err = repo.Search(ctx, store.SearchQuery{Text: "%", Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "100% done", hits[0].Content)

	hits, err = repo.Search(ctx, store.SearchQuery{Text: "buy", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = repo.Search(ctx, store.SearchQuery{Text: "milk", Kind: models.Ptr(models.AtomKindNote)})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAtomListModifiedSince(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestAtomRepo(t)

	first := models.NewAtom(models.AtomKindTask, "first")
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)
	rows, err := repo.ListModifiedSince(ctx, store.ChangeCursor{}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	cutoff := rows[0].UpdatedAt + 1

	second := models.NewAtom(models.AtomKindEvent, "second")
	_, err = repo.Create(ctx, second)
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(ctx, second.ID))

	rows, err = repo.ListModifiedSince(ctx, store.ChangeCursor{UpdatedAt: cutoff}, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].Atom.ID)
	assert.True(t, rows[0].Atom.IsDeleted)
}

func TestAtomListModifiedSinceSameMillisecond(t *testing.T) {
	ctx := context.Background()
	fixed := time.UnixMilli(1_700_000_000_000)
	db, err := OpenInMemory(ctx, Config{Clock: func() time.Time { return fixed }})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	repo, err := NewAtomRepository(ctx, db)
	require.NoError(t, err)

	created := map[models.AtomID]bool{}
	for _, content := range []string{"a", "b", "c", "d", "e"} {
		id, err := repo.Create(ctx, models.NewAtom(models.AtomKindTask, content))
		require.NoError(t, err)
		created[id] = true
	}

	seen := map[models.AtomID]bool{}
	var cursor store.ChangeCursor
	for page := 0; page < 5; page++ {
		rows, err := repo.ListModifiedSince(ctx, cursor, 2)
		require.NoError(t, err)
		for _, row := range rows {
			assert.Equal(t, fixed.UnixMilli(), row.UpdatedAt)
			assert.False(t, seen[row.Atom.ID], "atom %s returned twice", row.Atom.ID)
			seen[row.Atom.ID] = true
		}
		if len(rows) < 2 {
			break
		}
		last := rows[len(rows)-1]
		cursor = store.ChangeCursor{UpdatedAt: last.UpdatedAt, AfterID: last.Atom.ID}
	}
	assert.Equal(t, created, seen)
}
