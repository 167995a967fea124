package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

func TestTagStore(t *testing.T) {
	ctx := context.Background()
	db, repo := newTestAtomRepo(t)
	tags, err := NewTagStore(ctx, db)
	require.NoError(t, err)

	first := models.NewAtom(models.AtomKindTask, "report")
	second := models.NewAtom(models.AtomKindNote, "ideas")
	untagged := models.NewAtom(models.AtomKindNote, "plain")
	mustCreate(t, repo, first, second, untagged)

	require.NoError(t, tags.SetTags(ctx, first.ID, []string{"Work", " urgent ", "work"}))
	require.NoError(t, tags.SetTags(ctx, second.ID, []string{"work", "Someday"}))

	got, err := tags.LoadTagsForAtoms(ctx, []models.AtomID{first.ID, second.ID, untagged.ID, first.ID})
	require.NoError(t, err)
	assert.Equal(t, map[models.AtomID][]string{
		first.ID:    {"urgent", "work"},
		second.ID:   {"someday", "work"},
		untagged.ID: {},
	}, got)

	require.NoError(t, tags.SetTags(ctx, first.ID, nil))
	got, err = tags.LoadTagsForAtoms(ctx, []models.AtomID{first.ID})
	require.NoError(t, err)
	assert.Empty(t, got[first.ID])

	var tagCount int64
	require.NoError(t, db.gorm.Model(&tagRow{}).Count(&tagCount).Error)
	assert.Equal(t, int64(3), tagCount)

	require.NoError(t, repo.SoftDelete(ctx, second.ID))
	err = tags.SetTags(ctx, second.ID, []string{"x"})
	require.ErrorIs(t, err, store.ErrNotFound)

	empty, err := tags.LoadTagsForAtoms(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
