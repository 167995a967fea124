package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store/sqlstore"
)

type fixture struct {
	atoms *sqlstore.AtomRepository
	tags  *sqlstore.TagStore
	tree  *sqlstore.TreeRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.OpenInMemory(ctx, sqlstore.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	atoms, err := sqlstore.NewAtomRepository(ctx, db)
	require.NoError(t, err)
	tags, err := sqlstore.NewTagStore(ctx, db)
	require.NoError(t, err)
	tree, err := sqlstore.NewTreeRepository(ctx, db)
	require.NoError(t, err)
	return &fixture{atoms: atoms, tags: tags, tree: tree}
}

func (f *fixture) createAtom(t *testing.T, kind models.AtomKind, content string, start, end *int64) *models.Atom {
	t.Helper()
	atom := models.NewAtom(kind, content)
	atom.StartAt = start
	atom.EndAt = end
	_, err := f.atoms.Create(context.Background(), atom)
	require.NoError(t, err)
	return atom
}

func at(v int64) *int64 { return &v }
