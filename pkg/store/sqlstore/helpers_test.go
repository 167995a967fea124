package sqlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stepClock advances one millisecond per reading, so write order decides updated_at order.
type stepClock struct {
	mu sync.Mutex
	ms int64
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms++
	return time.UnixMilli(c.ms)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	clock := &stepClock{ms: 1_700_000_000_000}
	db, err := OpenInMemory(context.Background(), Config{Clock: clock.Now})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func newTestAtomRepo(t *testing.T) (*DB, *AtomRepository) {
	t.Helper()
	db := newTestDB(t)
	repo, err := NewAtomRepository(context.Background(), db)
	require.NoError(t, err)
	return db, repo
}
