// Package store defines the persistence contracts of LazyLife.
//
// The service layer talks to storage only through the interfaces declared here:
//
//   - [AtomRepository] stores atoms, performs soft deletion and answers the time-matrix section
//     queries (Inbox, Today, Upcoming and calendar time ranges).
//   - [TagLookup] and [TagStore] resolve the normalized tag set of atoms in bulk.
//   - [TreeRepository] and [TreeTx] persist the workspace tree. Every mutation of the tree runs
//     inside [TreeRepository.InTx] so that checks and renumbering happen in one transaction.
//
// [github.com/WYI1223/LazyLife/pkg/store/sqlstore] implements all of them on top of GORM.
//
// # Conventions
//
// Get-style methods return nil without error for missing entities. List-style methods return
// empty slices, never nil. Mutations of a missing (or soft-deleted) target fail with a
// [*NotFoundError]. Atom validation errors from [github.com/WYI1223/LazyLife/pkg/models] are
// returned exactly as produced, so callers can match them with errors.Is/errors.As.
//
// Every implementation is handed an explicitly owned storage handle at construction and checks
// the schema once, before the first query, failing with one of the schema errors in errors.go.
package store

import (
	"context"

	"github.com/WYI1223/LazyLife/pkg/models"
)

// Page is a limit/offset window. A non-positive Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// DayWindow is the inclusive [BeginOfDay, EndOfDay] range used to classify Today and Upcoming.
type DayWindow struct {
	BeginOfDay int64
	EndOfDay   int64
}

// ChangeCursor is a position in the (updated_at, id) order of ListModifiedSince. A zero AfterID
// starts at the first atom updated at UpdatedAt.
type ChangeCursor struct {
	UpdatedAt int64
	AfterID   models.AtomID
}

// AtomListQuery filters List.
type AtomListQuery struct {
	Kind           *models.AtomKind
	IncludeDeleted bool
	Page
}

// SearchQuery filters Search. Text is matched as a case-insensitive substring of the content.
type SearchQuery struct {
	Text  string
	Kind  *models.AtomKind
	Limit int
}

// SectionRow is an atom as returned by the section queries, together with its last update time
// in epoch milliseconds.
type SectionRow struct {
	Atom      *models.Atom
	UpdatedAt int64
}

// AtomRepository persists atoms.
type AtomRepository interface {
	// Create validates and inserts the atom. A zero ID is replaced by a fresh one.
	Create(ctx context.Context, atom *models.Atom) (models.AtomID, error)
	// Update validates the atom and replaces every column of the live row with the same id.
	Update(ctx context.Context, atom *models.Atom) error
	Get(ctx context.Context, id models.AtomID, includeDeleted bool) (*models.Atom, error)
	List(ctx context.Context, query AtomListQuery) ([]*models.Atom, error)
	// SoftDelete marks the atom deleted. Deleting an already deleted atom is a no-op.
	SoftDelete(ctx context.Context, id models.AtomID) error
	// UpdateStatus sets the status, or clears it when status is nil.
	UpdateStatus(ctx context.Context, id models.AtomID, status *models.TaskStatus) error
	UpdateEventTimes(ctx context.Context, id models.AtomID, startAt, endAt *int64) error

	FetchInbox(ctx context.Context, page Page) ([]SectionRow, error)
	FetchToday(ctx context.Context, window DayWindow, page Page) ([]SectionRow, error)
	FetchUpcoming(ctx context.Context, endOfDay int64, page Page) ([]SectionRow, error)
	// FetchByTimeRange lists atoms with both bounds whose interval overlaps [rangeStart, rangeEnd).
	FetchByTimeRange(ctx context.Context, rangeStart, rangeEnd int64, page Page) ([]SectionRow, error)

	Search(ctx context.Context, query SearchQuery) ([]*models.Atom, error)
	// ListModifiedSince returns atoms, deleted ones included, that come after cursor in
	// (updated_at, id) order.
	ListModifiedSince(ctx context.Context, cursor ChangeCursor, limit int) ([]SectionRow, error)
}

// TagLookup resolves tags for a set of atoms. Ids without tags map to an empty slice.
type TagLookup interface {
	LoadTagsForAtoms(ctx context.Context, ids []models.AtomID) (map[models.AtomID][]string, error)
}

// TagStore is a TagLookup that can also replace the tag set of an atom.
type TagStore interface {
	TagLookup
	SetTags(ctx context.Context, id models.AtomID, tags []string) error
}

// AtomRef is the part of an atom the workspace tree needs to know about.
type AtomRef struct {
	ID        models.AtomID
	Kind      models.AtomKind
	IsDeleted bool
}

// TreeReader reads the workspace tree.
type TreeReader interface {
	GetNode(ctx context.Context, id models.NodeID) (*models.WorkspaceNode, error)
	// ListChildren returns the sibling group of parent ordered by sort order. A nil parent
	// lists the roots.
	ListChildren(ctx context.Context, parent *models.NodeID) ([]*models.WorkspaceNode, error)
}

// TreeTx is a transactional view of the workspace tree.
type TreeTx interface {
	TreeReader
	InsertNode(ctx context.Context, node *models.WorkspaceNode) error
	// SavePlacement writes parent and sort order of every given node.
	SavePlacement(ctx context.Context, nodes []*models.WorkspaceNode) error
	RenameNode(ctx context.Context, id models.NodeID, name string) error
	DeleteNodes(ctx context.Context, ids []models.NodeID) error
	ListNoteRefs(ctx context.Context) ([]*models.WorkspaceNode, error)
	// LookupAtom returns nil without error when the atom does not exist.
	LookupAtom(ctx context.Context, id models.AtomID) (*AtomRef, error)
}

// TreeRepository persists the workspace tree.
type TreeRepository interface {
	TreeReader
	// InTx runs fn in a single transaction. The transaction is rolled back when fn fails.
	InTx(ctx context.Context, fn func(tx TreeTx) error) error
}
