package sqlstore

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

// AtomRepository is the GORM implementation of store.AtomRepository.
type AtomRepository struct {
	db  *gorm.DB
	log zerolog.Logger
	now func() time.Time
}

var _ store.AtomRepository = (*AtomRepository)(nil)

// NewAtomRepository checks the atoms table and returns a repository bound to db.
func NewAtomRepository(ctx context.Context, db *DB) (*AtomRepository, error) {
	if err := db.ensureReady(ctx, atomsTable); err != nil {
		return nil, err
	}
	return &AtomRepository{
		db:  db.gorm,
		log: db.log.With().Str("module", "atom_repo").Logger(),
		now: db.now,
	}, nil
}

func (r *AtomRepository) getDB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *AtomRepository) Create(ctx context.Context, atom *models.Atom) (models.AtomID, error) {
	started := time.Now()
	if atom.ID.IsZero() {
		atom.ID = models.NewAtomID()
	}
	if err := atom.Validate(); err != nil {
		r.logWrite("atom_create", atom.ID, started, err)
		return models.AtomID{}, err
	}

	now := r.now().UnixMilli()
	if err := r.getDB(ctx).Create(atomToRow(atom, now, now)).Error; err != nil {
		err = translateWriteError(err, "atom", atom.ID.String())
		r.logWrite("atom_create", atom.ID, started, err)
		return models.AtomID{}, err
	}
	r.logWrite("atom_create", atom.ID, started, nil)
	return atom.ID, nil
}

func (r *AtomRepository) Update(ctx context.Context, atom *models.Atom) error {
	started := time.Now()
	err := r.update(ctx, atom)
	r.logWrite("atom_update", atom.ID, started, err)
	return err
}

func (r *AtomRepository) update(ctx context.Context, atom *models.Atom) error {
	if err := atom.Validate(); err != nil {
		return err
	}
	row := atomToRow(atom, 0, r.now().UnixMilli())
	// Deleted rows are not revived by a full replace.
	res := r.getDB(ctx).Model(&atomRow{}).
		Where("uuid = ? AND is_deleted = ?", row.UUID, false).
		Updates(row.updateColumns())
	if res.Error != nil {
		return fmt.Errorf("failed to update atom %s: %w", atom.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &store.NotFoundError{Entity: "atom", ID: atom.ID.String()}
	}
	return nil
}

func (r *AtomRepository) Get(ctx context.Context, id models.AtomID, includeDeleted bool) (*models.Atom, error) {
	q := r.getDB(ctx).Where("uuid = ?", id.String())
	if !includeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	var rows []atomRow
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get atom %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel()
}

func (r *AtomRepository) List(ctx context.Context, query store.AtomListQuery) ([]*models.Atom, error) {
	q := r.getDB(ctx).Model(&atomRow{})
	if query.Kind != nil {
		q = q.Where("kind = ?", string(*query.Kind))
	}
	if !query.IncludeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	q = paginate(q.Order("updated_at DESC").Order("uuid ASC"), query.Page)

	var rows []atomRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list atoms: %w", err)
	}
	return rowsToAtoms(rows)
}

func (r *AtomRepository) SoftDelete(ctx context.Context, id models.AtomID) error {
	started := time.Now()
	err := r.softDelete(ctx, id)
	r.logWrite("atom_soft_delete", id, started, err)
	return err
}

func (r *AtomRepository) softDelete(ctx context.Context, id models.AtomID) error {
	res := r.getDB(ctx).Model(&atomRow{}).
		Where("uuid = ? AND is_deleted = ?", id.String(), false).
		Updates(map[string]any{"is_deleted": true, "updated_at": r.now().UnixMilli()})
	if res.Error != nil {
		return fmt.Errorf("failed to delete atom %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.getDB(ctx).Model(&atomRow{}).Where("uuid = ?", id.String()).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check atom %s: %w", id, err)
	}
	if count == 0 {
		return &store.NotFoundError{Entity: "atom", ID: id.String()}
	}
	return nil
}

func (r *AtomRepository) UpdateStatus(ctx context.Context, id models.AtomID, status *models.TaskStatus) error {
	started := time.Now()
	var err error
	if status != nil && !status.IsValid() {
		err = &models.InvalidTaskStatusError{Value: string(*status)}
	} else {
		err = r.updateLive(ctx, id, map[string]any{"task_status": statusColumn(status)})
	}
	r.logWrite("atom_update_status", id, started, err)
	return err
}

func (r *AtomRepository) UpdateEventTimes(ctx context.Context, id models.AtomID, startAt, endAt *int64) error {
	started := time.Now()
	err := models.ValidateEventWindow(startAt, endAt)
	if err == nil {
		err = r.updateLive(ctx, id, map[string]any{"start_at": startAt, "end_at": endAt})
	}
	r.logWrite("atom_update_event_times", id, started, err)
	return err
}

// updateLive applies columns to a non-deleted atom and bumps updated_at.
func (r *AtomRepository) updateLive(ctx context.Context, id models.AtomID, columns map[string]any) error {
	columns["updated_at"] = r.now().UnixMilli()
	res := r.getDB(ctx).Model(&atomRow{}).
		Where("uuid = ? AND is_deleted = ?", id.String(), false).
		Updates(columns)
	if res.Error != nil {
		return fmt.Errorf("failed to update atom %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &store.NotFoundError{Entity: "atom", ID: id.String()}
	}
	return nil
}

// openAtoms selects live atoms whose status is absent or not terminal.
func (r *AtomRepository) openAtoms(ctx context.Context) *gorm.DB {
	return r.getDB(ctx).Model(&atomRow{}).
		Where("is_deleted = ?", false).
		Where("(task_status IS NULL OR task_status NOT IN ?)", terminalStatusValues)
}

func (r *AtomRepository) FetchInbox(ctx context.Context, page store.Page) ([]store.SectionRow, error) {
	q := r.openAtoms(ctx).
		Where("start_at IS NULL AND end_at IS NULL").
		Order("updated_at DESC").Order("uuid ASC")
	return r.fetchSection(paginate(q, page), "inbox")
}

func (r *AtomRepository) FetchToday(ctx context.Context, window store.DayWindow, page store.Page) ([]store.SectionRow, error) {
	eod, bod := window.EndOfDay, window.BeginOfDay
	q := r.openAtoms(ctx).
		Where("((start_at IS NULL AND end_at IS NOT NULL AND end_at <= ?)"+
			" OR (start_at IS NOT NULL AND end_at IS NULL AND start_at <= ?)"+
			" OR (start_at IS NOT NULL AND end_at IS NOT NULL AND start_at <= ? AND end_at >= ?))",
			eod, eod, eod, bod)
	return r.fetchSection(paginate(scheduledOrder(q), page), "today")
}

func (r *AtomRepository) FetchUpcoming(ctx context.Context, endOfDay int64, page store.Page) ([]store.SectionRow, error) {
	q := r.openAtoms(ctx).
		Where("((start_at IS NULL AND end_at IS NOT NULL AND end_at > ?)"+
			" OR (start_at IS NOT NULL AND end_at IS NULL AND start_at > ?)"+
			" OR (start_at IS NOT NULL AND end_at IS NOT NULL AND start_at > ?))",
			endOfDay, endOfDay, endOfDay)
	return r.fetchSection(paginate(scheduledOrder(q), page), "upcoming")
}

func (r *AtomRepository) FetchByTimeRange(ctx context.Context, rangeStart, rangeEnd int64, page store.Page) ([]store.SectionRow, error) {
	q := r.getDB(ctx).Model(&atomRow{}).
		Where("is_deleted = ?", false).
		Where("start_at IS NOT NULL AND end_at IS NOT NULL AND start_at < ? AND end_at > ?", rangeEnd, rangeStart).
		Order("start_at ASC").Order("end_at ASC").Order("uuid ASC")
	return r.fetchSection(paginate(q, page), "time_range")
}

func scheduledOrder(q *gorm.DB) *gorm.DB {
	return q.Order("COALESCE(start_at, end_at) ASC").Order("updated_at DESC").Order("uuid ASC")
}

func (r *AtomRepository) fetchSection(q *gorm.DB, section string) ([]store.SectionRow, error) {
	var rows []atomRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s section: %w", section, err)
	}
	return rowsToSection(rows)
}

func (r *AtomRepository) Search(ctx context.Context, query store.SearchQuery) ([]*models.Atom, error) {
	q := r.getDB(ctx).Model(&atomRow{}).Where("is_deleted = ?", false)
	if text := strings.TrimSpace(query.Text); text != "" {
		q = q.Where(`LOWER(content) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(text))+"%")
	}
	if query.Kind != nil {
		q = q.Where("kind = ?", string(*query.Kind))
	}
	q = paginate(q.Order("updated_at DESC").Order("uuid ASC"), store.Page{Limit: query.Limit})

	var rows []atomRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search atoms: %w", err)
	}
	return rowsToAtoms(rows)
}

// ListModifiedSince pages by keyset so rows sharing one updated_at millisecond are never skipped.
func (r *AtomRepository) ListModifiedSince(ctx context.Context, cursor store.ChangeCursor, limit int) ([]store.SectionRow, error) {
	q := r.getDB(ctx).Model(&atomRow{})
	if cursor.AfterID.IsZero() {
		q = q.Where("updated_at >= ?", cursor.UpdatedAt)
	} else {
		q = q.Where("updated_at > ? OR (updated_at = ? AND uuid > ?)",
			cursor.UpdatedAt, cursor.UpdatedAt, cursor.AfterID.String())
	}
	q = q.Order("updated_at ASC").Order("uuid ASC")
	return r.fetchSection(paginate(q, store.Page{Limit: limit}), "modified")
}

func (r *AtomRepository) logWrite(event string, id models.AtomID, started time.Time, err error) {
	logWriteEvent(r.log, event, "atom_id", id.String(), started, err)
}

func logWriteEvent(log zerolog.Logger, event, idField, id string, started time.Time, err error) {
	ev := log.Info()
	status := "ok"
	if err != nil {
		ev = log.Warn()
		status = "error"
	}
	ev = ev.Str("event", event).
		Str("status", status).
		Str(idField, id).
		Int64("duration_ms", time.Since(started).Milliseconds())
	if err != nil {
		ev = ev.Str("error_code", errorCode(err)).Err(err)
	}
	ev.Send()
}

// paginate applies page to q. SQLite rejects OFFSET without LIMIT, so an unlimited page with an
// offset gets the largest limit both engines accept.
func paginate(q *gorm.DB, page store.Page) *gorm.DB {
	switch {
	case page.Limit > 0:
		q = q.Limit(page.Limit)
	case page.Offset > 0:
		q = q.Limit(math.MaxInt32)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
