package sqlstore

import (
	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

func atomToRow(a *models.Atom, createdAt, updatedAt int64) *atomRow {
	return &atomRow{
		UUID:           a.ID.String(),
		Kind:           string(a.Kind),
		Content:        a.Content,
		PreviewText:    a.PreviewText,
		PreviewImage:   a.PreviewImage,
		TaskStatus:     statusColumn(a.TaskStatus),
		StartAt:        a.StartAt,
		EndAt:          a.EndAt,
		RecurrenceRule: a.RecurrenceRule,
		HLCTimestamp:   a.HLCTimestamp,
		IsDeleted:      a.IsDeleted,
		CreatedAtMS:    createdAt,
		UpdatedAtMS:    updatedAt,
	}
}

// updateColumns lists every column Update replaces.
func (r *atomRow) updateColumns() map[string]any {
	return map[string]any{
		"kind":            r.Kind,
		"content":         r.Content,
		"preview_text":    r.PreviewText,
		"preview_image":   r.PreviewImage,
		"task_status":     r.TaskStatus,
		"start_at":        r.StartAt,
		"end_at":          r.EndAt,
		"recurrence_rule": r.RecurrenceRule,
		"hlc_timestamp":   r.HLCTimestamp,
		"is_deleted":      r.IsDeleted,
		"updated_at":      r.UpdatedAtMS,
	}
}

// toModel parses and validates a stored row.
func (r *atomRow) toModel() (*models.Atom, error) {
	id, err := models.ParseAtomID(r.UUID)
	if err != nil {
		return nil, invalidData(atomsTable.table, r.UUID, "%v", err)
	}
	kind, err := models.ParseAtomKind(r.Kind)
	if err != nil {
		return nil, invalidData(atomsTable.table, r.UUID, "%v", err)
	}
	var status *models.TaskStatus
	if r.TaskStatus != nil {
		s, err := models.ParseTaskStatus(*r.TaskStatus)
		if err != nil {
			return nil, invalidData(atomsTable.table, r.UUID, "%v", err)
		}
		status = &s
	}

	atom := &models.Atom{
		ID:             id,
		Kind:           kind,
		Content:        r.Content,
		PreviewText:    r.PreviewText,
		PreviewImage:   r.PreviewImage,
		TaskStatus:     status,
		StartAt:        r.StartAt,
		EndAt:          r.EndAt,
		RecurrenceRule: r.RecurrenceRule,
		HLCTimestamp:   r.HLCTimestamp,
		IsDeleted:      r.IsDeleted,
	}
	if err := atom.Validate(); err != nil {
		return nil, invalidData(atomsTable.table, r.UUID, "%v", err)
	}
	return atom, nil
}

func rowsToAtoms(rows []atomRow) ([]*models.Atom, error) {
	atoms := make([]*models.Atom, 0, len(rows))
	for i := range rows {
		atom, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, atom)
	}
	return atoms, nil
}

func rowsToSection(rows []atomRow) ([]store.SectionRow, error) {
	out := make([]store.SectionRow, 0, len(rows))
	for i := range rows {
		atom, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, store.SectionRow{Atom: atom, UpdatedAt: rows[i].UpdatedAtMS})
	}
	return out, nil
}

func statusColumn(s *models.TaskStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

var terminalStatusValues = func() []string {
	out := make([]string, 0, len(models.TerminalStatuses))
	for _, s := range models.TerminalStatuses {
		out = append(out, string(s))
	}
	return out
}()
