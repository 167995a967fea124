package service

import (
	"context"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

// SectionAtom is an atom listed in a section, with its tags and last update time.
type SectionAtom struct {
	Atom      *models.Atom `json:"atom"`
	Tags      []string     `json:"tags"`
	UpdatedAt int64        `json:"updated_at"`
}

type TaskService struct {
	atoms store.AtomRepository
	tags  store.TagLookup
}

func NewTaskService(atoms store.AtomRepository, tags store.TagLookup) *TaskService {
	return &TaskService{atoms: atoms, tags: tags}
}

func (s *TaskService) FetchInbox(ctx context.Context, page store.Page) ([]SectionAtom, error) {
	rows, err := s.atoms.FetchInbox(ctx, page)
	if err != nil {
		return nil, err
	}
	return s.attachTags(ctx, rows)
}

func (s *TaskService) FetchToday(ctx context.Context, window store.DayWindow, page store.Page) ([]SectionAtom, error) {
	rows, err := s.atoms.FetchToday(ctx, window, page)
	if err != nil {
		return nil, err
	}
	return s.attachTags(ctx, rows)
}

func (s *TaskService) FetchUpcoming(ctx context.Context, endOfDay int64, page store.Page) ([]SectionAtom, error) {
	rows, err := s.atoms.FetchUpcoming(ctx, endOfDay, page)
	if err != nil {
		return nil, err
	}
	return s.attachTags(ctx, rows)
}

func (s *TaskService) FetchByTimeRange(ctx context.Context, rangeStart, rangeEnd int64, page store.Page) ([]SectionAtom, error) {
	rows, err := s.atoms.FetchByTimeRange(ctx, rangeStart, rangeEnd, page)
	if err != nil {
		return nil, err
	}
	return s.attachTags(ctx, rows)
}

// UpdateStatus sets or clears the status of any kind of atom.
func (s *TaskService) UpdateStatus(ctx context.Context, id models.AtomID, status *models.TaskStatus) error {
	return mapAtomError(id, s.atoms.UpdateStatus(ctx, id, status))
}

func (s *TaskService) UpdateEventTimes(ctx context.Context, id models.AtomID, startAt, endAt *int64) error {
	return mapAtomError(id, s.atoms.UpdateEventTimes(ctx, id, startAt, endAt))
}

// attachTags loads the tags of all rows in a single lookup.
func (s *TaskService) attachTags(ctx context.Context, rows []store.SectionRow) ([]SectionAtom, error) {
	out := make([]SectionAtom, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]models.AtomID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Atom.ID)
	}
	tagsByID, err := s.tags.LoadTagsForAtoms(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		tags := tagsByID[row.Atom.ID]
		if tags == nil {
			tags = []string{}
		}
		out = append(out, SectionAtom{Atom: row.Atom, Tags: tags, UpdatedAt: row.UpdatedAt})
	}
	return out, nil
}
