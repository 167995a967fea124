package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

// tagLookupChunk keeps IN lists well below the SQLite bound-parameter limit.
const tagLookupChunk = 500

// TagStore keeps the normalized tag set of each atom.
type TagStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

var _ store.TagStore = (*TagStore)(nil)

func NewTagStore(ctx context.Context, db *DB) (*TagStore, error) {
	if err := db.ensureReady(ctx, atomsTable, tagsTable, atomTagsTable); err != nil {
		return nil, err
	}
	return &TagStore{db: db.gorm, log: db.log.With().Str("module", "tag_store").Logger()}, nil
}

type atomTagPair struct {
	AtomUUID string
	Name     string
}

func (s *TagStore) LoadTagsForAtoms(ctx context.Context, ids []models.AtomID) (map[models.AtomID][]string, error) {
	out := make(map[models.AtomID][]string, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		out[id] = []string{}
		keys = append(keys, id.String())
	}

	for start := 0; start < len(keys); start += tagLookupChunk {
		end := min(start+tagLookupChunk, len(keys))
		var pairs []atomTagPair
		err := s.db.WithContext(ctx).
			Table("atom_tags").
			Select("atom_tags.atom_uuid AS atom_uuid, tags.name AS name").
			Joins("JOIN tags ON tags.id = atom_tags.tag_id").
			Where("atom_tags.atom_uuid IN ?", keys[start:end]).
			Order("atom_tags.atom_uuid ASC").Order("tags.name ASC").
			Scan(&pairs).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load tags: %w", err)
		}
		for _, p := range pairs {
			id, err := models.ParseAtomID(p.AtomUUID)
			if err != nil {
				return nil, invalidData(atomTagsTable.table, p.AtomUUID, "%v", err)
			}
			out[id] = append(out[id], p.Name)
		}
	}

	for id, tags := range out {
		out[id] = store.NormalizeTags(tags)
	}
	return out, nil
}

// SetTags replaces the tags of a live atom.
func (s *TagStore) SetTags(ctx context.Context, id models.AtomID, tags []string) error {
	started := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&atomRow{}).Where("uuid = ? AND is_deleted = ?", id.String(), false).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return &store.NotFoundError{Entity: "atom", ID: id.String()}
		}

		if err := tx.Where("atom_uuid = ?", id.String()).Delete(&atomTagRow{}).Error; err != nil {
			return err
		}
		for _, name := range store.NormalizeTags(tags) {
			tag := tagRow{Name: name}
			if err := tx.Where(tagRow{Name: name}).FirstOrCreate(&tag).Error; err != nil {
				return err
			}
			if err := tx.Create(&atomTagRow{AtomUUID: id.String(), TagID: tag.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	logWriteEvent(s.log, "atom_set_tags", "atom_id", id.String(), started, err)
	return err
}
