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

// TreeRepository is the GORM implementation of store.TreeRepository.
type TreeRepository struct {
	db  *gorm.DB
	log zerolog.Logger
	now func() time.Time
}

var _ store.TreeRepository = (*TreeRepository)(nil)

func NewTreeRepository(ctx context.Context, db *DB) (*TreeRepository, error) {
	if err := db.ensureReady(ctx, atomsTable, workspaceNodeTable); err != nil {
		return nil, err
	}
	return &TreeRepository{
		db:  db.gorm,
		log: db.log.With().Str("module", "tree_repo").Logger(),
		now: db.now,
	}, nil
}

func (r *TreeRepository) GetNode(ctx context.Context, id models.NodeID) (*models.WorkspaceNode, error) {
	return getNode(r.db.WithContext(ctx), id)
}

func (r *TreeRepository) ListChildren(ctx context.Context, parent *models.NodeID) ([]*models.WorkspaceNode, error) {
	return listChildren(r.db.WithContext(ctx), parent)
}

func (r *TreeRepository) InTx(ctx context.Context, fn func(tx store.TreeTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&treeTx{db: tx, log: r.log, now: r.now})
	})
}

// treeTx implements store.TreeTx on a GORM transaction.
type treeTx struct {
	db  *gorm.DB
	log zerolog.Logger
	now func() time.Time
}

func (t *treeTx) GetNode(ctx context.Context, id models.NodeID) (*models.WorkspaceNode, error) {
	return getNode(t.db.WithContext(ctx), id)
}

func (t *treeTx) ListChildren(ctx context.Context, parent *models.NodeID) ([]*models.WorkspaceNode, error) {
	return listChildren(t.db.WithContext(ctx), parent)
}

func (t *treeTx) InsertNode(ctx context.Context, node *models.WorkspaceNode) error {
	started := time.Now()
	err := node.Check()
	if err == nil {
		now := t.now().UnixMilli()
		err = t.db.WithContext(ctx).Create(nodeToRow(node, now)).Error
		err = translateWriteError(err, "workspace node", node.ID.String())
	}
	logWriteEvent(t.log, "node_insert", "node_id", node.ID.String(), started, err)
	return err
}

func (t *treeTx) SavePlacement(ctx context.Context, nodes []*models.WorkspaceNode) error {
	now := t.now().UnixMilli()
	for _, node := range nodes {
		res := t.db.WithContext(ctx).Model(&workspaceNodeRow{}).
			Where("node_uuid = ?", node.ID.String()).
			Updates(map[string]any{
				"parent_uuid": nodeIDColumn(node.ParentID),
				"sort_order":  node.SortOrder,
				"updated_at":  now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to place node %s: %w", node.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return &store.NotFoundError{Entity: "workspace node", ID: node.ID.String()}
		}
	}
	return nil
}

func (t *treeTx) RenameNode(ctx context.Context, id models.NodeID, name string) error {
	started := time.Now()
	res := t.db.WithContext(ctx).Model(&workspaceNodeRow{}).
		Where("node_uuid = ?", id.String()).
		Updates(map[string]any{"display_name": name, "updated_at": t.now().UnixMilli()})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = &store.NotFoundError{Entity: "workspace node", ID: id.String()}
	}
	logWriteEvent(t.log, "node_rename", "node_id", id.String(), started, err)
	return err
}

func (t *treeTx) DeleteNodes(ctx context.Context, ids []models.NodeID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	if err := t.db.WithContext(ctx).Where("node_uuid IN ?", keys).Delete(&workspaceNodeRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete workspace nodes: %w", err)
	}
	t.log.Info().Str("event", "node_delete").Str("status", "ok").Int("count", len(ids)).Send()
	return nil
}

func (t *treeTx) ListNoteRefs(ctx context.Context) ([]*models.WorkspaceNode, error) {
	var rows []workspaceNodeRow
	err := t.db.WithContext(ctx).
		Where("kind = ?", string(models.NodeKindNoteRef)).
		Order("node_uuid ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list note references: %w", err)
	}
	return rowsToNodes(rows)
}

func (t *treeTx) LookupAtom(ctx context.Context, id models.AtomID) (*store.AtomRef, error) {
	var rows []atomRow
	err := t.db.WithContext(ctx).
		Select("uuid", "kind", "is_deleted").
		Where("uuid = ?", id.String()).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up atom %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	kind, err := models.ParseAtomKind(rows[0].Kind)
	if err != nil {
		return nil, invalidData(atomsTable.table, rows[0].UUID, "%v", err)
	}
	return &store.AtomRef{ID: id, Kind: kind, IsDeleted: rows[0].IsDeleted}, nil
}

func getNode(db *gorm.DB, id models.NodeID) (*models.WorkspaceNode, error) {
	var rows []workspaceNodeRow
	if err := db.Where("node_uuid = ?", id.String()).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel()
}

func listChildren(db *gorm.DB, parent *models.NodeID) ([]*models.WorkspaceNode, error) {
	q := db.Model(&workspaceNodeRow{})
	if parent == nil {
		q = q.Where("parent_uuid IS NULL")
	} else {
		q = q.Where("parent_uuid = ?", parent.String())
	}
	var rows []workspaceNodeRow
	if err := q.Order("sort_order ASC").Order("node_uuid ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return rowsToNodes(rows)
}

func nodeToRow(n *models.WorkspaceNode, now int64) *workspaceNodeRow {
	row := &workspaceNodeRow{
		NodeUUID:    n.ID.String(),
		Kind:        string(n.Kind),
		ParentUUID:  nodeIDColumn(n.ParentID),
		DisplayName: n.DisplayName,
		SortOrder:   n.SortOrder,
		CreatedAtMS: now,
		UpdatedAtMS: now,
	}
	if n.AtomID != nil {
		s := n.AtomID.String()
		row.AtomUUID = &s
	}
	return row
}

func (r *workspaceNodeRow) toModel() (*models.WorkspaceNode, error) {
	table := workspaceNodeTable.table
	id, err := models.ParseNodeID(r.NodeUUID)
	if err != nil {
		return nil, invalidData(table, r.NodeUUID, "%v", err)
	}
	kind, err := models.ParseNodeKind(r.Kind)
	if err != nil {
		return nil, invalidData(table, r.NodeUUID, "%v", err)
	}
	node := &models.WorkspaceNode{
		ID:          id,
		Kind:        kind,
		DisplayName: r.DisplayName,
		SortOrder:   r.SortOrder,
	}
	if r.ParentUUID != nil {
		parent, err := models.ParseNodeID(*r.ParentUUID)
		if err != nil {
			return nil, invalidData(table, r.NodeUUID, "parent: %v", err)
		}
		node.ParentID = &parent
	}
	if r.AtomUUID != nil {
		atomID, err := models.ParseAtomID(*r.AtomUUID)
		if err != nil {
			return nil, invalidData(table, r.NodeUUID, "atom: %v", err)
		}
		node.AtomID = &atomID
	}
	if err := node.Check(); err != nil {
		return nil, invalidData(table, r.NodeUUID, "%v", err)
	}
	return node, nil
}

func rowsToNodes(rows []workspaceNodeRow) ([]*models.WorkspaceNode, error) {
	nodes := make([]*models.WorkspaceNode, 0, len(rows))
	for i := range rows {
		node, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func nodeIDColumn(id *models.NodeID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
