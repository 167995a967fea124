package sqlstore

import (
	"context"
	"fmt"

	"github.com/WYI1223/LazyLife/pkg/store"
)

type atomRow struct {
	UUID           string  `gorm:"column:uuid;primaryKey"`
	Kind           string  `gorm:"column:kind;not null"`
	Content        string  `gorm:"column:content;not null"`
	PreviewText    *string `gorm:"column:preview_text"`
	PreviewImage   *string `gorm:"column:preview_image"`
	TaskStatus     *string `gorm:"column:task_status"`
	StartAt        *int64  `gorm:"column:start_at;index:idx_atoms_start_at"`
	EndAt          *int64  `gorm:"column:end_at;index:idx_atoms_end_at"`
	RecurrenceRule *string `gorm:"column:recurrence_rule"`
	HLCTimestamp   *string `gorm:"column:hlc_timestamp"`
	IsDeleted      bool    `gorm:"column:is_deleted;not null;default:false;index:idx_atoms_live_updated,priority:1"`
	CreatedAtMS    int64   `gorm:"column:created_at;not null"`
	UpdatedAtMS    int64   `gorm:"column:updated_at;not null;index:idx_atoms_live_updated,priority:2"`
}

func (atomRow) TableName() string { return "atoms" }

type tagRow struct {
	ID   uint   `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;not null;uniqueIndex:idx_tags_name"`
}

func (tagRow) TableName() string { return "tags" }

type atomTagRow struct {
	AtomUUID string `gorm:"column:atom_uuid;primaryKey"`
	TagID    uint   `gorm:"column:tag_id;primaryKey;autoIncrement:false;index:idx_atom_tags_tag"`
}

func (atomTagRow) TableName() string { return "atom_tags" }

type workspaceNodeRow struct {
	NodeUUID    string  `gorm:"column:node_uuid;primaryKey"`
	Kind        string  `gorm:"column:kind;not null"`
	ParentUUID  *string `gorm:"column:parent_uuid;index:idx_workspace_nodes_parent"`
	AtomUUID    *string `gorm:"column:atom_uuid;index:idx_workspace_nodes_atom"`
	DisplayName string  `gorm:"column:display_name;not null"`
	SortOrder   int     `gorm:"column:sort_order;not null"`
	CreatedAtMS int64   `gorm:"column:created_at;not null"`
	UpdatedAtMS int64   `gorm:"column:updated_at;not null"`
}

func (workspaceNodeRow) TableName() string { return "workspace_nodes" }

// tableSpec lists the columns a repository reads from one table.
type tableSpec struct {
	table   string
	columns []string
}

var (
	atomsTable = tableSpec{
		table: "atoms",
		columns: []string{
			"uuid", "kind", "content", "preview_text", "preview_image", "task_status",
			"start_at", "end_at", "recurrence_rule", "hlc_timestamp", "is_deleted", "updated_at",
		},
	}
	tagsTable          = tableSpec{table: "tags", columns: []string{"id", "name"}}
	atomTagsTable      = tableSpec{table: "atom_tags", columns: []string{"atom_uuid", "tag_id"}}
	workspaceNodeTable = tableSpec{
		table:   "workspace_nodes",
		columns: []string{"node_uuid", "kind", "parent_uuid", "atom_uuid", "display_name", "sort_order"},
	}
)

// ensureReady verifies the schema version and the shape of the given tables.
func (d *DB) ensureReady(ctx context.Context, specs ...tableSpec) error {
	version, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != LatestSchemaVersion {
		return &store.UninitializedConnectionError{Expected: LatestSchemaVersion, Actual: version}
	}

	migrator := d.gorm.WithContext(ctx).Migrator()
	for _, spec := range specs {
		if !migrator.HasTable(spec.table) {
			return &store.MissingTableError{Table: spec.table}
		}
		for _, column := range spec.columns {
			if !migrator.HasColumn(spec.table, column) {
				return &store.MissingColumnError{Table: spec.table, Column: column}
			}
		}
	}
	return nil
}

func invalidData(table, id, format string, args ...any) error {
	return &store.InvalidDataError{Table: table, ID: id, Message: fmt.Sprintf(format, args...)}
}
