package models

import (
	"fmt"
	"strings"
)

// DefaultNoteRefName labels a note reference created without an explicit name.
const DefaultNoteRefName = "Untitled note"

// NodeKind represents the type of workspace tree node
type NodeKind string

const (
	NodeKindFolder  NodeKind = "folder"
	NodeKindNoteRef NodeKind = "note_ref"
)

func ParseNodeKind(s string) (NodeKind, error) {
	switch k := NodeKind(s); k {
	case NodeKindFolder, NodeKindNoteRef:
		return k, nil
	default:
		return "", fmt.Errorf("unknown node kind %q", s)
	}
}

// WorkspaceNode is an entry of the workspace tree.
//
// A nil ParentID marks a root. AtomID is set for NoteRef nodes only. SortOrder is the
// zero-based position among the node's siblings.
type WorkspaceNode struct {
	ID          NodeID   `json:"node_id"`
	Kind        NodeKind `json:"kind"`
	ParentID    *NodeID  `json:"parent_id,omitempty"`
	AtomID      *AtomID  `json:"atom_id,omitempty"`
	DisplayName string   `json:"display_name"`
	SortOrder   int      `json:"sort_order"`
}

func (n *WorkspaceNode) IsFolder() bool { return n.Kind == NodeKindFolder }

// Check verifies the shape of a node as it would be persisted.
func (n *WorkspaceNode) Check() error {
	if n.ID.IsZero() {
		return fmt.Errorf("node id must be set")
	}
	switch n.Kind {
	case NodeKindFolder:
		if n.AtomID != nil {
			return fmt.Errorf("folder %s must not reference an atom", n.ID)
		}
	case NodeKindNoteRef:
		if n.AtomID == nil || n.AtomID.IsZero() {
			return fmt.Errorf("note reference %s has no atom", n.ID)
		}
	default:
		return fmt.Errorf("unknown node kind %q", n.Kind)
	}
	if n.ParentID != nil && *n.ParentID == n.ID {
		return fmt.Errorf("node %s is its own parent", n.ID)
	}
	if strings.TrimSpace(n.DisplayName) == "" {
		return fmt.Errorf("node %s has an empty display name", n.ID)
	}
	if n.SortOrder < 0 {
		return fmt.Errorf("node %s has negative sort order %d", n.ID, n.SortOrder)
	}
	return nil
}

// SameParent reports whether two optional parent ids point at the same sibling group.
func SameParent(a, b *NodeID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
