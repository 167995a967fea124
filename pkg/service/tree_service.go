package service

import (
	"context"
	"errors"
	"strings"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

// TreeService maintains the workspace tree.
//
// Every mutation runs in one store transaction: the checks, the node write and the
// renumbering of the affected sibling groups either all apply or none does.
type TreeService struct {
	repo store.TreeRepository
}

func NewTreeService(repo store.TreeRepository) *TreeService {
	return &TreeService{repo: repo}
}

// CreateFolder appends a folder to the children of parent, or to the roots when parent is nil.
func (s *TreeService) CreateFolder(ctx context.Context, parent *models.NodeID, name string) (*models.WorkspaceNode, error) {
	name, err := displayName(name)
	if err != nil {
		return nil, err
	}
	node := &models.WorkspaceNode{
		ID:          models.NewNodeID(),
		Kind:        models.NodeKindFolder,
		ParentID:    cloneNodeID(parent),
		DisplayName: name,
	}
	err = s.repo.InTx(ctx, func(tx store.TreeTx) error {
		return appendNode(ctx, tx, node)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// CreateNoteRef appends a reference to a live note atom. Without a name the node is labelled
// models.DefaultNoteRefName.
func (s *TreeService) CreateNoteRef(ctx context.Context, parent *models.NodeID, atomID models.AtomID, name *string) (*models.WorkspaceNode, error) {
	label := models.DefaultNoteRefName
	if name != nil {
		var err error
		if label, err = displayName(*name); err != nil {
			return nil, err
		}
	}
	node := &models.WorkspaceNode{
		ID:          models.NewNodeID(),
		Kind:        models.NodeKindNoteRef,
		ParentID:    cloneNodeID(parent),
		AtomID:      &atomID,
		DisplayName: label,
	}
	err := s.repo.InTx(ctx, func(tx store.TreeTx) error {
		if err := requireFolderParent(ctx, tx, parent); err != nil {
			return err
		}
		ref, err := tx.LookupAtom(ctx, atomID)
		if err != nil {
			return err
		}
		if ref == nil || ref.IsDeleted || ref.Kind != models.AtomKindNote {
			return &AtomNotNoteError{AtomID: atomID}
		}
		return appendNode(ctx, tx, node)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (s *TreeService) GetNode(ctx context.Context, id models.NodeID) (*models.WorkspaceNode, error) {
	node, err := s.repo.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NodeNotFoundError{ID: id}
	}
	return node, nil
}

// ListChildren returns the children of parent by sort order. A nil parent lists the roots.
func (s *TreeService) ListChildren(ctx context.Context, parent *models.NodeID) ([]*models.WorkspaceNode, error) {
	if parent != nil {
		node, err := s.repo.GetNode(ctx, *parent)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, &ParentNotFoundError{ParentID: *parent}
		}
	}
	return s.repo.ListChildren(ctx, parent)
}

// MoveNode reparents id under newParent (nil for the roots) at position targetOrder, which is
// clamped to the size of the target group. A nil targetOrder appends.
func (s *TreeService) MoveNode(ctx context.Context, id models.NodeID, newParent *models.NodeID, targetOrder *int) error {
	return s.repo.InTx(ctx, func(tx store.TreeTx) error {
		node, err := tx.GetNode(ctx, id)
		if err != nil {
			return err
		}
		if node == nil {
			return &NodeNotFoundError{ID: id}
		}
		if newParent != nil {
			if err := requireFolderParent(ctx, tx, newParent); err != nil {
				return err
			}
			if err := checkCycle(ctx, tx, id, *newParent); err != nil {
				return err
			}
		}

		source, err := tx.ListChildren(ctx, node.ParentID)
		if err != nil {
			return err
		}
		source = withoutNode(source, id)

		sameGroup := models.SameParent(node.ParentID, newParent)
		target := source
		if !sameGroup {
			if target, err = tx.ListChildren(ctx, newParent); err != nil {
				return err
			}
		}

		pos := len(target)
		if targetOrder != nil {
			pos = min(max(*targetOrder, 0), len(target))
		}
		node.ParentID = cloneNodeID(newParent)
		target = insertAt(target, pos, node)

		changed := renumber(target)
		if !sameGroup {
			changed = append(changed, renumber(source)...)
		}
		return tx.SavePlacement(ctx, changed)
	})
}

func (s *TreeService) RenameNode(ctx context.Context, id models.NodeID, name string) error {
	name, err := displayName(name)
	if err != nil {
		return err
	}
	err = s.repo.InTx(ctx, func(tx store.TreeTx) error {
		return tx.RenameNode(ctx, id, name)
	})
	if errors.Is(err, store.ErrNotFound) {
		return &NodeNotFoundError{ID: id}
	}
	return err
}

// DeleteNode removes a node together with its whole subtree and closes the gap it leaves in
// its sibling group. Referenced atoms are not touched. It returns the number of removed nodes.
func (s *TreeService) DeleteNode(ctx context.Context, id models.NodeID) (int, error) {
	removed := 0
	err := s.repo.InTx(ctx, func(tx store.TreeTx) error {
		node, err := tx.GetNode(ctx, id)
		if err != nil {
			return err
		}
		if node == nil {
			return &NodeNotFoundError{ID: id}
		}

		ids := []models.NodeID{id}
		for i := 0; i < len(ids); i++ {
			children, err := tx.ListChildren(ctx, &ids[i])
			if err != nil {
				return err
			}
			for _, child := range children {
				ids = append(ids, child.ID)
			}
		}
		if err := tx.DeleteNodes(ctx, ids); err != nil {
			return err
		}
		removed = len(ids)

		return compactGroup(ctx, tx, node.ParentID)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// PruneStaleRefs removes note references whose atom is gone, soft-deleted or no longer a note,
// and renumbers the groups they leave. It returns the number of removed references.
func (s *TreeService) PruneStaleRefs(ctx context.Context) (int, error) {
	pruned := 0
	err := s.repo.InTx(ctx, func(tx store.TreeTx) error {
		refs, err := tx.ListNoteRefs(ctx)
		if err != nil {
			return err
		}

		var stale []models.NodeID
		groups := map[string]*models.NodeID{}
		for _, ref := range refs {
			atom, err := tx.LookupAtom(ctx, *ref.AtomID)
			if err != nil {
				return err
			}
			if atom != nil && !atom.IsDeleted && atom.Kind == models.AtomKindNote {
				continue
			}
			stale = append(stale, ref.ID)
			groups[groupKey(ref.ParentID)] = ref.ParentID
		}
		if len(stale) == 0 {
			return nil
		}
		if err := tx.DeleteNodes(ctx, stale); err != nil {
			return err
		}
		for _, parent := range groups {
			if err := compactGroup(ctx, tx, parent); err != nil {
				return err
			}
		}
		pruned = len(stale)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}

func appendNode(ctx context.Context, tx store.TreeTx, node *models.WorkspaceNode) error {
	if err := requireFolderParent(ctx, tx, node.ParentID); err != nil {
		return err
	}
	siblings, err := tx.ListChildren(ctx, node.ParentID)
	if err != nil {
		return err
	}
	node.SortOrder = len(siblings)
	return tx.InsertNode(ctx, node)
}

func requireFolderParent(ctx context.Context, tx store.TreeTx, parent *models.NodeID) error {
	if parent == nil {
		return nil
	}
	node, err := tx.GetNode(ctx, *parent)
	if err != nil {
		return err
	}
	if node == nil {
		return &ParentNotFoundError{ParentID: *parent}
	}
	if !node.IsFolder() {
		return &ParentMustBeFolderError{ParentID: *parent}
	}
	return nil
}

// checkCycle walks from parent towards the root and fails if id is met on the way.
func checkCycle(ctx context.Context, tx store.TreeTx, id, parent models.NodeID) error {
	if parent == id {
		return &CycleDetectedError{NodeID: id, ParentID: parent}
	}
	seen := map[models.NodeID]bool{parent: true}
	current := parent
	for {
		node, err := tx.GetNode(ctx, current)
		if err != nil {
			return err
		}
		if node == nil {
			return &store.InvalidDataError{Table: "workspace_nodes", ID: current.String(), Message: "ancestor is missing"}
		}
		if node.ParentID == nil {
			return nil
		}
		next := *node.ParentID
		if next == id {
			return &CycleDetectedError{NodeID: id, ParentID: parent}
		}
		if seen[next] {
			return &store.InvalidDataError{Table: "workspace_nodes", ID: next.String(), Message: "ancestor chain loops"}
		}
		seen[next] = true
		current = next
	}
}

// compactGroup rewrites the sort order of a sibling group as 0..n-1.
func compactGroup(ctx context.Context, tx store.TreeTx, parent *models.NodeID) error {
	siblings, err := tx.ListChildren(ctx, parent)
	if err != nil {
		return err
	}
	return tx.SavePlacement(ctx, renumber(siblings))
}

// renumber assigns dense positions and returns the group for writing back.
func renumber(nodes []*models.WorkspaceNode) []*models.WorkspaceNode {
	for i, n := range nodes {
		n.SortOrder = i
	}
	return nodes
}

func withoutNode(nodes []*models.WorkspaceNode, id models.NodeID) []*models.WorkspaceNode {
	out := make([]*models.WorkspaceNode, 0, len(nodes))
	for _, n := range nodes {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}

func insertAt(nodes []*models.WorkspaceNode, pos int, node *models.WorkspaceNode) []*models.WorkspaceNode {
	out := make([]*models.WorkspaceNode, 0, len(nodes)+1)
	out = append(out, nodes[:pos]...)
	out = append(out, node)
	return append(out, nodes[pos:]...)
}

func displayName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &InvalidDisplayNameError{Name: name}
	}
	return trimmed, nil
}

func cloneNodeID(id *models.NodeID) *models.NodeID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func groupKey(parent *models.NodeID) string {
	if parent == nil {
		return ""
	}
	return parent.String()
}
