package lazynote

import (
	"net/http"

	"github.com/WYI1223/LazyLife/pkg/models"
)

type createFolderRequest struct {
	ParentID *models.NodeID `json:"parent_id"`
	Name     string         `json:"name"`
}

func (a *App) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	node, err := a.trees.CreateFolder(r.Context(), req.ParentID, req.Name)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "node_created", ID: node.ID.String()})
	respondJSON(w, http.StatusCreated, node)
}

type createNoteRefRequest struct {
	ParentID    *models.NodeID `json:"parent_id"`
	AtomID      models.AtomID  `json:"atom_id"`
	DisplayName *string        `json:"display_name"`
}

func (a *App) handleCreateNoteRef(w http.ResponseWriter, r *http.Request) {
	var req createNoteRefRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AtomID.IsZero() {
		respondError(w, http.StatusBadRequest, "atom_id is required")
		return
	}
	node, err := a.trees.CreateNoteRef(r.Context(), req.ParentID, req.AtomID, req.DisplayName)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "node_created", ID: node.ID.String()})
	respondJSON(w, http.StatusCreated, node)
}

func (a *App) handleListChildren(w http.ResponseWriter, r *http.Request) {
	var parent *models.NodeID
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		id, err := models.ParseNodeID(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		parent = &id
	}
	children, err := a.trees.ListChildren(r.Context(), parent)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": children})
}

func (a *App) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	node, err := a.trees.GetNode(r.Context(), id)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, node)
}

type moveNodeRequest struct {
	ParentID    *models.NodeID `json:"parent_id"`
	TargetOrder *int           `json:"target_order"`
}

func (a *App) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req moveNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.trees.MoveNode(r.Context(), id, req.ParentID, req.TargetOrder); err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "node_moved", ID: id.String()})
	respondJSON(w, http.StatusNoContent, nil)
}

type renameNodeRequest struct {
	Name string `json:"name"`
}

func (a *App) handleRenameNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req renameNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.trees.RenameNode(r.Context(), id, req.Name); err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "node_renamed", ID: id.String()})
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	removed, err := a.trees.DeleteNode(r.Context(), id)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "node_deleted", ID: id.String()})
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (a *App) handlePruneStaleRefs(w http.ResponseWriter, r *http.Request) {
	pruned, err := a.trees.PruneStaleRefs(r.Context())
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	if pruned > 0 {
		a.hub.Publish(Change{Type: "tree_pruned"})
	}
	respondJSON(w, http.StatusOK, map[string]int{"pruned": pruned})
}
