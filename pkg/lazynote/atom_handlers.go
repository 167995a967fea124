package lazynote

import (
	"net/http"
	"strconv"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

func checkKind(atom *models.Atom) error {
	_, err := models.ParseAtomKind(string(atom.Kind))
	return err
}

func (a *App) handleCreateAtom(w http.ResponseWriter, r *http.Request) {
	var atom models.Atom
	if err := decodeJSON(r, &atom); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkKind(&atom); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.createAtom(w, r, &atom)
}

func (a *App) createAtom(w http.ResponseWriter, r *http.Request, atom *models.Atom) {
	id, err := a.atoms.Create(r.Context(), atom)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "atom_created", ID: id.String()})
	respondJSON(w, http.StatusCreated, atom)
}

func (a *App) handleListAtoms(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := store.AtomListQuery{Page: page}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := models.ParseAtomKind(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		query.Kind = &kind
	}
	if raw := r.URL.Query().Get("include_deleted"); raw != "" {
		if query.IncludeDeleted, err = strconv.ParseBool(raw); err != nil {
			respondError(w, http.StatusBadRequest, "invalid include_deleted")
			return
		}
	}

	atoms, err := a.atoms.List(r.Context(), query)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, atoms)
}

func (a *App) handleGetAtom(w http.ResponseWriter, r *http.Request) {
	id, err := atomIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))

	atom, err := a.atoms.Get(r.Context(), id, includeDeleted)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	if atom == nil {
		respondError(w, http.StatusNotFound, "atom not found")
		return
	}
	tags, err := a.tags.LoadTagsForAtoms(r.Context(), []models.AtomID{id})
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"atom": atom, "tags": tags[id]})
}

func (a *App) handleUpdateAtom(w http.ResponseWriter, r *http.Request) {
	id, err := atomIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var atom models.Atom
	if err := decodeJSON(r, &atom); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	atom.ID = id
	if err := checkKind(&atom); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.atoms.Update(r.Context(), &atom); err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "atom_updated", ID: id.String()})
	respondJSON(w, http.StatusOK, atom)
}

func (a *App) handleDeleteAtom(w http.ResponseWriter, r *http.Request) {
	id, err := atomIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.atoms.SoftDelete(r.Context(), id); err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "atom_deleted", ID: id.String()})
	respondJSON(w, http.StatusNoContent, nil)
}

type statusRequest struct {
	Status *string `json:"status"`
}

func (a *App) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := atomIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var status *models.TaskStatus
	if req.Status != nil {
		s, err := models.ParseTaskStatus(*req.Status)
		if err != nil {
			a.respondErr(w, r, err)
			return
		}
		status = &s
	}

	if err := a.tasks.UpdateStatus(r.Context(), id, status); err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "atom_updated", ID: id.String()})
	respondJSON(w, http.StatusNoContent, nil)
}

type eventTimesRequest struct {
	StartAt *int64 `json:"start_at"`
	EndAt   *int64 `json:"end_at"`
}

func (a *App) handleUpdateEventTimes(w http.ResponseWriter, r *http.Request) {
	id, err := atomIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req eventTimesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.tasks.UpdateEventTimes(r.Context(), id, req.StartAt, req.EndAt); err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "atom_updated", ID: id.String()})
	respondJSON(w, http.StatusNoContent, nil)
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func (a *App) handleSetTags(w http.ResponseWriter, r *http.Request) {
	id, err := atomIDVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req tagsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.tags.SetTags(r.Context(), id, req.Tags); err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.hub.Publish(Change{Type: "atom_tagged", ID: id.String()})
	respondJSON(w, http.StatusOK, tagsRequest{Tags: store.NormalizeTags(req.Tags)})
}
