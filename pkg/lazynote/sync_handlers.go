package lazynote

import (
	"net/http"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/provider"
	"github.com/WYI1223/LazyLife/pkg/store"
)

const defaultChangeBatch = 200

func (a *App) handleListProviders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"providers": a.providers.Statuses()})
}

type changesResponse struct {
	Changes []provider.PushChange `json:"changes"`
	// Cursor and CursorID are the since and since_id values for the next call.
	Cursor   int64  `json:"cursor"`
	CursorID string `json:"cursor_id,omitempty"`
	HasMore  bool   `json:"has_more"`
}

// handleListChanges projects atoms modified since the given epoch millisecond into provider
// push changes. since_id resumes after that atom within the same millisecond. Notes are
// skipped.
func (a *App) handleListChanges(w http.ResponseWriter, r *http.Request) {
	since, err := queryInt64(r, "since", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cursor := store.ChangeCursor{UpdatedAt: since}
	if raw := r.URL.Query().Get("since_id"); raw != "" {
		if cursor.AfterID, err = models.ParseAtomID(raw); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	limit, err := queryInt64(r, "limit", defaultChangeBatch)
	if err != nil || limit <= 0 {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	rows, err := a.atoms.ListModifiedSince(r.Context(), cursor, int(limit))
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	atoms := make([]*models.Atom, 0, len(rows))
	for _, row := range rows {
		atoms = append(atoms, row.Atom)
	}
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		cursor = store.ChangeCursor{UpdatedAt: last.UpdatedAt, AfterID: last.Atom.ID}
	}
	req, err := provider.ProjectPushRequest(atoms)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, changesResponse{
		Changes:  req.Changes,
		Cursor:   cursor.UpdatedAt,
		CursorID: cursorID(cursor),
		HasMore:  len(rows) == int(limit),
	})
}

func cursorID(c store.ChangeCursor) string {
	if c.AfterID.IsZero() {
		return ""
	}
	return c.AfterID.String()
}
