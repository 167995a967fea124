package lazynote

import (
	"net/http"
	"strings"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

const (
	entryDefaultLimit = 10
	entryMaxLimit     = 10
)

// normalizeEntryLimit maps a missing or zero limit to the default and caps the rest.
func normalizeEntryLimit(limit int64) int {
	if limit <= 0 {
		return entryDefaultLimit
	}
	return int(min(limit, entryMaxLimit))
}

type entrySearchResponse struct {
	Items        []*models.Atom `json:"items"`
	AppliedLimit int            `json:"applied_limit"`
}

func (a *App) handleEntrySearch(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt64(r, "limit", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := store.SearchQuery{
		Text:  strings.TrimSpace(r.URL.Query().Get("q")),
		Limit: normalizeEntryLimit(limit),
	}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := models.ParseAtomKind(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		query.Kind = &kind
	}

	atoms, err := a.atoms.Search(r.Context(), query)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entrySearchResponse{Items: atoms, AppliedLimit: query.Limit})
}

type entryContentRequest struct {
	Content string `json:"content"`
}

func (a *App) handleEntryNote(w http.ResponseWriter, r *http.Request) {
	var req entryContentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.createAtom(w, r, models.NewAtom(models.AtomKindNote, req.Content))
}

func (a *App) handleEntryTask(w http.ResponseWriter, r *http.Request) {
	var req entryContentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	task := models.NewAtom(models.AtomKindTask, req.Content)
	task.TaskStatus = models.Ptr(models.TaskStatusTodo)
	a.createAtom(w, r, task)
}

type entryScheduleRequest struct {
	Title   string `json:"title"`
	StartMS int64  `json:"start_ms"`
	EndMS   *int64 `json:"end_ms"`
}

// handleEntrySchedule creates an event. Without end_ms the event is a point in time.
func (a *App) handleEntrySchedule(w http.ResponseWriter, r *http.Request) {
	var req entryScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	event := models.NewAtom(models.AtomKindEvent, req.Title)
	event.StartAt = models.Ptr(req.StartMS)
	event.EndAt = models.Ptr(req.StartMS)
	if req.EndMS != nil {
		event.EndAt = models.Ptr(*req.EndMS)
	}
	a.createAtom(w, r, event)
}
