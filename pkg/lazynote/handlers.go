package lazynote

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/service"
	"github.com/WYI1223/LazyLife/pkg/store"
)

// respondJSON writes payload as JSON with the given status. A nil payload writes no body.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError writes {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps err to a status code. Unexpected errors are logged.
func (a *App) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.log.Error().Err(err).
			Str("event", "http_error").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Send()
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, service.ErrInvalidDisplayName):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrAtomNotFound),
		errors.Is(err, service.ErrNodeNotFound),
		errors.Is(err, service.ErrParentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrParentMustBeFolder),
		errors.Is(err, service.ErrAtomNotNote),
		errors.Is(err, service.ErrCycleDetected),
		errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request payload: %w", err)
	}
	return nil
}

func atomIDVar(r *http.Request) (models.AtomID, error) {
	return models.ParseAtomID(mux.Vars(r)["id"])
}

func nodeIDVar(r *http.Request) (models.NodeID, error) {
	return models.ParseNodeID(mux.Vars(r)["id"])
}

// queryInt64 returns def when the parameter is absent.
func queryInt64(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func queryPage(r *http.Request) (store.Page, error) {
	limit, err := queryInt64(r, "limit", 0)
	if err != nil {
		return store.Page{}, err
	}
	offset, err := queryInt64(r, "offset", 0)
	if err != nil {
		return store.Page{}, err
	}
	if limit < 0 || offset < 0 {
		return store.Page{}, errors.New("limit and offset must not be negative")
	}
	return store.Page{Limit: int(limit), Offset: int(offset)}, nil
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	version, err := a.db.SchemaVersion(r.Context())
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"read_only":      a.IsReadOnly(),
		"schema_version": version,
		"time":           a.now().Unix(),
	})
}

type readOnlyRequest struct {
	ReadOnly bool `json:"read_only"`
}

func (a *App) handleGetReadOnly(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, readOnlyRequest{ReadOnly: a.IsReadOnly()})
}

func (a *App) handleSetReadOnly(w http.ResponseWriter, r *http.Request) {
	var req readOnlyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.SetReadOnly(req.ReadOnly)
	a.hub.Publish(Change{Type: "read_only_changed"})
	respondJSON(w, http.StatusOK, req)
}

// localDay returns the [begin, end] window of the local calendar day containing now.
func localDay(now time.Time) store.DayWindow {
	y, m, d := now.Date()
	begin := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := begin.AddDate(0, 0, 1)
	return store.DayWindow{BeginOfDay: begin.UnixMilli(), EndOfDay: end.UnixMilli() - 1}
}
