package lazynote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// Router builds the HTTP API. Open must have succeeded before it is called.
//
// # API Endpoints
//
//	GET    /api/health
//
//	POST   /api/atoms                     - create an atom
//	GET    /api/atoms                     - list atoms (kind, include_deleted, limit, offset)
//	GET    /api/atoms/{id}                - atom with its tags
//	PUT    /api/atoms/{id}                - replace a live atom
//	DELETE /api/atoms/{id}                - soft delete
//	PUT    /api/atoms/{id}/status         - {"status": "done"} or {"status": null}
//	PUT    /api/atoms/{id}/event-times    - {"start_at": ms, "end_at": ms}
//	PUT    /api/atoms/{id}/tags           - {"tags": [...]}
//
//	GET    /api/sections/inbox
//	GET    /api/sections/today            - bod, eod default to the local day
//	GET    /api/sections/upcoming         - eod
//	GET    /api/sections/calendar         - start, end (required)
//
//	GET    /api/entry/search              - q, kind, limit (at most 10)
//	POST   /api/entry/note                - {"content": ...}
//	POST   /api/entry/task                - {"content": ...}
//	POST   /api/entry/schedule            - {"title": ..., "start_ms": ..., "end_ms": ...}
//
//	POST   /api/tree/folders
//	POST   /api/tree/note-refs
//	GET    /api/tree/children             - parent_id, absent for the roots
//	GET    /api/tree/nodes/{id}
//	POST   /api/tree/nodes/{id}/move
//	PUT    /api/tree/nodes/{id}/name
//	DELETE /api/tree/nodes/{id}           - removes the whole subtree
//	POST   /api/tree/prune                - drop references to gone notes
//
//	GET    /api/sync/providers
//	GET    /api/sync/changes              - since, limit
//
//	GET    /api/admin/read-only
//	POST   /api/admin/read-only
//
//	GET    /ws                            - change feed
func (a *App) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(a.logRequests)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	api.HandleFunc("/atoms", a.handleCreateAtom).Methods("POST")
	api.HandleFunc("/atoms", a.handleListAtoms).Methods("GET")
	api.HandleFunc("/atoms/{id}", a.handleGetAtom).Methods("GET")
	api.HandleFunc("/atoms/{id}", a.handleUpdateAtom).Methods("PUT")
	api.HandleFunc("/atoms/{id}", a.handleDeleteAtom).Methods("DELETE")
	api.HandleFunc("/atoms/{id}/status", a.handleUpdateStatus).Methods("PUT")
	api.HandleFunc("/atoms/{id}/event-times", a.handleUpdateEventTimes).Methods("PUT")
	api.HandleFunc("/atoms/{id}/tags", a.handleSetTags).Methods("PUT")

	api.HandleFunc("/sections/inbox", a.handleInbox).Methods("GET")
	api.HandleFunc("/sections/today", a.handleToday).Methods("GET")
	api.HandleFunc("/sections/upcoming", a.handleUpcoming).Methods("GET")
	api.HandleFunc("/sections/calendar", a.handleCalendar).Methods("GET")

	api.HandleFunc("/entry/search", a.handleEntrySearch).Methods("GET")
	api.HandleFunc("/entry/note", a.handleEntryNote).Methods("POST")
	api.HandleFunc("/entry/task", a.handleEntryTask).Methods("POST")
	api.HandleFunc("/entry/schedule", a.handleEntrySchedule).Methods("POST")

	api.HandleFunc("/tree/folders", a.handleCreateFolder).Methods("POST")
	api.HandleFunc("/tree/note-refs", a.handleCreateNoteRef).Methods("POST")
	api.HandleFunc("/tree/children", a.handleListChildren).Methods("GET")
	api.HandleFunc("/tree/nodes/{id}", a.handleGetNode).Methods("GET")
	api.HandleFunc("/tree/nodes/{id}/move", a.handleMoveNode).Methods("POST")
	api.HandleFunc("/tree/nodes/{id}/name", a.handleRenameNode).Methods("PUT")
	api.HandleFunc("/tree/nodes/{id}", a.handleDeleteNode).Methods("DELETE")
	api.HandleFunc("/tree/prune", a.handlePruneStaleRefs).Methods("POST")

	api.HandleFunc("/sync/providers", a.handleListProviders).Methods("GET")
	api.HandleFunc("/sync/changes", a.handleListChanges).Methods("GET")

	api.HandleFunc("/admin/read-only", a.handleGetReadOnly).Methods("GET")
	api.HandleFunc("/admin/read-only", a.handleSetReadOnly).Methods("POST")

	router.Handle("/ws", a.hub).Methods("GET")
	return router
}

// Run serves the API on addr until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.log.Info().Str("event", "server_start").Str("addr", addr).Bool("read_only", a.IsReadOnly()).Send()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Str("event", "server_stop").Send()
		a.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrade take over the connection.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.Debug().
			Str("event", "http_request").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Send()
	})
}
