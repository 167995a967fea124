package lazynote

import (
	"net/http"

	"github.com/WYI1223/LazyLife/pkg/service"
)

// Section queries default to the local day of the server clock when no window is given.

func (a *App) handleInbox(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := a.tasks.FetchInbox(r.Context(), page)
	a.respondSection(w, r, items, err)
}

func (a *App) handleToday(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	window := localDay(a.now())
	if window.BeginOfDay, err = queryInt64(r, "bod", window.BeginOfDay); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if window.EndOfDay, err = queryInt64(r, "eod", window.EndOfDay); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := a.tasks.FetchToday(r.Context(), window, page)
	a.respondSection(w, r, items, err)
}

func (a *App) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	eod, err := queryInt64(r, "eod", localDay(a.now()).EndOfDay)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := a.tasks.FetchUpcoming(r.Context(), eod, page)
	a.respondSection(w, r, items, err)
}

func (a *App) handleCalendar(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		respondError(w, http.StatusBadRequest, "start and end are required")
		return
	}
	start, err := queryInt64(r, "start", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := queryInt64(r, "end", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if end < start {
		respondError(w, http.StatusBadRequest, "end must not precede start")
		return
	}
	items, err := a.tasks.FetchByTimeRange(r.Context(), start, end, page)
	a.respondSection(w, r, items, err)
}

func (a *App) respondSection(w http.ResponseWriter, r *http.Request, items []service.SectionAtom, err error) {
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}
