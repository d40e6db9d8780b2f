package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/store"
)

type JobsHandler struct {
	DB  *sql.DB
	Hub *events.Hub
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := store.ListAll(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, jobs)
}

// ListByPlatform serves /jobs/platform/{tag}. Worker jobs pull their slice of
// the table by source tag, e.g. "ashby" or "gem".
func (h JobsHandler) ListByPlatform(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimPrefix(r.URL.Path, "/jobs/platform/")
	tag = strings.Trim(tag, "/")
	if tag == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "missing platform tag")
		return
	}

	jobs, err := store.ListBySource(r.Context(), h.DB, tag)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, jobs)
}

func (h JobsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromPath(r.URL.Path)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return
	}

	if err := store.DeleteJob(r.Context(), h.DB, id); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeJobDeleted, 1, map[string]any{"id": id}))
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

type setAppliedReq struct {
	Applied bool `json:"applied"`
}

// SetApplied serves POST /jobs/{id}/applied.
func (h JobsHandler) SetApplied(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromPath(r.URL.Path)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return
	}

	var req setAppliedReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}

	if err := store.SetApplied(r.Context(), h.DB, id, req.Applied); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeJobApplied, 1, map[string]any{"id": id, "applied": req.Applied}))
	writeJSON(w, map[string]any{"ok": true, "id": id, "applied": req.Applied})
}

type deleteInvalidReq struct {
	IDs []int64 `json:"ids"`
}

// DeleteInvalid serves POST /jobs/invalid. Browser validation workers report
// the listings they found dead and the engine removes them in one statement.
func (h JobsHandler) DeleteInvalid(w http.ResponseWriter, r *http.Request) {
	var req deleteInvalidReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	if len(req.IDs) == 0 {
		writeJSON(w, map[string]any{"ok": true, "deleted": 0})
		return
	}

	n, err := store.DeleteByIDs(r.Context(), h.DB, req.IDs)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	for _, id := range req.IDs {
		h.Hub.Publish(events.MakeEvent(reqID, events.TypeJobDeleted, 1, map[string]any{"id": id}))
	}
	writeJSON(w, map[string]any{"ok": true, "deleted": n})
}

// jobIDFromPath parses the numeric id out of /jobs/{id} or /jobs/{id}/applied.
func jobIDFromPath(path string) (int64, bool) {
	rest := strings.TrimPrefix(path, "/jobs/")
	rest = strings.TrimSuffix(rest, "/applied")
	rest = strings.Trim(rest, "/")
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
