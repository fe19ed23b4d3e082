// Package handlers provides REST API handlers for the local agent.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fieldtime/fieldtime/internal/db"
	apperrors "github.com/fieldtime/fieldtime/internal/errors"
	"github.com/fieldtime/fieldtime/internal/models"
)

// EntriesHandler handles time entry operations.
type EntriesHandler struct {
	store *db.Store
}

// NewEntriesHandler creates a new EntriesHandler.
func NewEntriesHandler(store *db.Store) *EntriesHandler {
	return &EntriesHandler{store: store}
}

// currentUser extracts the caller identity. Authentication is handled
// outside the agent; requests carry the user email.
func currentUser(r *http.Request) string {
	if u := r.Header.Get("X-User"); u != "" {
		return u
	}
	return r.URL.Query().Get("user")
}

// writeError maps application errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrValidation), apperrors.Is(err, apperrors.ErrInvalid):
		status = http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrSyncBusy):
		status = http.StatusConflict
	case apperrors.Is(err, apperrors.ErrSyncOffline):
		status = http.StatusConflict
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// CreateEntry handles POST /entries
func (h *EntriesHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	if user == "" {
		http.Error(w, "X-User header is required", http.StatusBadRequest)
		return
	}

	var request struct {
		Date         string   `json:"date"`
		TimeStarted  int64    `json:"time_started"`
		TimeEnded    int64    `json:"time_ended"`
		Studies      []string `json:"studies"`
		Participated bool     `json:"participated"`
		Comments     string   `json:"comments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry := &models.TimeEntry{
		UserID:       user,
		Date:         request.Date,
		TimeStarted:  request.TimeStarted,
		TimeEnded:    request.TimeEnded,
		Studies:      request.Studies,
		Participated: request.Participated,
		Comments:     request.Comments,
	}

	if _, err := h.store.AddTimeEntry(entry); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// UpdateEntry handles PUT /entries/{id}
func (h *EntriesHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid entry id", http.StatusBadRequest)
		return
	}

	var changes models.UpdateEntryPayload
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateTimeEntry(id, &changes); err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.store.GetTimeEntry(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /entries/{id}
func (h *EntriesHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid entry id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteTimeEntry(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// yearMonthParams parses the year and month query parameters.
func yearMonthParams(r *http.Request) (int, time.Month, bool) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// MonthlyEntries handles GET /entries/monthly
func (h *EntriesHandler) MonthlyEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	if user == "" {
		http.Error(w, "X-User header is required", http.StatusBadRequest)
		return
	}
	year, month, ok := yearMonthParams(r)
	if !ok {
		http.Error(w, "year and month query parameters are required", http.StatusBadRequest)
		return
	}

	entries, err := h.store.EntriesForMonth(user, year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.TimeEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// SearchEntries handles GET /entries/search
func (h *EntriesHandler) SearchEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	if user == "" {
		http.Error(w, "X-User header is required", http.StatusBadRequest)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 {
		http.Error(w, "year query parameter is required", http.StatusBadRequest)
		return
	}

	entries, err := h.store.SearchByParticipant(user, year, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.TimeEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
