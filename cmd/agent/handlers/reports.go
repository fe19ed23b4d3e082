package handlers

import (
	"net/http"
	"strconv"

	"github.com/fieldtime/fieldtime/internal/db"
)

// ReportsHandler serves aggregate summaries from the local store.
type ReportsHandler struct {
	store *db.Store
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store *db.Store) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// Monthly handles GET /reports/monthly
func (h *ReportsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
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

	agg, err := h.store.MonthlyAggregate(user, year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// Yearly handles GET /reports/yearly
func (h *ReportsHandler) Yearly(w http.ResponseWriter, r *http.Request) {
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

	agg, err := h.store.YearlyAggregate(user, year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}
