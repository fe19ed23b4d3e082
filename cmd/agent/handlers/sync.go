package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "github.com/fieldtime/fieldtime/internal/errors"
	"github.com/fieldtime/fieldtime/internal/models"
	syncpkg "github.com/fieldtime/fieldtime/internal/sync"
	"github.com/fieldtime/fieldtime/internal/sync/scheduler"
)

// SyncHandler exposes the sync control surface.
type SyncHandler struct {
	engine *syncpkg.Engine
	sched  *scheduler.Scheduler
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(engine *syncpkg.Engine, sched *scheduler.Scheduler) *SyncHandler {
	return &SyncHandler{engine: engine, sched: sched}
}

// Status handles GET /sync/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.sched.GetStatus())
}

// Trigger handles POST /sync/trigger
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.sched.TriggerSync() {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "sync already in progress"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// Clear handles POST /sync/clear
func (h *SyncHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.sched.ClearPending(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Download handles POST /sync/download
func (h *SyncHandler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	if user == "" {
		http.Error(w, "X-User header is required", http.StatusBadRequest)
		return
	}

	inserted, err := h.engine.DownloadServerData(r.Context(), user)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSyncOffline) {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "agent is offline"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"inserted": inserted})
}

// Online handles POST /sync/online
func (h *SyncHandler) Online(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Online *bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Online == nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.sched.SetOnlineStatus(*request.Online)
	writeJSON(w, http.StatusOK, map[string]bool{"online": *request.Online})
}

// Conflicts handles GET /sync/conflicts
func (h *SyncHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	if user == "" {
		http.Error(w, "X-User header is required", http.StatusBadRequest)
		return
	}

	conflicts, err := h.engine.Conflicts(user)
	if err != nil {
		writeError(w, err)
		return
	}
	if conflicts == nil {
		conflicts = []*models.TimeEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conflicts": conflicts})
}

// Resolve handles POST /sync/conflicts/{id}/resolve
func (h *SyncHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid entry id", http.StatusBadRequest)
		return
	}

	var request struct {
		Policy string `json:"policy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	policy := syncpkg.ResolutionPolicy(request.Policy)
	if err := h.engine.Resolve(r.Context(), id, policy); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved", "policy": request.Policy})
}
