package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/query/derivation"
)

// SnapshotSource returns the current sector collection
type SnapshotSource interface {
	Snapshot(ctx context.Context) (entities.SectorList, error)
}

// DashboardHandler serves the derived views of the sector collection
type DashboardHandler struct {
	source SnapshotSource
	now    func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(source SnapshotSource, now func() time.Time) *DashboardHandler {
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{
		source: source,
		now:    now,
	}
}

func (h *DashboardHandler) snapshot(w http.ResponseWriter, r *http.Request) (entities.SectorList, bool) {
	sectors, err := h.source.Snapshot(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return nil, false
	}
	return sectors, true
}

// GetStatus handles GET /api/dashboard/status
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	sectors, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, derivation.ComputeHospitalStatus(sectors))
}

// GetEvents handles GET /api/dashboard/events
func (h *DashboardHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	sectors, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	events := derivation.ComputeRecentEvents(sectors, h.now())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// GetImpact handles GET /api/impact
func (h *DashboardHandler) GetImpact(w http.ResponseWriter, r *http.Request) {
	sectors, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, derivation.ComputeImpactAnalysis(sectors))
}

// GetOutageBoard handles GET /api/outages/board
func (h *DashboardHandler) GetOutageBoard(w http.ResponseWriter, r *http.Request) {
	sectors, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	board := derivation.BuildOutageBoard(sectors, h.now())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"outages": board,
		"count":   len(board),
	})
}

// GetOutageStats handles GET /api/outages/stats
func (h *DashboardHandler) GetOutageStats(w http.ResponseWriter, r *http.Request) {
	sectors, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, derivation.ComputeOutageStats(sectors))
}
