package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	apperrors "github.com/zatekoja/hospitalpowermonitor/pkg/errors"
)

// SectorManager is the serialized sector service used by the handlers
type SectorManager interface {
	Snapshot(ctx context.Context) (entities.SectorList, error)
	Sector(ctx context.Context, sectorID string) (entities.HospitalSector, error)
	AddSector(ctx context.Context, draft entities.SectorDraft) (entities.HospitalSector, error)
	RemoveSector(ctx context.Context, sectorID string) error
	UpdateSector(ctx context.Context, sectorID string, patch entities.SectorPatch) (entities.HospitalSector, error)
	AddPowerOutage(ctx context.Context, sectorID string, draft entities.OutageDraft) (entities.PowerOutage, error)
	EndPowerOutage(ctx context.Context, sectorID, outageID string, end time.Time) (entities.PowerOutage, error)
	ClearAllData(ctx context.Context) error
}

// SectorHandler handles sector and outage HTTP requests
type SectorHandler struct {
	service SectorManager
	now     func() time.Time
}

// NewSectorHandler creates a new sector handler
func NewSectorHandler(service SectorManager, now func() time.Time) *SectorHandler {
	if now == nil {
		now = time.Now
	}
	return &SectorHandler{
		service: service,
		now:     now,
	}
}

// ListSectors handles GET /api/sectors
func (h *SectorHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sectors": sectors,
		"count":   len(sectors),
	})
}

// GetSector handles GET /api/sectors/{id}
func (h *SectorHandler) GetSector(w http.ResponseWriter, r *http.Request) {
	sector, err := h.service.Sector(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sector)
}

// CreateSector handles POST /api/sectors
func (h *SectorHandler) CreateSector(w http.ResponseWriter, r *http.Request) {
	var form entities.SectorForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	draft, err := form.ToDraft(h.now())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	sector, err := h.service.AddSector(r.Context(), draft)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sector)
}

// UpdateSector handles PATCH /api/sectors/{id}
func (h *SectorHandler) UpdateSector(w http.ResponseWriter, r *http.Request) {
	var patch entities.SectorPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := patch.Validate(); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}

	sector, err := h.service.UpdateSector(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sector)
}

// DeleteSector handles DELETE /api/sectors/{id}
func (h *SectorHandler) DeleteSector(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveSector(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddOutage handles POST /api/sectors/{id}/outages
func (h *SectorHandler) AddOutage(w http.ResponseWriter, r *http.Request) {
	var form entities.OutageForm
	if err := decodeJSON(r, &form); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	draft, err := form.ToDraft(h.now())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	outage, err := h.service.AddPowerOutage(r.Context(), r.PathValue("id"), draft)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, outage)
}

type endOutageRequest struct {
	EndTime string `json:"endTime"`
}

// EndOutage handles POST /api/sectors/{id}/outages/{outageId}/end. The
// body is optional; without an endTime the outage ends now.
func (h *SectorHandler) EndOutage(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	end := now

	var req endOutageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.EndTime) != "" {
		t, err := entities.ParseOutageTime(req.EndTime, now)
		if err != nil {
			respondWithAppError(w, r, apperrors.NewValidationError(err.Error()))
			return
		}
		end = t
	}

	outage, err := h.service.EndPowerOutage(r.Context(), r.PathValue("id"), r.PathValue("outageId"), end)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, outage)
}

// ClearData handles DELETE /api/data
func (h *SectorHandler) ClearData(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAllData(r.Context()); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
