package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
	"github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/hospitalpowermonitor/pkg/errors"
)

// SectorService serializes every mutation of the sector collection. It
// keeps the current collection in memory, runs repository operations
// against it under one lock and publishes a SectorEvent for each applied
// change.
type SectorService struct {
	mu      sync.Mutex
	repo    *SectorRepository
	bus     providers.EventBus
	logger  zerolog.Logger
	metrics *observability.Metrics

	sectors entities.SectorList
	loaded  bool
}

// ServiceOption configures a SectorService
type ServiceOption func(*SectorService)

// WithServiceLogger sets the service logger
func WithServiceLogger(logger zerolog.Logger) ServiceOption {
	return func(s *SectorService) { s.logger = logger }
}

// WithServiceMetrics counts applied mutations
func WithServiceMetrics(metrics *observability.Metrics) ServiceOption {
	return func(s *SectorService) { s.metrics = metrics }
}

// NewSectorService creates a service over repo. bus may be nil.
func NewSectorService(repo *SectorRepository, bus providers.EventBus, opts ...ServiceOption) *SectorService {
	s := &SectorService{
		repo:   repo,
		bus:    bus,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SectorService) ensureLoaded(ctx context.Context) {
	if !s.loaded {
		s.sectors = s.repo.Load(ctx)
		s.loaded = true
	}
}

// Snapshot returns a copy of the current collection
func (s *SectorService) Snapshot(ctx context.Context) (entities.SectorList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)
	return s.sectors.Clone(), nil
}

// Refresh reloads the collection from the store
func (s *SectorService) Refresh(ctx context.Context) (entities.SectorList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sectors = s.repo.Load(ctx)
	s.loaded = true
	return s.sectors.Clone(), nil
}

// Sector returns the sector with the given id
func (s *SectorService) Sector(ctx context.Context, sectorID string) (entities.HospitalSector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)
	sector, ok := s.sectors.Find(sectorID)
	if !ok {
		return entities.HospitalSector{}, sectorNotFound(sectorID)
	}
	return sector, nil
}

// AddSector creates a sector from draft
func (s *SectorService) AddSector(ctx context.Context, draft entities.SectorDraft) (entities.HospitalSector, error) {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	next, err := s.repo.AddSector(ctx, s.sectors, draft)
	if err != nil {
		s.mu.Unlock()
		return entities.HospitalSector{}, err
	}
	s.sectors = next
	sector := next[len(next)-1].Clone()
	s.mu.Unlock()

	s.applied(ctx, "add_sector", entities.SectorEventTypeSectorAdded, sector.ID, "")
	if sector.CurrentOutage != nil {
		s.publish(ctx, entities.SectorEventTypeOutageStarted, sector.ID, sector.CurrentOutage.ID)
	}
	return sector, nil
}

// RemoveSector deletes the sector with the given id
func (s *SectorService) RemoveSector(ctx context.Context, sectorID string) error {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	if s.sectors.IndexOf(sectorID) < 0 {
		s.mu.Unlock()
		return sectorNotFound(sectorID)
	}
	next, err := s.repo.RemoveSector(ctx, s.sectors, sectorID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.sectors = next
	s.mu.Unlock()

	s.applied(ctx, "remove_sector", entities.SectorEventTypeSectorRemoved, sectorID, "")
	return nil
}

// UpdateSector applies patch to the sector with the given id
func (s *SectorService) UpdateSector(ctx context.Context, sectorID string, patch entities.SectorPatch) (entities.HospitalSector, error) {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	if s.sectors.IndexOf(sectorID) < 0 {
		s.mu.Unlock()
		return entities.HospitalSector{}, sectorNotFound(sectorID)
	}
	next, err := s.repo.UpdateSector(ctx, s.sectors, sectorID, patch)
	if err != nil {
		s.mu.Unlock()
		return entities.HospitalSector{}, err
	}
	s.sectors = next
	sector, _ := next.Find(sectorID)
	s.mu.Unlock()

	s.applied(ctx, "update_sector", entities.SectorEventTypeSectorUpdated, sectorID, "")
	return sector, nil
}

// AddPowerOutage records an outage for the sector and returns it
func (s *SectorService) AddPowerOutage(ctx context.Context, sectorID string, draft entities.OutageDraft) (entities.PowerOutage, error) {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	if s.sectors.IndexOf(sectorID) < 0 {
		s.mu.Unlock()
		return entities.PowerOutage{}, sectorNotFound(sectorID)
	}
	next, err := s.repo.AddPowerOutage(ctx, s.sectors, sectorID, draft)
	if err != nil {
		s.mu.Unlock()
		return entities.PowerOutage{}, err
	}
	s.sectors = next
	sector, _ := next.Find(sectorID)
	outage := sector.PowerOutages[len(sector.PowerOutages)-1]
	s.mu.Unlock()

	eventType := entities.SectorEventTypeSectorUpdated
	if outage.IsOngoing {
		eventType = entities.SectorEventTypeOutageStarted
	}
	s.applied(ctx, "add_outage", eventType, sectorID, outage.ID)
	return outage, nil
}

// EndPowerOutage closes the outage at end. Ending an outage that is
// already closed returns it unchanged.
func (s *SectorService) EndPowerOutage(ctx context.Context, sectorID, outageID string, end time.Time) (entities.PowerOutage, error) {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	sector, ok := s.sectors.Find(sectorID)
	if !ok {
		s.mu.Unlock()
		return entities.PowerOutage{}, sectorNotFound(sectorID)
	}
	oi := sector.OutageIndex(outageID)
	if oi < 0 {
		s.mu.Unlock()
		return entities.PowerOutage{}, apperrors.NewNotFoundError("outage " + outageID + " not found in sector " + sectorID)
	}
	outage := sector.PowerOutages[oi]
	if !outage.IsOngoing {
		s.mu.Unlock()
		return outage, nil
	}
	if end.Before(outage.StartTime) {
		s.mu.Unlock()
		return entities.PowerOutage{}, apperrors.NewValidationError("endTime must not precede the outage start")
	}

	next, err := s.repo.EndPowerOutage(ctx, s.sectors, sectorID, outageID, end)
	if err != nil {
		s.mu.Unlock()
		return entities.PowerOutage{}, err
	}
	s.sectors = next
	sector, _ = next.Find(sectorID)
	outage = sector.PowerOutages[oi]
	s.mu.Unlock()

	s.applied(ctx, "end_outage", entities.SectorEventTypeOutageEnded, sectorID, outageID)
	return outage, nil
}

// UpdateEstimatedOutages reconciles ongoing outages whose estimated end has
// passed and returns how many sectors were touched
func (s *SectorService) UpdateEstimatedOutages(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	now := s.repo.Now()
	expired := ExpiredEstimates(s.sectors, now)
	if len(expired) == 0 {
		s.mu.Unlock()
		return 0, nil
	}

	currents := make(map[string]string, len(expired))
	for _, id := range expired {
		sector, _ := s.sectors.Find(id)
		currents[id] = sector.CurrentOutage.ID
	}

	next, changed, err := s.repo.UpdateEstimatedOutages(ctx, s.sectors, now)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.sectors = next
	s.mu.Unlock()

	if !changed {
		return 0, nil
	}
	observability.RecordExpiredEstimates(ctx, s.metrics, len(expired))
	for _, id := range expired {
		s.applied(ctx, "estimate_expired", entities.SectorEventTypeEstimateExpired, id, currents[id])
	}
	return len(expired), nil
}

// ClearAllData removes every sector from the store
func (s *SectorService) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	if err := s.repo.ClearAllData(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.sectors = entities.SectorList{}
	s.loaded = true
	s.mu.Unlock()

	s.applied(ctx, "clear", entities.SectorEventTypeDataCleared, "", "")
	return nil
}

func (s *SectorService) applied(ctx context.Context, kind string, eventType entities.SectorEventType, sectorID, outageID string) {
	observability.RecordMutation(ctx, s.metrics, kind)
	s.publish(ctx, eventType, sectorID, outageID)
}

func (s *SectorService) publish(ctx context.Context, eventType entities.SectorEventType, sectorID, outageID string) {
	if s.bus == nil {
		return
	}
	event := entities.NewSectorEvent(eventType, sectorID, outageID, s.repo.Now())
	if err := s.bus.Publish(ctx, providers.EventChannelSectorUpdates, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Str("sector_id", sectorID).Msg("Failed to publish sector event")
	}
}

func sectorNotFound(sectorID string) error {
	return apperrors.NewNotFoundError("sector " + sectorID + " not found")
}
