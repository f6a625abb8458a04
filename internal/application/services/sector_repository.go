package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	apperrors "github.com/zatekoja/hospitalpowermonitor/pkg/errors"
)

// ErrOngoingOutageExists is returned when a second ongoing outage is added to a sector
var ErrOngoingOutageExists = apperrors.NewConflictError("sector already has an ongoing outage")

// SectorRepository implements the sector mutations. Every operation takes
// the caller's collection, persists the next one and returns it; the input
// is never modified. Mutations addressing an unknown sector or outage
// return the collection unchanged and write nothing.
type SectorRepository struct {
	store  *RecordStore
	now    func() time.Time
	newID  func() string
	logger zerolog.Logger
}

// RepositoryOption configures a SectorRepository
type RepositoryOption func(*SectorRepository)

// WithClock sets the time source used for LastUpdate
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *SectorRepository) { r.now = now }
}

// WithIDGenerator sets the generator of sector and outage ids
func WithIDGenerator(newID func() string) RepositoryOption {
	return func(r *SectorRepository) { r.newID = newID }
}

// WithRepositoryLogger sets the repository logger
func WithRepositoryLogger(logger zerolog.Logger) RepositoryOption {
	return func(r *SectorRepository) { r.logger = logger }
}

// NewSectorRepository creates a repository over store
func NewSectorRepository(store *RecordStore, opts ...RepositoryOption) *SectorRepository {
	r := &SectorRepository{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the repository clock's current time
func (r *SectorRepository) Now() time.Time {
	return r.now()
}

// Load returns the persisted collection
func (r *SectorRepository) Load(ctx context.Context) entities.SectorList {
	return r.store.Load(ctx)
}

// AddSector appends a new sector built from draft
func (r *SectorRepository) AddSector(ctx context.Context, sectors entities.SectorList, draft entities.SectorDraft) (entities.SectorList, error) {
	sector := entities.HospitalSector{
		ID:                r.newID(),
		Name:              draft.Name,
		Floor:             draft.Floor,
		Status:            draft.Status.Normalize(),
		PowerConsumption:  draft.PowerConsumption,
		CriticalEquipment: draft.CriticalEquipment,
		LastUpdate:        r.now(),
		Region:            draft.Region,
		PowerOutages:      make([]entities.PowerOutage, 0, len(draft.PowerOutages)),
	}
	sector.Region.AffectedPopulation = copyInt(draft.Region.AffectedPopulation)

	for _, d := range draft.PowerOutages {
		outage := d.ToOutage(r.newID())
		if outage.IsOngoing {
			if sector.CurrentOutage != nil {
				return nil, ErrOngoingOutageExists
			}
			current := outage.Clone()
			sector.CurrentOutage = &current
		}
		sector.PowerOutages = append(sector.PowerOutages, outage)
	}

	next := append(sectors.Clone(), sector)
	return r.commit(ctx, next)
}

// RemoveSector removes the sector with the given id
func (r *SectorRepository) RemoveSector(ctx context.Context, sectors entities.SectorList, sectorID string) (entities.SectorList, error) {
	if sectors.IndexOf(sectorID) < 0 {
		return sectors.Clone(), nil
	}

	next := make(entities.SectorList, 0, len(sectors))
	for _, s := range sectors {
		if s.ID != sectorID {
			next = append(next, s.Clone())
		}
	}
	return r.commit(ctx, next)
}

// UpdateSector merges patch into the sector with the given id
func (r *SectorRepository) UpdateSector(ctx context.Context, sectors entities.SectorList, sectorID string, patch entities.SectorPatch) (entities.SectorList, error) {
	idx := sectors.IndexOf(sectorID)
	if idx < 0 {
		return sectors.Clone(), nil
	}

	next := sectors.Clone()
	patch.Apply(&next[idx])
	next[idx].LastUpdate = r.now()
	return r.commit(ctx, next)
}

// AddPowerOutage appends an outage to the sector's history. An ongoing
// outage becomes the sector's current outage; a sector already tracking
// one rejects it with ErrOngoingOutageExists.
func (r *SectorRepository) AddPowerOutage(ctx context.Context, sectors entities.SectorList, sectorID string, draft entities.OutageDraft) (entities.SectorList, error) {
	idx := sectors.IndexOf(sectorID)
	if idx < 0 {
		return sectors.Clone(), nil
	}
	if draft.IsOngoing && sectors[idx].HasOngoingOutage() {
		return nil, ErrOngoingOutageExists
	}

	next := sectors.Clone()
	sector := &next[idx]
	outage := draft.ToOutage(r.newID())
	sector.PowerOutages = append(sector.PowerOutages, outage)
	if outage.IsOngoing {
		current := outage.Clone()
		sector.CurrentOutage = &current
	}
	sector.LastUpdate = r.now()
	return r.commit(ctx, next)
}

// EndPowerOutage closes the outage at end. Closed outages are left as they are.
func (r *SectorRepository) EndPowerOutage(ctx context.Context, sectors entities.SectorList, sectorID, outageID string, end time.Time) (entities.SectorList, error) {
	idx := sectors.IndexOf(sectorID)
	if idx < 0 {
		return sectors.Clone(), nil
	}
	oi := sectors[idx].OutageIndex(outageID)
	if oi < 0 || !sectors[idx].PowerOutages[oi].IsOngoing {
		return sectors.Clone(), nil
	}

	next := sectors.Clone()
	sector := &next[idx]
	sector.PowerOutages[oi].Close(end)
	if sector.CurrentOutage != nil && sector.CurrentOutage.ID == outageID {
		sector.CurrentOutage = nil
	}
	sector.LastUpdate = r.now()
	return r.commit(ctx, next)
}

// UpdateEstimatedOutages touches every sector whose ongoing outage passed
// its estimated end since the sector was last updated. The collection is
// saved only when something changed, so repeating the call with the same
// now is a no-op.
func (r *SectorRepository) UpdateEstimatedOutages(ctx context.Context, sectors entities.SectorList, now time.Time) (entities.SectorList, bool, error) {
	expired := ExpiredEstimates(sectors, now)
	if len(expired) == 0 {
		return sectors.Clone(), false, nil
	}

	next := sectors.Clone()
	for _, id := range expired {
		next[next.IndexOf(id)].LastUpdate = now
	}

	next, err := r.commit(ctx, next)
	if err != nil {
		return nil, false, err
	}
	r.logger.Debug().Strs("sector_ids", expired).Msg("Outage estimates expired")
	return next, true, nil
}

// ClearAllData removes the stored collection
func (r *SectorRepository) ClearAllData(ctx context.Context) error {
	return r.store.Clear(ctx)
}

func (r *SectorRepository) commit(ctx context.Context, next entities.SectorList) (entities.SectorList, error) {
	if err := r.store.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ExpiredEstimates returns the ids of sectors whose ongoing outage reached
// its estimated end at or before now and that were not updated since
func ExpiredEstimates(sectors entities.SectorList, now time.Time) []string {
	var ids []string
	for _, s := range sectors {
		if !s.HasOngoingOutage() || s.CurrentOutage.EstimatedEndTime == nil {
			continue
		}
		estimate := *s.CurrentOutage.EstimatedEndTime
		if estimate.After(now) || !s.LastUpdate.Before(estimate) {
			continue
		}
		ids = append(ids, s.ID)
	}
	return ids
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
