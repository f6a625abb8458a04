package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospitalpowermonitor/internal/adapters/events"
	"github.com/zatekoja/hospitalpowermonitor/internal/adapters/kvstore"
	"github.com/zatekoja/hospitalpowermonitor/internal/application/services"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
	apperrors "github.com/zatekoja/hospitalpowermonitor/pkg/errors"
)

type serviceFixture struct {
	service *services.SectorService
	repo    *services.SectorRepository
	clock   *testClock
	events  <-chan *entities.SectorEvent
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	repo, _, clock := newTestRepository()
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch, err := bus.Subscribe(ctx, providers.EventChannelSectorUpdates)
	require.NoError(t, err)

	return serviceFixture{
		service: services.NewSectorService(repo, bus),
		repo:    repo,
		clock:   clock,
		events:  ch,
	}
}

func (f serviceFixture) nextEvent(t *testing.T) *entities.SectorEvent {
	t.Helper()
	select {
	case event := <-f.events:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sector event")
		return nil
	}
}

func TestSectorService_OutageLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	sector, err := f.service.AddSector(ctx, sectorDraft("UTI"))
	require.NoError(t, err)
	event := f.nextEvent(t)
	assert.Equal(t, entities.SectorEventTypeSectorAdded, event.EventType)
	assert.Equal(t, sector.ID, event.SectorID)

	start := f.clock.Now()
	outage, err := f.service.AddPowerOutage(ctx, sector.ID, ongoingDraft(start, 60))
	require.NoError(t, err)
	assert.True(t, outage.IsOngoing)
	event = f.nextEvent(t)
	assert.Equal(t, entities.SectorEventTypeOutageStarted, event.EventType)
	assert.Equal(t, outage.ID, event.OutageID)

	_, err = f.service.AddPowerOutage(ctx, sector.ID, ongoingDraft(start, 0))
	assert.ErrorIs(t, err, services.ErrOngoingOutageExists)

	closed, err := f.service.EndPowerOutage(ctx, sector.ID, outage.ID, start.Add(95*time.Minute))
	require.NoError(t, err)
	assert.False(t, closed.IsOngoing)
	assert.Equal(t, 95, *closed.Duration)
	event = f.nextEvent(t)
	assert.Equal(t, entities.SectorEventTypeOutageEnded, event.EventType)

	again, err := f.service.EndPowerOutage(ctx, sector.ID, outage.ID, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, closed, again)

	got, err := f.service.Sector(ctx, sector.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CurrentOutage)
	assert.Len(t, got.PowerOutages, 1)
}

func TestSectorService_UnknownIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	sector, err := f.service.AddSector(ctx, sectorDraft("UTI"))
	require.NoError(t, err)
	status := entities.SectorStatusWarning

	_, err = f.service.Sector(ctx, "missing")
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))

	err = f.service.RemoveSector(ctx, "missing")
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))

	_, err = f.service.UpdateSector(ctx, "missing", entities.SectorPatch{Status: &status})
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))

	_, err = f.service.AddPowerOutage(ctx, "missing", ongoingDraft(f.clock.Now(), 0))
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))

	_, err = f.service.EndPowerOutage(ctx, sector.ID, "missing", f.clock.Now())
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestSectorService_EndBeforeStartRejected(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	sector, err := f.service.AddSector(ctx, sectorDraft("UTI"))
	require.NoError(t, err)
	outage, err := f.service.AddPowerOutage(ctx, sector.ID, ongoingDraft(f.clock.Now(), 0))
	require.NoError(t, err)

	_, err = f.service.EndPowerOutage(ctx, sector.ID, outage.ID, f.clock.Now().Add(-time.Minute))
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestSectorService_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	sector, err := f.service.AddSector(ctx, sectorDraft("UTI"))
	require.NoError(t, err)
	f.nextEvent(t)

	equipment := 3
	updated, err := f.service.UpdateSector(ctx, sector.ID, entities.SectorPatch{CriticalEquipment: &equipment})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.CriticalEquipment)
	assert.Equal(t, entities.SectorEventTypeSectorUpdated, f.nextEvent(t).EventType)

	require.NoError(t, f.service.RemoveSector(ctx, sector.ID))
	assert.Equal(t, entities.SectorEventTypeSectorRemoved, f.nextEvent(t).EventType)

	snapshot, err := f.service.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestSectorService_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.service.AddSector(ctx, sectorDraft("UTI"))
	require.NoError(t, err)

	snapshot, err := f.service.Snapshot(ctx)
	require.NoError(t, err)
	snapshot[0].Name = "changed"

	again, err := f.service.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "UTI", again[0].Name)
}

func TestSectorService_ConcurrentMutationsAreSerialized(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := services.NewSectorRepository(services.NewRecordStore(store, testKey))
	service := services.NewSectorService(repo, nil)

	const callers = 25
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.AddSector(ctx, sectorDraft("Setor"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snapshot, err := service.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot, callers)
	assert.Len(t, repo.Load(ctx), callers)
}

func TestSectorService_UpdateEstimatedOutages(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	sector, err := f.service.AddSector(ctx, sectorDraft("UTI"))
	require.NoError(t, err)
	outage, err := f.service.AddPowerOutage(ctx, sector.ID, ongoingDraft(f.clock.Now(), 30))
	require.NoError(t, err)
	f.nextEvent(t)
	f.nextEvent(t)

	updated, err := f.service.UpdateEstimatedOutages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	f.clock.Advance(31 * time.Minute)
	updated, err = f.service.UpdateEstimatedOutages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	event := f.nextEvent(t)
	assert.Equal(t, entities.SectorEventTypeEstimateExpired, event.EventType)
	assert.Equal(t, outage.ID, event.OutageID)

	updated, err = f.service.UpdateEstimatedOutages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	got, err := f.service.Sector(ctx, sector.ID)
	require.NoError(t, err)
	assert.True(t, got.LastUpdate.Equal(f.clock.Now()))
}

func TestSectorService_ClearAllData(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.service.AddSector(ctx, sectorDraft("UTI"))
	require.NoError(t, err)
	f.nextEvent(t)

	require.NoError(t, f.service.ClearAllData(ctx))
	assert.Equal(t, entities.SectorEventTypeDataCleared, f.nextEvent(t).EventType)

	snapshot, err := f.service.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot)
	assert.Empty(t, f.repo.Load(ctx))
}

func TestSectorService_RefreshReadsStore(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.service.Snapshot(ctx)
	require.NoError(t, err)

	_, err = f.repo.AddSector(ctx, nil, sectorDraft("Externo"))
	require.NoError(t, err)

	stale, err := f.service.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, stale)

	fresh, err := f.service.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Externo", fresh[0].Name)
}
