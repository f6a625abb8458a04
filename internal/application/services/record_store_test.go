package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospitalpowermonitor/internal/adapters/kvstore"
	"github.com/zatekoja/hospitalpowermonitor/internal/application/services"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
	apperrors "github.com/zatekoja/hospitalpowermonitor/pkg/errors"
)

func TestRecordStore_LoadMissingKey(t *testing.T) {
	rs := services.NewRecordStore(kvstore.NewMemoryStore(), testKey)

	sectors := rs.Load(context.Background())
	assert.NotNil(t, sectors)
	assert.Empty(t, sectors)
}

func TestRecordStore_LoadMalformedDocument(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, testKey, []byte(`[{"id": "1", "lastUpdate": `)))

	sectors := services.NewRecordStore(store, testKey).Load(ctx)
	assert.NotNil(t, sectors)
	assert.Empty(t, sectors)
}

func TestRecordStore_LoadReadFailure(t *testing.T) {
	store := &mockKeyValueStore{}
	store.On("Get", mock.Anything, testKey).Return(nil, errors.New("connection refused"))

	sectors := services.NewRecordStore(store, testKey).Load(context.Background())
	assert.Empty(t, sectors)
	store.AssertExpectations(t)
}

func TestRecordStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rs := services.NewRecordStore(kvstore.NewMemoryStore(), testKey)

	start := time.Date(2024, 5, 10, 8, 30, 15, 123000000, time.UTC)
	estimate := 45
	population := 12000
	closed := entities.OutageDraft{
		StartTime:       start.Add(-24 * time.Hour),
		EndTime:         timePtr(start.Add(-23 * time.Hour)),
		Severity:        entities.SeverityLow,
		AffectedSystems: []string{"Iluminação"},
		Notes:           "manutenção",
	}.ToOutage("o1")
	ongoing := entities.OutageDraft{
		StartTime:         start,
		IsOngoing:         true,
		EstimatedDuration: &estimate,
		Severity:          entities.SeverityCritical,
		AffectedSystems:   []string{"Ventiladores", "Monitores"},
	}.ToOutage("o2")
	current := ongoing.Clone()

	sectors := entities.SectorList{
		{
			ID:                "s1",
			Name:              "UTI Adulto",
			Floor:             -1,
			Status:            entities.SectorStatusOffline,
			PowerConsumption:  90,
			CriticalEquipment: 14,
			LastUpdate:        start.Add(time.Minute),
			Region: entities.HospitalRegion{
				Type:               entities.RegionTypeCEP,
				Name:               "Hospital Central",
				Value:              "01310100",
				Description:        "Zona central",
				AffectedPopulation: &population,
			},
			PowerOutages:  []entities.PowerOutage{closed, ongoing},
			CurrentOutage: &current,
		},
	}

	require.NoError(t, rs.Save(ctx, sectors))
	loaded := rs.Load(ctx)
	require.Len(t, loaded, 1)

	want, err := json.Marshal(sectors)
	require.NoError(t, err)
	got, err := json.Marshal(loaded)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	assert.True(t, loaded[0].LastUpdate.Equal(sectors[0].LastUpdate))
	assert.True(t, loaded[0].PowerOutages[1].StartTime.Equal(start))
	require.NotNil(t, loaded[0].CurrentOutage)
	assert.True(t, loaded[0].CurrentOutage.EstimatedEndTime.Equal(start.Add(45*time.Minute)))
}

func TestRecordStore_LoadLegacyDocument(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	legacy := `[
		{"id":"1715000000000","name":"Farmácia","floor":0,"status":"UNKNOWN","powerConsumption":20,
		 "criticalEquipment":1,"lastUpdate":"2024-05-10T08:00:00.000Z",
		 "currentOutage":{"id":"1715000000001","startTime":"2024-05-10T07:00:00.000Z","isOngoing":true,"severity":"EXTREME"}}
	]`
	require.NoError(t, store.Set(ctx, testKey, []byte(legacy)))

	sectors := services.NewRecordStore(store, testKey).Load(ctx)
	require.Len(t, sectors, 1)

	s := sectors[0]
	assert.Equal(t, entities.DefaultRegion(), s.Region)
	assert.Equal(t, entities.SectorStatusNormal, s.Status)
	require.Len(t, s.PowerOutages, 1)
	assert.Equal(t, entities.SeverityMedium, s.PowerOutages[0].Severity)
	assert.NotNil(t, s.PowerOutages[0].AffectedSystems)
	require.NotNil(t, s.CurrentOutage)
	assert.Equal(t, "1715000000001", s.CurrentOutage.ID)
	assert.True(t, s.LastUpdate.Equal(time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)))
}

func TestRecordStore_LoadDropsClosedCurrentOutage(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	doc := `[{"id":"1","name":"UTI","status":"NORMAL","lastUpdate":"2024-05-10T08:00:00Z",
		"region":{"type":"BAIRRO","name":"H","value":"V"},
		"powerOutages":[{"id":"o1","startTime":"2024-05-10T07:00:00Z","endTime":"2024-05-10T07:30:00Z","duration":30,"isOngoing":false,"severity":"LOW","affectedSystems":[]}],
		"currentOutage":{"id":"o1","startTime":"2024-05-10T07:00:00Z","isOngoing":true,"severity":"LOW","affectedSystems":[]}}]`
	require.NoError(t, store.Set(ctx, testKey, []byte(doc)))

	sectors := services.NewRecordStore(store, testKey).Load(ctx)
	require.Len(t, sectors, 1)
	assert.Nil(t, sectors[0].CurrentOutage)
	assert.False(t, sectors[0].PowerOutages[0].IsOngoing)
}

func TestRecordStore_SaveFailure(t *testing.T) {
	store := &mockKeyValueStore{}
	store.On("Set", mock.Anything, testKey, mock.Anything).Return(errors.New("disk full"))

	err := services.NewRecordStore(store, testKey).Save(context.Background(), entities.SectorList{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeStorage, apperrors.TypeOf(err))
	store.AssertExpectations(t)
}

func TestRecordStore_SaveNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	require.NoError(t, services.NewRecordStore(store, testKey).Save(ctx, nil))
	data, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRecordStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	rs := services.NewRecordStore(store, testKey)

	require.NoError(t, rs.Save(ctx, entities.SectorList{{ID: "s1", Region: entities.DefaultRegion()}}))
	require.NoError(t, rs.Clear(ctx))

	_, err := store.Get(ctx, testKey)
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)
	assert.Empty(t, rs.Load(ctx))
}

func TestRecordStore_ClearFailure(t *testing.T) {
	store := &mockKeyValueStore{}
	store.On("Delete", mock.Anything, testKey).Return(errors.New("timeout"))

	err := services.NewRecordStore(store, testKey).Clear(context.Background())
	assert.Equal(t, apperrors.ErrorTypeStorage, apperrors.TypeOf(err))
}

func timePtr(t time.Time) *time.Time { return &t }
