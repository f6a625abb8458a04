package services_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/hospitalpowermonitor/internal/adapters/kvstore"
	"github.com/zatekoja/hospitalpowermonitor/internal/application/services"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
)

const testKey = "@hospital_sectors"

var baseTime = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: baseTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func newTestRepository() (*services.SectorRepository, *kvstore.MemoryStore, *testClock) {
	store := kvstore.NewMemoryStore()
	clock := newTestClock()
	repo := services.NewSectorRepository(
		services.NewRecordStore(store, testKey),
		services.WithClock(clock.Now),
		services.WithIDGenerator(sequentialIDs()),
	)
	return repo, store, clock
}

func sectorDraft(name string) entities.SectorDraft {
	return entities.SectorDraft{
		Name:              name,
		Floor:             2,
		Status:            entities.SectorStatusNormal,
		PowerConsumption:  60,
		CriticalEquipment: 10,
		Region: entities.HospitalRegion{
			Type:  entities.RegionTypeBairro,
			Name:  "Hospital Central",
			Value: "Centro",
		},
	}
}

func ongoingDraft(start time.Time, estimatedMinutes int) entities.OutageDraft {
	d := entities.OutageDraft{
		StartTime: start,
		IsOngoing: true,
		Severity:  entities.SeverityHigh,
	}
	if estimatedMinutes > 0 {
		d.EstimatedDuration = &estimatedMinutes
	}
	return d
}

type mockKeyValueStore struct {
	mock.Mock
}

func (m *mockKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *mockKeyValueStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockKeyValueStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
