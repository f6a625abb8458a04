package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
)

type staticSource struct {
	sectors entities.SectorList
	err     error
}

func (s staticSource) Snapshot(ctx context.Context) (entities.SectorList, error) {
	return s.sectors, s.err
}

func collectorFixture() entities.SectorList {
	start := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	outage := entities.PowerOutage{
		ID:              "o1",
		StartTime:       start,
		IsOngoing:       true,
		Severity:        entities.SeverityMedium,
		AffectedSystems: []string{},
	}
	return entities.SectorList{
		{
			ID:                "s1",
			Name:              "Recepção",
			Status:            entities.SectorStatusCritical,
			CriticalEquipment: 10,
			PowerOutages:      []entities.PowerOutage{outage},
			CurrentOutage:     &outage,
		},
		{ID: "s2", Name: "Almoxarifado", Status: entities.SectorStatusNormal},
	}
}

func TestHospitalCollector_Collect(t *testing.T) {
	c := NewHospitalCollector(staticSource{sectors: collectorFixture()}, zerolog.Nop())

	expected := `
# HELP hospital_sectors Number of registered sectors
# TYPE hospital_sectors gauge
hospital_sectors 2
# HELP hospital_battery_level_percent Estimated backup battery level
# TYPE hospital_battery_level_percent gauge
hospital_battery_level_percent 85
# HELP hospital_power_grid_up 1 when no sector has an ongoing outage
# TYPE hospital_power_grid_up gauge
hospital_power_grid_up 0
# HELP hospital_impact_cost_estimate Estimated total cost of all recorded outages
# TYPE hospital_impact_cost_estimate gauge
hospital_impact_cost_estimate 5000
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"hospital_sectors", "hospital_battery_level_percent", "hospital_power_grid_up", "hospital_impact_cost_estimate"))

	assert.Equal(t, 4, testutil.CollectAndCount(c, "hospital_sectors_by_status"))
	assert.Equal(t, 1, testutil.CollectAndCount(c, "hospital_ongoing_outages"))
}

func TestHospitalCollector_SnapshotFailure(t *testing.T) {
	c := NewHospitalCollector(staticSource{err: errors.New("store down")}, zerolog.Nop())
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}
