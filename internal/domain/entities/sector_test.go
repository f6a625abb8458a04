package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestPowerOutage_Close(t *testing.T) {
	start := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	o := PowerOutage{ID: "o1", StartTime: start, IsOngoing: true}

	o.Close(start.Add(95*time.Minute + 59*time.Second))

	require.NotNil(t, o.Duration)
	assert.Equal(t, 95, *o.Duration)
	assert.False(t, o.IsOngoing)
	require.NotNil(t, o.EndTime)
}

func TestHospitalSector_CloneIsDeep(t *testing.T) {
	start := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	outage := PowerOutage{ID: "o1", StartTime: start, IsOngoing: true, EstimatedDuration: intPtr(30), AffectedSystems: []string{"UTI"}}
	s := HospitalSector{
		ID:            "s1",
		Region:        HospitalRegion{AffectedPopulation: intPtr(1000)},
		PowerOutages:  []PowerOutage{outage},
		CurrentOutage: &outage,
	}

	c := s.Clone()
	*c.Region.AffectedPopulation = 1
	*c.PowerOutages[0].EstimatedDuration = 99
	c.PowerOutages[0].AffectedSystems[0] = "changed"
	c.CurrentOutage.Notes = "changed"

	assert.Equal(t, 1000, *s.Region.AffectedPopulation)
	assert.Equal(t, 30, *s.PowerOutages[0].EstimatedDuration)
	assert.Equal(t, "UTI", s.PowerOutages[0].AffectedSystems[0])
	assert.Empty(t, s.CurrentOutage.Notes)
}

func TestSectorList_CloneNil(t *testing.T) {
	var l SectorList
	c := l.Clone()
	assert.NotNil(t, c)
	assert.Len(t, c, 0)
}

func TestOutageDraft_ToOutage(t *testing.T) {
	start := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	t.Run("ongoing drops close fields and derives estimate", func(t *testing.T) {
		d := OutageDraft{StartTime: start, IsOngoing: true, EndTime: timePtr(start), Duration: intPtr(3), EstimatedDuration: intPtr(45)}
		o := d.ToOutage("id")
		assert.Nil(t, o.EndTime)
		assert.Nil(t, o.Duration)
		require.NotNil(t, o.EstimatedEndTime)
		assert.True(t, o.EstimatedEndTime.Equal(start.Add(45*time.Minute)))
		assert.Equal(t, SeverityMedium, o.Severity)
		assert.NotNil(t, o.AffectedSystems)
	})

	t.Run("closed computes duration", func(t *testing.T) {
		d := OutageDraft{StartTime: start, EndTime: timePtr(start.Add(2 * time.Hour)), Severity: SeverityHigh}
		o := d.ToOutage("id")
		require.NotNil(t, o.Duration)
		assert.Equal(t, 120, *o.Duration)
		assert.False(t, o.IsOngoing)
	})
}

func TestSectorPatch_Apply(t *testing.T) {
	s := HospitalSector{ID: "s1", Name: "UTI", Floor: 2, PowerOutages: []PowerOutage{{ID: "o1"}}}
	status := SectorStatusWarning
	p := SectorPatch{Name: strPtr("UTI Adulto"), Status: &status}

	assert.False(t, p.IsEmpty())
	p.Apply(&s)

	assert.Equal(t, "UTI Adulto", s.Name)
	assert.Equal(t, SectorStatusWarning, s.Status)
	assert.Equal(t, 2, s.Floor)
	assert.Equal(t, "s1", s.ID)
	assert.Len(t, s.PowerOutages, 1)
	assert.True(t, SectorPatch{}.IsEmpty())
}

func TestHospitalSector_JSONWireNames(t *testing.T) {
	raw := `{"id":"1715","name":"UTI","floor":2,"status":"CRITICAL","powerConsumption":80,
	"criticalEquipment":10,"lastUpdate":"2024-05-10T08:00:00.000Z",
	"region":{"type":"CEP","name":"Hospital Central","value":"01310100"},
	"powerOutages":[{"id":"o1","startTime":"2024-05-10T07:00:00.000Z","isOngoing":true,"severity":"HIGH","affectedSystems":[]}],
	"currentOutage":{"id":"o1","startTime":"2024-05-10T07:00:00.000Z","isOngoing":true,"severity":"HIGH","affectedSystems":[]}}`

	var s HospitalSector
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.Equal(t, SectorStatusCritical, s.Status)
	assert.Equal(t, RegionTypeCEP, s.Region.Type)
	assert.True(t, s.LastUpdate.Equal(time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)))
	require.NotNil(t, s.CurrentOutage)
	assert.True(t, s.HasOngoingOutage())
	assert.Equal(t, 0, s.OutageIndex("o1"))
	assert.Equal(t, -1, s.OutageIndex("missing"))
}

func TestSeverityMappings(t *testing.T) {
	tests := []struct {
		severity   Severity
		multiplier float64
		rank       int
		recovery   int
	}{
		{SeverityLow, 0.5, 1, 15},
		{SeverityMedium, 1.0, 2, 30},
		{SeverityHigh, 2.0, 3, 60},
		{SeverityCritical, 4.0, 4, 120},
		{Severity("BOGUS"), 1.0, 2, 30},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.multiplier, tt.severity.CostMultiplier())
			assert.Equal(t, tt.rank, tt.severity.Rank())
			assert.Equal(t, tt.recovery, tt.severity.RecoveryMinutes())
		})
	}

	assert.Equal(t, SeverityMedium, Severity("BOGUS").Normalize())
	assert.Equal(t, SectorStatusNormal, SectorStatus("BOGUS").Normalize())
}

func TestSectorStatus_OperationalImpact(t *testing.T) {
	assert.Equal(t, SeverityCritical, SectorStatusCritical.OperationalImpact())
	assert.Equal(t, SeverityCritical, SectorStatusOffline.OperationalImpact())
	assert.Equal(t, SeverityHigh, SectorStatusWarning.OperationalImpact())
	assert.Equal(t, SeverityLow, SectorStatusNormal.OperationalImpact())
	assert.Equal(t, SeverityMedium, SectorStatus("").OperationalImpact())
}

func strPtr(v string) *string { return &v }
