package derivation

import (
	"time"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func ongoing(id string, start time.Time, severity entities.Severity) entities.PowerOutage {
	return entities.PowerOutage{ID: id, StartTime: start, IsOngoing: true, Severity: severity, AffectedSystems: []string{}}
}

func closed(id string, start time.Time, minutes int, severity entities.Severity) entities.PowerOutage {
	return entities.PowerOutage{
		ID:              id,
		StartTime:       start,
		EndTime:         timePtr(start.Add(time.Duration(minutes) * time.Minute)),
		Duration:        intPtr(minutes),
		Severity:        severity,
		AffectedSystems: []string{},
	}
}

func sectorWithCurrent(s entities.HospitalSector, o entities.PowerOutage) entities.HospitalSector {
	s.PowerOutages = append(s.PowerOutages, o)
	current := o
	s.CurrentOutage = &current
	return s
}
