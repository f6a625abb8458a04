// Package derivation computes view-level values from a sector collection.
// Every function is pure: it reads its inputs and never mutates them.
package derivation

import (
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
)

// HospitalStatus is the hospital-wide power summary
type HospitalStatus struct {
	Overall         entities.SectorStatus `json:"overall"`
	PowerGrid       bool                  `json:"powerGrid"`
	BackupGenerator bool                  `json:"backupGenerator"`
	BatteryLevel    int                   `json:"batteryLevel"`
	// AffectedSectors counts status and outage buckets separately, so one
	// sector may contribute more than once.
	AffectedSectors int `json:"affectedSectors"`
}

// ComputeHospitalStatus aggregates sector statuses and ongoing outages
func ComputeHospitalStatus(sectors entities.SectorList) HospitalStatus {
	var critical, warning, offline, ongoing int
	for _, s := range sectors {
		switch s.Status {
		case entities.SectorStatusCritical:
			critical++
		case entities.SectorStatusWarning:
			warning++
		case entities.SectorStatusOffline:
			offline++
		}
		if s.HasOngoingOutage() {
			ongoing++
		}
	}

	overall := entities.SectorStatusNormal
	switch {
	case critical > 0 || offline > 0:
		overall = entities.SectorStatusCritical
	case warning > 0 || ongoing > 0:
		overall = entities.SectorStatusWarning
	}

	return HospitalStatus{
		Overall:         overall,
		PowerGrid:       ongoing == 0,
		BackupGenerator: ongoing > 0,
		BatteryLevel:    max(20, 100-15*ongoing),
		AffectedSectors: critical + warning + offline + ongoing,
	}
}
