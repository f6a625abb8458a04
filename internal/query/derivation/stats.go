package derivation

import (
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
)

// OutageStats is a simple aggregation over every recorded outage
type OutageStats struct {
	TotalOutages    int     `json:"totalOutages"`
	OngoingOutages  int     `json:"ongoingOutages"`
	AverageDuration float64 `json:"averageDuration"`
	CriticalOutages int     `json:"criticalOutages"`
}

// ComputeOutageStats counts outages and averages the recorded non-zero
// durations. With nothing to average the result is 0.
func ComputeOutageStats(sectors entities.SectorList) OutageStats {
	var stats OutageStats
	var durationSum, durationCount int

	for _, s := range sectors {
		if s.CurrentOutage != nil {
			stats.OngoingOutages++
		}
		for _, o := range s.PowerOutages {
			stats.TotalOutages++
			if o.Severity == entities.SeverityCritical {
				stats.CriticalOutages++
			}
			if o.Duration != nil && *o.Duration > 0 {
				durationSum += *o.Duration
				durationCount++
			}
		}
	}

	if durationCount > 0 {
		stats.AverageDuration = float64(durationSum) / float64(durationCount)
	}
	return stats
}
