package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/query/derivation"
)

const metricsNamespace = "hospital"

// SnapshotSource returns the current sector collection
type SnapshotSource interface {
	Snapshot(ctx context.Context) (entities.SectorList, error)
}

// HospitalCollector exposes hospital gauges computed from the current
// sector snapshot at scrape time
type HospitalCollector struct {
	source  SnapshotSource
	timeout time.Duration
	logger  zerolog.Logger

	sectors         *prometheus.Desc
	sectorsByStatus *prometheus.Desc
	ongoingOutages  *prometheus.Desc
	outagesRecorded *prometheus.Desc
	affectedSectors *prometheus.Desc
	batteryLevel    *prometheus.Desc
	powerGrid       *prometheus.Desc
	impactCost      *prometheus.Desc
	patientsAtRisk  *prometheus.Desc
}

// NewHospitalCollector creates a collector reading from source
func NewHospitalCollector(source SnapshotSource, logger zerolog.Logger) *HospitalCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, labels, nil)
	}
	return &HospitalCollector{
		source:          source,
		timeout:         5 * time.Second,
		logger:          logger,
		sectors:         desc("sectors", "Number of registered sectors"),
		sectorsByStatus: desc("sectors_by_status", "Number of sectors per status", "status"),
		ongoingOutages:  desc("ongoing_outages", "Number of sectors with an ongoing outage"),
		outagesRecorded: desc("outages_recorded", "Number of outages in all sector histories"),
		affectedSectors: desc("affected_sectors", "Sectors counted as affected by the hospital status"),
		batteryLevel:    desc("battery_level_percent", "Estimated backup battery level"),
		powerGrid:       desc("power_grid_up", "1 when no sector has an ongoing outage"),
		impactCost:      desc("impact_cost_estimate", "Estimated total cost of all recorded outages"),
		patientsAtRisk:  desc("patients_at_risk", "Estimated patients affected per risk level", "risk"),
	}
}

// Describe implements prometheus.Collector
func (c *HospitalCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sectors
	ch <- c.sectorsByStatus
	ch <- c.ongoingOutages
	ch <- c.outagesRecorded
	ch <- c.affectedSectors
	ch <- c.batteryLevel
	ch <- c.powerGrid
	ch <- c.impactCost
	ch <- c.patientsAtRisk
}

// Collect implements prometheus.Collector
func (c *HospitalCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	sectors, err := c.source.Snapshot(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Skipping hospital metrics, snapshot failed")
		return
	}

	status := derivation.ComputeHospitalStatus(sectors)
	stats := derivation.ComputeOutageStats(sectors)
	impact := derivation.ComputeImpactAnalysis(sectors)

	ch <- prometheus.MustNewConstMetric(c.sectors, prometheus.GaugeValue, float64(len(sectors)))
	for _, s := range []entities.SectorStatus{
		entities.SectorStatusNormal,
		entities.SectorStatusWarning,
		entities.SectorStatusCritical,
		entities.SectorStatusOffline,
	} {
		count := 0
		for _, sector := range sectors {
			if sector.Status == s {
				count++
			}
		}
		ch <- prometheus.MustNewConstMetric(c.sectorsByStatus, prometheus.GaugeValue, float64(count), string(s))
	}
	ch <- prometheus.MustNewConstMetric(c.ongoingOutages, prometheus.GaugeValue, float64(stats.OngoingOutages))
	ch <- prometheus.MustNewConstMetric(c.outagesRecorded, prometheus.GaugeValue, float64(stats.TotalOutages))
	ch <- prometheus.MustNewConstMetric(c.affectedSectors, prometheus.GaugeValue, float64(status.AffectedSectors))
	ch <- prometheus.MustNewConstMetric(c.batteryLevel, prometheus.GaugeValue, float64(status.BatteryLevel))

	grid := 0.0
	if status.PowerGrid {
		grid = 1
	}
	ch <- prometheus.MustNewConstMetric(c.powerGrid, prometheus.GaugeValue, grid)
	ch <- prometheus.MustNewConstMetric(c.impactCost, prometheus.GaugeValue, impact.Costs.Total)
	for _, p := range impact.Patients {
		ch <- prometheus.MustNewConstMetric(c.patientsAtRisk, prometheus.GaugeValue, float64(p.Count), string(p.RiskLevel))
	}
}
