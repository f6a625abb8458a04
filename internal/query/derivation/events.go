package derivation

import (
	"fmt"
	"sort"
	"time"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
)

// EventType classifies an entry of the recent-events feed
type EventType string

const (
	EventTypePowerFailure   EventType = "POWER_FAILURE"
	EventTypeEquipmentAlert EventType = "EQUIPMENT_ALERT"
	EventTypeSystemRestored EventType = "SYSTEM_RESTORED"
)

const (
	restoredWindow  = 2 * time.Hour
	recentEventsCap = 5
)

// Event is one entry of the dashboard feed
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	SectorID  string            `json:"sectorId"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Severity  entities.Severity `json:"severity"`
}

// ComputeRecentEvents builds the feed from the current sector state, newest
// first, keeping the five most recent. Equal timestamps keep emission order.
func ComputeRecentEvents(sectors entities.SectorList, now time.Time) []Event {
	events := make([]Event, 0)

	for _, s := range sectors {
		if s.HasOngoingOutage() {
			events = append(events, Event{
				ID:        "outage-" + s.ID,
				Type:      EventTypePowerFailure,
				SectorID:  s.ID,
				Message:   fmt.Sprintf("Queda de energia em andamento - %s (Andar %d)", s.Name, s.Floor),
				Timestamp: s.CurrentOutage.StartTime,
				Severity:  s.CurrentOutage.Severity.Normalize(),
			})
		}

		if s.Status == entities.SectorStatusCritical {
			events = append(events, Event{
				ID:        "critical-" + s.ID,
				Type:      EventTypeEquipmentAlert,
				SectorID:  s.ID,
				Message:   fmt.Sprintf("Status crítico detectado - %s (%d equipamentos críticos)", s.Name, s.CriticalEquipment),
				Timestamp: s.LastUpdate,
				Severity:  entities.SeverityCritical,
			})
		}

		if s.Status == entities.SectorStatusWarning && s.CriticalEquipment > 0 {
			events = append(events, Event{
				ID:        "warning-" + s.ID,
				Type:      EventTypeEquipmentAlert,
				SectorID:  s.ID,
				Message:   fmt.Sprintf("Alerta de equipamento - %s (%d equipamentos em atenção)", s.Name, s.CriticalEquipment),
				Timestamp: s.LastUpdate,
				Severity:  entities.SeverityMedium,
			})
		}

		for _, o := range s.PowerOutages {
			if o.EndTime == nil || now.Sub(*o.EndTime) > restoredWindow {
				continue
			}
			duration := entities.DurationMinutes(o.StartTime, *o.EndTime)
			if o.Duration != nil {
				duration = *o.Duration
			}
			events = append(events, Event{
				ID:        "restored-" + o.ID,
				Type:      EventTypeSystemRestored,
				SectorID:  s.ID,
				Message:   fmt.Sprintf("Sistema restaurado - %s (Duração: %d min)", s.Name, duration),
				Timestamp: *o.EndTime,
				Severity:  entities.SeverityLow,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > recentEventsCap {
		events = events[:recentEventsCap]
	}
	return events
}
