package entities

import (
	"time"

	"github.com/google/uuid"
)

// SectorEventType represents the kind of change made to the sector collection
type SectorEventType string

const (
	SectorEventTypeSectorAdded     SectorEventType = "sector_added"
	SectorEventTypeSectorRemoved   SectorEventType = "sector_removed"
	SectorEventTypeSectorUpdated   SectorEventType = "sector_updated"
	SectorEventTypeOutageStarted   SectorEventType = "outage_started"
	SectorEventTypeOutageEnded     SectorEventType = "outage_ended"
	SectorEventTypeEstimateExpired SectorEventType = "estimate_expired"
	SectorEventTypeDataCleared     SectorEventType = "data_cleared"
)

// SectorEvent notifies subscribers that the sector collection changed
type SectorEvent struct {
	ID        string          `json:"id"`
	EventType SectorEventType `json:"event_type"`
	SectorID  string          `json:"sector_id,omitempty"`
	OutageID  string          `json:"outage_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSectorEvent creates a new sector event
func NewSectorEvent(eventType SectorEventType, sectorID, outageID string, at time.Time) *SectorEvent {
	return &SectorEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		SectorID:  sectorID,
		OutageID:  outageID,
		Timestamp: at,
	}
}
