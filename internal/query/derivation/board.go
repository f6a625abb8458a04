package derivation

import (
	"sort"
	"time"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
)

const finishedPerSector = 3

// BoardEntry is one line of the outage time monitor
type BoardEntry struct {
	SectorID    string               `json:"sectorId"`
	SectorName  string               `json:"sectorName"`
	Outage      entities.PowerOutage `json:"outage"`
	TimeDisplay string               `json:"timeDisplay"`
	IsOngoing   bool                 `json:"isOngoing"`
}

// BuildOutageBoard lists each sector's current outage and its most recently
// finished ones, ongoing entries first, then by descending severity.
func BuildOutageBoard(sectors entities.SectorList, now time.Time) []BoardEntry {
	board := make([]BoardEntry, 0)

	for _, s := range sectors {
		if s.CurrentOutage != nil {
			board = append(board, BoardEntry{
				SectorID:    s.ID,
				SectorName:  s.Name,
				Outage:      s.CurrentOutage.Clone(),
				TimeDisplay: FormatOutageDuration(*s.CurrentOutage, now),
				IsOngoing:   true,
			})
		}

		finished := make([]entities.PowerOutage, 0, len(s.PowerOutages))
		for _, o := range s.PowerOutages {
			if !o.IsOngoing && o.EndTime != nil {
				finished = append(finished, o)
			}
		}
		sort.SliceStable(finished, func(i, j int) bool {
			return finished[i].EndTime.After(*finished[j].EndTime)
		})
		if len(finished) > finishedPerSector {
			finished = finished[:finishedPerSector]
		}

		for _, o := range finished {
			board = append(board, BoardEntry{
				SectorID:    s.ID,
				SectorName:  s.Name,
				Outage:      o.Clone(),
				TimeDisplay: FormatOutageDuration(o, now),
			})
		}
	}

	sort.SliceStable(board, func(i, j int) bool {
		if board[i].IsOngoing != board[j].IsOngoing {
			return board[i].IsOngoing
		}
		return board[i].Outage.Severity.Rank() > board[j].Outage.Severity.Rank()
	})
	return board
}

// RefreshOutageBoard recomputes only the display strings for a new now,
// without touching the store. The input board is left unchanged.
func RefreshOutageBoard(board []BoardEntry, now time.Time) []BoardEntry {
	out := make([]BoardEntry, len(board))
	for i, entry := range board {
		entry.TimeDisplay = FormatOutageDuration(entry.Outage, now)
		out[i] = entry
	}
	return out
}
