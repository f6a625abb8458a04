package derivation

import (
	"fmt"
	"time"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
)

const unknownDuration = "Duração não informada"

// FormatOutageDuration renders how long an outage has lasted. Ongoing
// outages depend on now, so callers re-render them as the clock advances.
func FormatOutageDuration(outage entities.PowerOutage, now time.Time) string {
	switch {
	case outage.IsOngoing:
		return formatMinutes(entities.DurationMinutes(outage.StartTime, now), "em andamento")
	case outage.Duration != nil:
		return formatMinutes(*outage.Duration, "finalizada")
	case outage.EstimatedDuration != nil:
		return formatMinutes(*outage.EstimatedDuration, "estimado")
	default:
		return unknownDuration
	}
}

func formatMinutes(total int, suffix string) string {
	// clock skew can put a start slightly after now
	if total < 0 {
		total = 0
	}
	hours, minutes := total/60, total%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dmin (%s)", hours, minutes, suffix)
	}
	return fmt.Sprintf("%dmin (%s)", minutes, suffix)
}
