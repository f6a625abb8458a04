package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldError describes one rejected form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormErrors collects every rejected field of a form
type FormErrors []FieldError

func (e FormErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *FormErrors) add(field, format string, args ...any) {
	*e = append(*e, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e FormErrors) errOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// SectorForm is the sector creation payload as entered by an operator
type SectorForm struct {
	Name               string       `json:"name"`
	Floor              int          `json:"floor"`
	Status             SectorStatus `json:"status"`
	PowerConsumption   int          `json:"powerConsumption"`
	CriticalEquipment  int          `json:"criticalEquipment"`
	HospitalName       string       `json:"hospitalName"`
	RegionType         RegionType   `json:"regionType"`
	RegionValue        string       `json:"regionValue"`
	RegionDescription  string       `json:"regionDescription,omitempty"`
	AffectedPopulation *int         `json:"affectedPopulation,omitempty"`
	CurrentOutage      *OutageForm  `json:"currentOutage,omitempty"`
}

// OutageForm is an outage payload. StartTime accepts HH:MM or RFC 3339;
// an empty EndTime declares the outage ongoing.
type OutageForm struct {
	StartTime         string   `json:"startTime"`
	EndTime           string   `json:"endTime,omitempty"`
	EstimatedDuration *int     `json:"estimatedDuration,omitempty"`
	Severity          Severity `json:"severity,omitempty"`
	AffectedSystems   []string `json:"affectedSystems,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// ToDraft validates the form and builds the sector draft. Clock times are
// resolved against now.
func (f SectorForm) ToDraft(now time.Time) (SectorDraft, error) {
	var errs FormErrors

	name := strings.TrimSpace(f.Name)
	if name == "" {
		errs.add("name", "is required")
	}
	hospital := strings.TrimSpace(f.HospitalName)
	if hospital == "" {
		errs.add("hospitalName", "is required")
	}
	value := strings.TrimSpace(f.RegionValue)
	if value == "" {
		errs.add("regionValue", "is required")
	}
	if f.PowerConsumption < 0 || f.PowerConsumption > 100 {
		errs.add("powerConsumption", "must be between 0 and 100")
	}
	if f.CriticalEquipment < 0 {
		errs.add("criticalEquipment", "must not be negative")
	}

	regionType := f.RegionType
	if regionType == "" {
		regionType = RegionTypeBairro
	}
	switch {
	case !regionType.Valid():
		errs.add("regionType", "unknown region type %q", f.RegionType)
	case regionType == RegionTypeCEP && value != "" && !IsValidCEP(value):
		errs.add("regionValue", "CEP must have 8 digits")
	}
	if f.AffectedPopulation != nil && *f.AffectedPopulation <= 0 {
		errs.add("affectedPopulation", "must be positive")
	}

	status := f.Status
	if status == "" {
		status = SectorStatusNormal
	}
	if !status.Valid() {
		errs.add("status", "unknown status %q", f.Status)
	}

	draft := SectorDraft{
		Name:              name,
		Floor:             f.Floor,
		Status:            status,
		PowerConsumption:  f.PowerConsumption,
		CriticalEquipment: f.CriticalEquipment,
		Region: HospitalRegion{
			Type:               regionType,
			Name:               hospital,
			Value:              value,
			Description:        strings.TrimSpace(f.RegionDescription),
			AffectedPopulation: cloneInt(f.AffectedPopulation),
		},
	}

	if f.CurrentOutage != nil {
		outage, err := f.CurrentOutage.ToDraft(now)
		if err != nil {
			if fe, ok := err.(FormErrors); ok {
				for _, e := range fe {
					errs.add("currentOutage."+e.Field, "%s", e.Message)
				}
			} else {
				errs.add("currentOutage", "%s", err.Error())
			}
		} else if !outage.IsOngoing {
			errs.add("currentOutage.endTime", "must be empty for a current outage")
		} else {
			draft.PowerOutages = []OutageDraft{outage}
		}
	}

	if err := errs.errOrNil(); err != nil {
		return SectorDraft{}, err
	}
	return draft, nil
}

// ToDraft validates the form and builds the outage draft
func (f OutageForm) ToDraft(now time.Time) (OutageDraft, error) {
	var errs FormErrors

	var start time.Time
	if strings.TrimSpace(f.StartTime) == "" {
		errs.add("startTime", "is required")
	} else {
		t, err := ParseOutageTime(f.StartTime, now)
		if err != nil {
			errs.add("startTime", "%s", err.Error())
		}
		start = t
	}

	var end *time.Time
	if strings.TrimSpace(f.EndTime) != "" {
		t, err := ParseOutageTime(f.EndTime, now)
		switch {
		case err != nil:
			errs.add("endTime", "%s", err.Error())
		case !start.IsZero() && t.Before(start):
			errs.add("endTime", "must not precede startTime")
		default:
			end = &t
		}
	}

	if f.EstimatedDuration != nil && *f.EstimatedDuration <= 0 {
		errs.add("estimatedDuration", "must be positive")
	}

	severity := f.Severity
	if severity == "" {
		severity = SeverityMedium
	}
	if !severity.Valid() {
		errs.add("severity", "unknown severity %q", f.Severity)
	}

	if err := errs.errOrNil(); err != nil {
		return OutageDraft{}, err
	}

	draft := OutageDraft{
		StartTime:         start,
		EndTime:           end,
		EstimatedDuration: cloneInt(f.EstimatedDuration),
		IsOngoing:         end == nil,
		Severity:          severity,
		AffectedSystems:   append([]string{}, f.AffectedSystems...),
		Notes:             strings.TrimSpace(f.Notes),
	}
	if draft.EstimatedDuration != nil {
		estimated := start.Add(time.Duration(*draft.EstimatedDuration) * time.Minute)
		draft.EstimatedEndTime = &estimated
	}
	return draft, nil
}

// ParseOutageTime accepts either an RFC 3339 timestamp or an HH:MM clock time
func ParseOutageTime(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.Count(value, ":") == 1 && len(value) <= 5 {
		return ParseClockTime(value, now)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected HH:MM or RFC 3339 timestamp, got %q", value)
	}
	return t, nil
}

// ParseClockTime resolves an HH:MM clock time to today in now's location.
// A time later than now is taken to mean yesterday.
func ParseClockTime(value string, now time.Time) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid clock time %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return time.Time{}, fmt.Errorf("invalid hour in %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in %q", value)
	}

	t := time.Date(now.Year(), now.Month(), now.Day(), hours, minutes, 0, 0, now.Location())
	if t.After(now) {
		t = t.AddDate(0, 0, -1)
	}
	return t, nil
}

// IsValidCEP reports whether value holds exactly 8 digits once formatting is stripped
func IsValidCEP(value string) bool {
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits == 8
}

// FloorLabel renders a floor number the way operators read it
func FloorLabel(floor int) string {
	switch {
	case floor == 0:
		return "Térreo"
	case floor < 0:
		return fmt.Sprintf("%dº Subsolo", -floor)
	default:
		return fmt.Sprintf("%dº Andar", floor)
	}
}

// Validate checks every field the patch sets
func (p SectorPatch) Validate() error {
	var errs FormErrors
	if p.IsEmpty() {
		errs.add("body", "no fields to update")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs.add("name", "must not be blank")
	}
	if p.Status != nil && !p.Status.Valid() {
		errs.add("status", "unknown status %q", *p.Status)
	}
	if p.PowerConsumption != nil && (*p.PowerConsumption < 0 || *p.PowerConsumption > 100) {
		errs.add("powerConsumption", "must be between 0 and 100")
	}
	if p.CriticalEquipment != nil && *p.CriticalEquipment < 0 {
		errs.add("criticalEquipment", "must not be negative")
	}
	if r := p.Region; r != nil {
		switch {
		case !r.Type.Valid():
			errs.add("region.type", "unknown region type %q", r.Type)
		case r.Type == RegionTypeCEP && !IsValidCEP(r.Value):
			errs.add("region.value", "CEP must have 8 digits")
		}
		if strings.TrimSpace(r.Name) == "" {
			errs.add("region.name", "is required")
		}
		if strings.TrimSpace(r.Value) == "" {
			errs.add("region.value", "is required")
		}
		if r.AffectedPopulation != nil && *r.AffectedPopulation <= 0 {
			errs.add("region.affectedPopulation", "must be positive")
		}
	}
	return errs.errOrNil()
}
