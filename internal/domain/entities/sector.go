package entities

import (
	"math"
	"time"
)

// HospitalRegion describes where a hospital sector is located
type HospitalRegion struct {
	Type               RegionType `json:"type"`
	Name               string     `json:"name"`
	Value              string     `json:"value"`
	Description        string     `json:"description,omitempty"`
	AffectedPopulation *int       `json:"affectedPopulation,omitempty"`
}

// DefaultRegion is backfilled into records saved before regions existed
func DefaultRegion() HospitalRegion {
	return HospitalRegion{
		Type:  RegionTypeBairro,
		Name:  "Hospital não especificado",
		Value: "Região não informada",
	}
}

// PowerOutage is a single outage episode of a sector.
// IsOngoing holds exactly when EndTime and Duration are both nil.
type PowerOutage struct {
	ID                string     `json:"id"`
	StartTime         time.Time  `json:"startTime"`
	EndTime           *time.Time `json:"endTime,omitempty"`
	EstimatedEndTime  *time.Time `json:"estimatedEndTime,omitempty"`
	Duration          *int       `json:"duration,omitempty"`
	EstimatedDuration *int       `json:"estimatedDuration,omitempty"`
	IsOngoing         bool       `json:"isOngoing"`
	Severity          Severity   `json:"severity"`
	AffectedSystems   []string   `json:"affectedSystems"`
	Notes             string     `json:"notes,omitempty"`
}

// Clone returns a copy sharing no memory with o
func (o PowerOutage) Clone() PowerOutage {
	o.EndTime = cloneTime(o.EndTime)
	o.EstimatedEndTime = cloneTime(o.EstimatedEndTime)
	o.Duration = cloneInt(o.Duration)
	o.EstimatedDuration = cloneInt(o.EstimatedDuration)
	if o.AffectedSystems != nil {
		o.AffectedSystems = append([]string(nil), o.AffectedSystems...)
	}
	return o
}

// Close ends the outage at end. Duration is fixed here and never recomputed.
func (o *PowerOutage) Close(end time.Time) {
	d := DurationMinutes(o.StartTime, end)
	o.EndTime = &end
	o.Duration = &d
	o.IsOngoing = false
}

// DurationMinutes returns the whole minutes between start and end, floored
func DurationMinutes(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Minutes()))
}

// HospitalSector is a monitored hospital department and its outage history
type HospitalSector struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Floor             int            `json:"floor"`
	Status            SectorStatus   `json:"status"`
	PowerConsumption  int            `json:"powerConsumption"`
	CriticalEquipment int            `json:"criticalEquipment"`
	LastUpdate        time.Time      `json:"lastUpdate"`
	Region            HospitalRegion `json:"region"`
	PowerOutages      []PowerOutage  `json:"powerOutages"`
	CurrentOutage     *PowerOutage   `json:"currentOutage,omitempty"`
}

// Clone returns a deep copy of the sector
func (s HospitalSector) Clone() HospitalSector {
	s.Region.AffectedPopulation = cloneInt(s.Region.AffectedPopulation)
	outages := make([]PowerOutage, len(s.PowerOutages))
	for i, o := range s.PowerOutages {
		outages[i] = o.Clone()
	}
	s.PowerOutages = outages
	if s.CurrentOutage != nil {
		current := s.CurrentOutage.Clone()
		s.CurrentOutage = &current
	}
	return s
}

// HasOngoingOutage reports whether the sector currently tracks an open outage
func (s HospitalSector) HasOngoingOutage() bool {
	return s.CurrentOutage != nil && s.CurrentOutage.IsOngoing
}

// OutageIndex returns the position of the outage with the given id, or -1
func (s HospitalSector) OutageIndex(outageID string) int {
	for i := range s.PowerOutages {
		if s.PowerOutages[i].ID == outageID {
			return i
		}
	}
	return -1
}

// SectorList is the whole persisted collection. Operations treat it as a value.
type SectorList []HospitalSector

// Clone deep-copies the list. A nil list clones to an empty one.
func (l SectorList) Clone() SectorList {
	out := make(SectorList, len(l))
	for i, s := range l {
		out[i] = s.Clone()
	}
	return out
}

// IndexOf returns the position of the sector with the given id, or -1
func (l SectorList) IndexOf(sectorID string) int {
	for i := range l {
		if l[i].ID == sectorID {
			return i
		}
	}
	return -1
}

// Find returns a copy of the sector with the given id
func (l SectorList) Find(sectorID string) (HospitalSector, bool) {
	i := l.IndexOf(sectorID)
	if i < 0 {
		return HospitalSector{}, false
	}
	return l[i].Clone(), true
}

// OutageDraft is an outage before it is assigned an id
type OutageDraft struct {
	StartTime         time.Time  `json:"startTime"`
	EndTime           *time.Time `json:"endTime,omitempty"`
	EstimatedEndTime  *time.Time `json:"estimatedEndTime,omitempty"`
	Duration          *int       `json:"duration,omitempty"`
	EstimatedDuration *int       `json:"estimatedDuration,omitempty"`
	IsOngoing         bool       `json:"isOngoing"`
	Severity          Severity   `json:"severity"`
	AffectedSystems   []string   `json:"affectedSystems,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// ToOutage builds the stored outage, keeping the ongoing/closed fields consistent
func (d OutageDraft) ToOutage(id string) PowerOutage {
	o := PowerOutage{
		ID:                id,
		StartTime:         d.StartTime,
		EstimatedEndTime:  cloneTime(d.EstimatedEndTime),
		EstimatedDuration: cloneInt(d.EstimatedDuration),
		IsOngoing:         d.IsOngoing,
		Severity:          d.Severity.Normalize(),
		AffectedSystems:   append([]string{}, d.AffectedSystems...),
		Notes:             d.Notes,
	}
	if o.EstimatedEndTime == nil && o.EstimatedDuration != nil {
		end := o.StartTime.Add(time.Duration(*o.EstimatedDuration) * time.Minute)
		o.EstimatedEndTime = &end
	}
	if d.IsOngoing {
		return o
	}

	o.EndTime = cloneTime(d.EndTime)
	o.Duration = cloneInt(d.Duration)
	if o.Duration == nil && o.EndTime != nil {
		minutes := DurationMinutes(o.StartTime, *o.EndTime)
		o.Duration = &minutes
	}
	if o.EndTime == nil && o.Duration == nil {
		// a closed draft with neither field would read back as ongoing
		o.Duration = new(int)
	}
	return o
}

// SectorDraft is a sector before it is assigned an id and update time
type SectorDraft struct {
	Name              string         `json:"name"`
	Floor             int            `json:"floor"`
	Status            SectorStatus   `json:"status"`
	PowerConsumption  int            `json:"powerConsumption"`
	CriticalEquipment int            `json:"criticalEquipment"`
	Region            HospitalRegion `json:"region"`
	PowerOutages      []OutageDraft  `json:"powerOutages,omitempty"`
}

// SectorPatch holds the fields of a partial sector update. Nil fields are left untouched.
type SectorPatch struct {
	Name              *string         `json:"name,omitempty"`
	Floor             *int            `json:"floor,omitempty"`
	Status            *SectorStatus   `json:"status,omitempty"`
	PowerConsumption  *int            `json:"powerConsumption,omitempty"`
	CriticalEquipment *int            `json:"criticalEquipment,omitempty"`
	Region            *HospitalRegion `json:"region,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p SectorPatch) IsEmpty() bool {
	return p.Name == nil && p.Floor == nil && p.Status == nil &&
		p.PowerConsumption == nil && p.CriticalEquipment == nil && p.Region == nil
}

// Apply merges the patch into s. Outage history and identity are never touched.
func (p SectorPatch) Apply(s *HospitalSector) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Floor != nil {
		s.Floor = *p.Floor
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.PowerConsumption != nil {
		s.PowerConsumption = *p.PowerConsumption
	}
	if p.CriticalEquipment != nil {
		s.CriticalEquipment = *p.CriticalEquipment
	}
	if p.Region != nil {
		region := *p.Region
		region.AffectedPopulation = cloneInt(region.AffectedPopulation)
		s.Region = region
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
