package entities

// Severity is the four-level ordinal used for outages and derived risk tiers
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Severities lists every known severity, highest first
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Normalize returns s, or MEDIUM when s is unknown
func (s Severity) Normalize() Severity {
	if s.Valid() {
		return s
	}
	return SeverityMedium
}

// CostMultiplier weighs an outage's cost by severity
func (s Severity) CostMultiplier() float64 {
	switch s {
	case SeverityLow:
		return 0.5
	case SeverityHigh:
		return 2.0
	case SeverityCritical:
		return 4.0
	default:
		return 1.0
	}
}

// Rank orders severities from LOW (1) to CRITICAL (4)
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 2
	}
}

// RecoveryMinutes is the expected time to restore a sector after an outage of this severity
func (s Severity) RecoveryMinutes() int {
	switch s {
	case SeverityLow:
		return 15
	case SeverityHigh:
		return 60
	case SeverityCritical:
		return 120
	default:
		return 30
	}
}

// SectorStatus is the operational state reported for a sector
type SectorStatus string

const (
	SectorStatusNormal   SectorStatus = "NORMAL"
	SectorStatusWarning  SectorStatus = "WARNING"
	SectorStatusCritical SectorStatus = "CRITICAL"
	SectorStatusOffline  SectorStatus = "OFFLINE"
)

// Valid reports whether s is one of the known statuses
func (s SectorStatus) Valid() bool {
	switch s {
	case SectorStatusNormal, SectorStatusWarning, SectorStatusCritical, SectorStatusOffline:
		return true
	default:
		return false
	}
}

// Normalize returns s, or NORMAL when s is unknown
func (s SectorStatus) Normalize() SectorStatus {
	if s.Valid() {
		return s
	}
	return SectorStatusNormal
}

// OperationalImpact maps a sector status to its impact tier
func (s SectorStatus) OperationalImpact() Severity {
	switch s {
	case SectorStatusCritical, SectorStatusOffline:
		return SeverityCritical
	case SectorStatusWarning:
		return SeverityHigh
	case SectorStatusNormal:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// RegionType is the kind of location value stored in a HospitalRegion
type RegionType string

const (
	RegionTypeBairro RegionType = "BAIRRO"
	RegionTypeCidade RegionType = "CIDADE"
	RegionTypeCEP    RegionType = "CEP"
)

// Valid reports whether t is one of the known region types
func (t RegionType) Valid() bool {
	switch t {
	case RegionTypeBairro, RegionTypeCidade, RegionTypeCEP:
		return true
	default:
		return false
	}
}
