package derivation

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
)

const (
	costPerCriticalEquipment = 500.0
	defaultOutageMinutes     = 60
)

// SectorImpact is the per-sector row of the impact analysis
type SectorImpact struct {
	SectorID              string            `json:"sectorId"`
	Sector                string            `json:"sector"`
	CriticalEquipment     int               `json:"criticalEquipment"`
	AffectedPatients      int               `json:"affectedPatients"`
	FinancialImpact       float64           `json:"financialImpact"`
	OperationalImpact     entities.Severity `json:"operationalImpact"`
	EstimatedRecoveryTime int               `json:"estimatedRecoveryTime"`
	OutageCount           int               `json:"outageCount"`
	CurrentlyOffline      bool              `json:"currentlyOffline"`
}

// CostAnalysis splits the total estimated cost into fixed shares
type CostAnalysis struct {
	EquipmentDamage   float64 `json:"equipmentDamage"`
	LostRevenue       float64 `json:"lostRevenue"`
	EmergencyResponse float64 `json:"emergencyResponse"`
	PatientTransfer   float64 `json:"patientTransfer"`
	Total             float64 `json:"total"`
}

// PatientImpact is one risk bucket of affected patients
type PatientImpact struct {
	Category    string            `json:"category"`
	Count       int               `json:"count"`
	RiskLevel   entities.Severity `json:"riskLevel"`
	Description string            `json:"description"`
}

// ImpactAnalysis is the financial and patient impact of all recorded outages
type ImpactAnalysis struct {
	Sectors  []SectorImpact  `json:"sectors"`
	Costs    CostAnalysis    `json:"costs"`
	Patients []PatientImpact `json:"patients"`
}

// OutageCost estimates the cost of one outage of a sector with the given
// critical equipment count. Missing durations fall back to the estimate,
// then to one hour.
func OutageCost(outage entities.PowerOutage, criticalEquipment int) float64 {
	minutes := defaultOutageMinutes
	switch {
	case outage.Duration != nil:
		minutes = *outage.Duration
	case outage.EstimatedDuration != nil:
		minutes = *outage.EstimatedDuration
	}
	durationFactor := math.Max(1, float64(minutes)/60)
	return float64(criticalEquipment) * costPerCriticalEquipment * outage.Severity.CostMultiplier() * durationFactor
}

// patientFragments is scanned in order; the first fragment found in the
// folded sector name wins.
var patientFragments = []struct {
	fragment string
	patients int
}{
	{"uti", 20},
	{"centro cirurgico", 8},
	{"pronto socorro", 30},
	{"radiologia", 15},
	{"cardiologia", 12},
	{"neurologia", 10},
	{"pediatria", 25},
	{"maternidade", 18},
	{"laboratorio", 5},
	{"farmacia", 3},
}

// EstimateAffectedPatients looks the sector name up in the known department
// table, defaulting to two patients per critical equipment.
func EstimateAffectedPatients(sector entities.HospitalSector) int {
	name := foldName(sector.Name)
	for _, f := range patientFragments {
		if strings.Contains(name, f.fragment) {
			return f.patients
		}
	}
	return sector.CriticalEquipment * 2
}

func foldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(folded)
}

var patientBuckets = []PatientImpact{
	{Category: "Pacientes Críticos", RiskLevel: entities.SeverityCritical, Description: "Setores offline ou críticos - risco imediato à vida"},
	{Category: "Pacientes Alto Risco", RiskLevel: entities.SeverityHigh, Description: "Setores em alerta - procedimentos interrompidos"},
	{Category: "Pacientes Risco Médio", RiskLevel: entities.SeverityMedium, Description: "Monitoramento comprometido"},
	{Category: "Pacientes Estáveis", RiskLevel: entities.SeverityLow, Description: "Impacto mínimo nas operações"},
}

// ComputeImpactAnalysis estimates cost and patient risk across all sectors
func ComputeImpactAnalysis(sectors entities.SectorList) ImpactAnalysis {
	rows := make([]SectorImpact, 0, len(sectors))
	patientsByTier := make(map[entities.Severity]int)
	var total float64

	for _, s := range sectors {
		var cost float64
		for _, o := range s.PowerOutages {
			cost += OutageCost(o, s.CriticalEquipment)
		}

		recovery := entities.SeverityMedium.RecoveryMinutes()
		if s.CurrentOutage != nil {
			recovery = s.CurrentOutage.Severity.RecoveryMinutes()
		}

		row := SectorImpact{
			SectorID:              s.ID,
			Sector:                s.Name,
			CriticalEquipment:     s.CriticalEquipment,
			AffectedPatients:      EstimateAffectedPatients(s),
			FinancialImpact:       cost,
			OperationalImpact:     s.Status.OperationalImpact(),
			EstimatedRecoveryTime: recovery,
			OutageCount:           len(s.PowerOutages),
			CurrentlyOffline:      s.CurrentOutage != nil,
		}
		rows = append(rows, row)

		total += cost
		patientsByTier[row.OperationalImpact] += row.AffectedPatients
	}

	patients := make([]PatientImpact, 0, len(patientBuckets))
	for _, bucket := range patientBuckets {
		if count := patientsByTier[bucket.RiskLevel]; count > 0 {
			bucket.Count = count
			patients = append(patients, bucket)
		}
	}

	return ImpactAnalysis{
		Sectors: rows,
		Costs: CostAnalysis{
			EquipmentDamage:   total * 0.3,
			LostRevenue:       total * 0.5,
			EmergencyResponse: total * 0.1,
			PatientTransfer:   total * 0.1,
			Total:             total,
		},
		Patients: patients,
	}
}
