package model

// KpiMode tells whether KPIs were measured against inventory or defaulted.
type KpiMode string

// KPI modes.
const (
	KpiMeasured KpiMode = "measured"
	KpiDefault  KpiMode = "default"
)

// KpiSet holds plan performance indicators. Percentages lie in [0, 100].
type KpiSet struct {
	PersonnelEfficiencyPct float64 `json:"eficiencia_personal"`
	VehicleCoveragePct     float64 `json:"cobertura_vehicular"`
	ResponseCapacityPct    float64 `json:"capacidad_respuesta"`
	CasesPerPersonnel      float64 `json:"casos_por_personal"`
	Mode                   KpiMode `json:"modo"`
}
