package model

// Priority levels used by breakdown lines.
const (
	PriorityHigh   = "ALTA"
	PriorityMedium = "MEDIA"
	PriorityLow    = "BAJA"
)

// ComplaintLine is the workload of one complaint type.
type ComplaintLine struct {
	Code     TypeCode `json:"codigo"`
	Name     string   `json:"nombre"`
	Count    float64  `json:"cantidad"`
	SharePct float64  `json:"porcentaje"`
	Staff    int      `json:"personal"`
	Hours    float64  `json:"horas"`
	Cost     float64  `json:"costo"`
	Priority string   `json:"prioridad"`
}

// EmergencyLine is the volume of one emergency type.
type EmergencyLine struct {
	Code     TypeCode `json:"codigo"`
	Name     string   `json:"nombre"`
	Service  Service  `json:"servicio,omitempty"`
	Count    float64  `json:"cantidad"`
	SharePct float64  `json:"porcentaje"`
}

// ShiftLoad is the estimated workload of one daily shift.
type ShiftLoad struct {
	Window         string  `json:"turno"`
	SharePct       float64 `json:"porcentaje"`
	EstimatedCases int     `json:"casos_estimados"`
	SuggestedStaff int     `json:"personal_sugerido"`
	Intensity      string  `json:"intensidad"`
}

// Efficiency holds per-case unit figures.
type Efficiency struct {
	CostPerCase  float64 `json:"costo_por_caso"`
	HoursPerCase float64 `json:"horas_por_caso"`
	DailyHours   float64 `json:"horas_diarias"`
}

// Breakdown details a forecast per type and shift.
type Breakdown struct {
	Complaints  []ComplaintLine `json:"denuncias"`
	Emergencies []EmergencyLine `json:"emergencias"`
	Shifts      []ShiftLoad     `json:"turnos"`
	Efficiency  Efficiency      `json:"eficiencia"`
}

// Utilization compares demand against inventory totals.
type Utilization struct {
	PersonnelPct     float64 `json:"utilizacion_personal"`
	VehiclePct       float64 `json:"utilizacion_vehicular"`
	SpareCapacityPct float64 `json:"capacidad_ociosa"`
}
