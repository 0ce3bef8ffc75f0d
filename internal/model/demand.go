package model

// PersonnelDemand is required staff per role.
type PersonnelDemand struct {
	Serenos        int `json:"serenos"`
	Policias       int `json:"policias"`
	Bomberos       int `json:"bomberos"`
	ComplaintStaff int `json:"personal_denuncias"`
}

// Total includes complaint staff.
func (p PersonnelDemand) Total() int {
	return p.Serenos + p.Policias + p.Bomberos + p.ComplaintStaff
}

// VehicleDemand is required vehicles per class.
type VehicleDemand struct {
	Serenazgo   int `json:"vehiculos_serenazgo"`
	Policia     int `json:"vehiculos_policia"`
	Bomberos    int `json:"vehiculos_bomberos"`
	Ambulancias int `json:"ambulancias"`
}

// Total sums every vehicle class.
func (v VehicleDemand) Total() int {
	return v.Serenazgo + v.Policia + v.Bomberos + v.Ambulancias
}

// Service is a responding service.
type Service string

// Responding services.
const (
	ServicePolice    Service = "policia"
	ServicePatrol    Service = "serenazgo"
	ServiceAmbulance Service = "ambulancia"
	ServiceFire      Service = "bomberos"
)

// ServiceLoad is forecast emergency volume per responding service.
type ServiceLoad struct {
	Police    float64 `json:"policia"`
	Patrol    float64 `json:"serenazgo"`
	Ambulance float64 `json:"ambulancia"`
	Fire      float64 `json:"bomberos"`
}

// RatiosUsed records the ratio values a demand was computed with.
type RatiosUsed struct {
	SerenoCallsPerMonth    float64 `json:"sereno_llamadas_mes"`
	SerenoCasesPerMonth    float64 `json:"sereno_casos_mes"`
	PoliciaCallsPerMonth   float64 `json:"policia_llamadas_mes"`
	BomberoCallsPerMonth   float64 `json:"bombero_llamadas_mes"`
	AmbulanceCallsPerMonth float64 `json:"ambulancia_llamadas_mes"`
	PatrolCarCallsPerMonth float64 `json:"vehiculo_serenazgo_llamadas_mes"`
	PoliceCarCallsPerMonth float64 `json:"vehiculo_policia_llamadas_mes"`
	FireTruckCallsPerMonth float64 `json:"vehiculo_bomberos_llamadas_mes"`
	CostPerCase            float64 `json:"costo_caso"`
	Overhead               float64 `json:"overhead"`
	HoursPerCase           float64 `json:"horas_caso"`
	WorkableDaysPerMonth   float64 `json:"dias_laborables"`
}

// ResourceDemand is the resources a forecast requires.
type ResourceDemand struct {
	Personnel            PersonnelDemand `json:"personal"`
	Vehicles             VehicleDemand   `json:"vehiculos"`
	Budget               int64           `json:"presupuesto_mensual"`
	LaborHours           float64         `json:"horas_hombre"`
	TotalCases           float64         `json:"casos_totales"`
	TotalComplaints      float64         `json:"total_denuncias"`
	TotalEmergencies     float64         `json:"total_emergencias"`
	UnmappedEmergencies  float64         `json:"emergencias_sin_servicio"`
	EmergenciesByService ServiceLoad     `json:"emergencias_por_servicio"`
	RatiosUsed           RatiosUsed      `json:"configuraciones_usadas"`
}
