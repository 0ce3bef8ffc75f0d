package model

// Category groups resources in a gap report.
type Category string

// Resource categories.
const (
	CategoryPersonnel Category = "Personnel"
	CategoryVehicles  Category = "Vehicles"
)

// GapStatus summarizes a gap report.
type GapStatus string

// Gap statuses.
const (
	StatusSufficient GapStatus = "sufficient"
	StatusDeficit    GapStatus = "deficit"
)

// PersonnelGap is inventory minus demand per role. Negative means short.
type PersonnelGap struct {
	Serenos  int `json:"serenos"`
	Policias int `json:"policias"`
	Bomberos int `json:"bomberos"`
}

// VehicleGap is inventory minus demand per vehicle class.
type VehicleGap struct {
	Serenazgo   int `json:"vehiculos_serenazgo"`
	Policia     int `json:"vehiculos_policia"`
	Bomberos    int `json:"vehiculos_bomberos"`
	Ambulancias int `json:"ambulancias"`
}

// CriticalDeficit is a resource short by more than the critical share of its requirement.
type CriticalDeficit struct {
	Category          Category `json:"categoria"`
	ResourceName      string   `json:"recurso"`
	DeficitAmount     int      `json:"deficit"`
	CurrentAmount     int      `json:"actual"`
	RequiredAmount    int      `json:"necesario"`
	DeficitPercentage float64  `json:"porcentaje_deficit"`
}

// GapReport compares demand against inventory.
type GapReport struct {
	Personnel          PersonnelGap      `json:"personal"`
	Vehicles           VehicleGap        `json:"vehiculos"`
	PersonnelTotalGap  int               `json:"gap_total_personal"`
	VehicleTotalGap    int               `json:"gap_total_vehiculos"`
	InventoryPersonnel int               `json:"inventario_personal"`
	InventoryVehicles  int               `json:"inventario_vehiculos"`
	Status             GapStatus         `json:"estado"`
	CriticalDeficits   []CriticalDeficit `json:"deficits_criticos"`
}
