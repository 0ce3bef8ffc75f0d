package model

import "time"

// Inventory is the current municipal resource count.
type Inventory struct {
	Serenos            int       `json:"serenos"`
	Policias           int       `json:"policias"`
	Bomberos           int       `json:"bomberos"`
	VehiculosSerenazgo int       `json:"vehiculos_serenazgo"`
	VehiculosPolicia   int       `json:"vehiculos_policia"`
	VehiculosBomberos  int       `json:"vehiculos_bomberos"`
	Ambulancias        int       `json:"ambulancias"`
	Comisarias         int       `json:"comisarias"`
	EstacionesBomberos int       `json:"estaciones_bomberos"`
	CentrosSalud       int       `json:"centros_salud"`
	UpdatedAt          time.Time `json:"ultima_actualizacion"`
}

// InventoryItem names one inventory count.
type InventoryItem struct {
	Name  string
	Label string
	field func(*Inventory) *int
}

// InventoryItems lists the inventory counts in display order.
var InventoryItems = []InventoryItem{
	{"serenos", "Serenos", func(i *Inventory) *int { return &i.Serenos }},
	{"policias", "Policías", func(i *Inventory) *int { return &i.Policias }},
	{"bomberos", "Bomberos", func(i *Inventory) *int { return &i.Bomberos }},
	{"vehiculos_serenazgo", "Vehículos Serenazgo", func(i *Inventory) *int { return &i.VehiculosSerenazgo }},
	{"vehiculos_policia", "Vehículos Policía", func(i *Inventory) *int { return &i.VehiculosPolicia }},
	{"vehiculos_bomberos", "Vehículos Bomberos", func(i *Inventory) *int { return &i.VehiculosBomberos }},
	{"ambulancias", "Ambulancias", func(i *Inventory) *int { return &i.Ambulancias }},
	{"comisarias", "Comisarías", func(i *Inventory) *int { return &i.Comisarias }},
	{"estaciones_bomberos", "Estaciones de Bomberos", func(i *Inventory) *int { return &i.EstacionesBomberos }},
	{"centros_salud", "Centros de Salud", func(i *Inventory) *int { return &i.CentrosSalud }},
}

// Get returns the count stored under name.
func (i Inventory) Get(name string) (int, bool) {
	for _, it := range InventoryItems {
		if it.Name == name {
			return *it.field(&i), true
		}
	}
	return 0, false
}

// Set stores a count under name. It reports false for unknown names.
func (i *Inventory) Set(name string, v int) bool {
	for _, it := range InventoryItems {
		if it.Name == name {
			*it.field(i) = v
			return true
		}
	}
	return false
}

// PersonnelTotal sums the staff counts.
func (i Inventory) PersonnelTotal() int {
	return i.Serenos + i.Policias + i.Bomberos
}

// VehicleTotal sums the vehicle counts, ambulances included.
func (i Inventory) VehicleTotal() int {
	return i.VehiculosSerenazgo + i.VehiculosPolicia + i.VehiculosBomberos + i.Ambulancias
}

// InventoryLabel returns the display label for an inventory or resource name.
func InventoryLabel(name string) string {
	for _, it := range InventoryItems {
		if it.Name == name {
			return it.Label
		}
	}
	return name
}
