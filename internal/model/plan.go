package model

import "time"

// Plan is the combined result for one period.
type Plan struct {
	ID             string         `json:"id"`
	Period         Period         `json:"period"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Forecast       Forecast       `json:"forecast"`
	Demand         ResourceDemand `json:"demanda"`
	Inventory      *Inventory     `json:"inventario,omitempty"`
	Gap            *GapReport     `json:"gap,omitempty"`
	Kpis           KpiSet         `json:"kpis"`
	Breakdown      Breakdown      `json:"desglose"`
	Utilization    *Utilization   `json:"utilizacion,omitempty"`
	InventoryError string         `json:"inventory_error,omitempty"`
}

// Degraded reports whether the plan was computed without inventory.
func (p *Plan) Degraded() bool {
	return p.Gap == nil
}

// ChangeKind identifies what a history entry changed.
type ChangeKind string

// Change kinds.
const (
	ChangeRatio     ChangeKind = "CONFIGURACION"
	ChangeInventory ChangeKind = "RECURSO"
)

// Change is one entry of the append-only change history.
type Change struct {
	ID        string     `json:"id"`
	Kind      ChangeKind `json:"tipo_registro"`
	Record    string     `json:"registro"`
	Field     string     `json:"campo"`
	OldValue  string     `json:"valor_anterior"`
	NewValue  string     `json:"valor_nuevo"`
	User      string     `json:"usuario"`
	Reason    string     `json:"motivo,omitempty"`
	ChangedAt time.Time  `json:"changed_at"`
}

// PlanRun summarizes a stored plan.
type PlanRun struct {
	ID          string    `json:"id"`
	Period      Period    `json:"period"`
	State       string    `json:"state"`
	GeneratedAt time.Time `json:"generated_at"`
}
