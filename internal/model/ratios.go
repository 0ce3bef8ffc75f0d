package model

import "time"

// RoleKey names a ratio category for a staff role or vehicle class.
type RoleKey string

// Role and vehicle ratio categories.
const (
	RoleSereno            RoleKey = "SERENO"
	RolePolicia           RoleKey = "POLICIA"
	RoleBombero           RoleKey = "BOMBERO"
	RoleAmbulancia        RoleKey = "AMBULANCIA"
	RoleVehiculoSerenazgo RoleKey = "VEHICULO_SERENAZGO"
	RoleVehiculoPolicia   RoleKey = "VEHICULO_POLICIA"
	RoleVehiculoBomberos  RoleKey = "VEHICULO_BOMBEROS"
)

// Non-role ratio categories and parameter names.
const (
	CategoryBudget = "PRESUPUESTO"
	CategoryTime   = "TIEMPO"

	ParamCallsPerMonth = "llamadas_mes"
	ParamCasesPerMonth = "casos_mes"
	ParamCostPerCase   = "costo_caso"
	ParamOverhead      = "overhead"
	ParamHoursPerCase  = "horas_caso"
	ParamWorkableDays  = "dias_laborables"

	// paramWorkableDaysAlt is the older name some stores still carry.
	paramWorkableDaysAlt = "dias_laborables_mes"
)

// RoleRatio is the monthly capacity of one unit of a role or vehicle class.
// Nil fields are absent from the source configuration.
type RoleRatio struct {
	CallsPerMonth *float64 `json:"llamadas_mes,omitempty"`
	CasesPerMonth *float64 `json:"casos_mes,omitempty"`
}

// BudgetRatio holds cost parameters.
type BudgetRatio struct {
	CostPerCase *float64 `json:"costo_caso,omitempty"`
	Overhead    *float64 `json:"overhead,omitempty"`
}

// TimeRatio holds labor time parameters.
type TimeRatio struct {
	HoursPerCase         *float64 `json:"horas_caso,omitempty"`
	WorkableDaysPerMonth *float64 `json:"dias_laborables,omitempty"`
}

// OperationalRatios is the full ratio configuration consumed by demand computation.
// There are no built-in defaults: anything missing here is missing.
type OperationalRatios struct {
	Roles  map[RoleKey]RoleRatio `json:"roles"`
	Budget *BudgetRatio          `json:"presupuesto,omitempty"`
	Time   *TimeRatio            `json:"tiempo,omitempty"`
}

// RatioTable is the nested {CATEGORY: {parameter: value}} form used on the wire and in files.
type RatioTable map[string]map[string]float64

// RatioRow is one stored ratio parameter.
type RatioRow struct {
	Category    string    `json:"categoria"`
	Subcategory string    `json:"subcategoria"`
	Parameter   string    `json:"nombre_parametro"`
	Value       float64   `json:"valor"`
	Description string    `json:"descripcion,omitempty"`
	Unit        string    `json:"unidad,omitempty"`
	Editable    bool      `json:"editable"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// RatiosFromRows folds stored rows into a table; later rows win.
func RatiosFromRows(rows []RatioRow) RatioTable {
	t := RatioTable{}
	for _, r := range rows {
		if t[r.Category] == nil {
			t[r.Category] = map[string]float64{}
		}
		t[r.Category][r.Parameter] = r.Value
	}
	return t
}

// Ratios converts a table into typed ratios. Unknown categories are ignored.
func (t RatioTable) Ratios() OperationalRatios {
	r := OperationalRatios{Roles: map[RoleKey]RoleRatio{}}
	for cat, params := range t {
		switch cat {
		case CategoryBudget:
			r.Budget = &BudgetRatio{
				CostPerCase: lookup(params, ParamCostPerCase),
				Overhead:    lookup(params, ParamOverhead),
			}
		case CategoryTime:
			days := lookup(params, ParamWorkableDays)
			if days == nil {
				days = lookup(params, paramWorkableDaysAlt)
			}
			r.Time = &TimeRatio{
				HoursPerCase:         lookup(params, ParamHoursPerCase),
				WorkableDaysPerMonth: days,
			}
		default:
			r.Roles[RoleKey(cat)] = RoleRatio{
				CallsPerMonth: lookup(params, ParamCallsPerMonth),
				CasesPerMonth: lookup(params, ParamCasesPerMonth),
			}
		}
	}
	return r
}

// Table converts typed ratios back to the nested form, omitting absent values.
func (r OperationalRatios) Table() RatioTable {
	t := RatioTable{}
	put := func(cat, param string, v *float64) {
		if v == nil {
			return
		}
		if t[cat] == nil {
			t[cat] = map[string]float64{}
		}
		t[cat][param] = *v
	}
	for key, rr := range r.Roles {
		put(string(key), ParamCallsPerMonth, rr.CallsPerMonth)
		put(string(key), ParamCasesPerMonth, rr.CasesPerMonth)
	}
	if r.Budget != nil {
		put(CategoryBudget, ParamCostPerCase, r.Budget.CostPerCase)
		put(CategoryBudget, ParamOverhead, r.Budget.Overhead)
	}
	if r.Time != nil {
		put(CategoryTime, ParamHoursPerCase, r.Time.HoursPerCase)
		put(CategoryTime, ParamWorkableDays, r.Time.WorkableDaysPerMonth)
	}
	return t
}

func lookup(params map[string]float64, name string) *float64 {
	v, ok := params[name]
	if !ok {
		return nil
	}
	return &v
}

// Float returns a pointer to v, for building ratios in code.
func Float(v float64) *float64 {
	return &v
}
