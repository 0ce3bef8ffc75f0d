// Package model defines domain types for resplan forecasts, ratios, inventory and plans.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TypeCode identifies an incident type within a forecast.
type TypeCode int

// Emergency type codes produced by the forecasting model.
const (
	EmergencyPolice       TypeCode = 2
	EmergencyPatrol       TypeCode = 3
	EmergencyAmbulance    TypeCode = 4
	EmergencyFireIncident TypeCode = 5
	EmergencyFireRescue   TypeCode = 6
)

// EmergencyNames labels the known emergency codes.
var EmergencyNames = map[TypeCode]string{
	EmergencyPolice:       "Policía",
	EmergencyPatrol:       "Serenazgo",
	EmergencyAmbulance:    "Ambulancia",
	EmergencyFireIncident: "Bomberos Monsefú",
	EmergencyFireRescue:   "Bomberos Chiclayo",
}

// ComplaintNames labels complaint codes 1..12.
var ComplaintNames = map[TypeCode]string{
	1:  "Ruidos molestos",
	2:  "Bullying y violencia familiar",
	3:  "Ocupación vía pública",
	4:  "Parques y jardines",
	5:  "Limpieza pública",
	6:  "Negocios informales",
	7:  "Otros",
	8:  "Peleas y conflictos",
	9:  "Lluvias intensas",
	10: "Sismos",
	11: "Incendio urbano",
	12: "Riesgo de colapso",
}

// ComplaintName returns the label for a complaint code, "Código N" when unknown.
func ComplaintName(code TypeCode) string {
	if name, ok := ComplaintNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Código %d", code)
}

// EmergencyName returns the label for an emergency code, "Código N" when unknown.
func EmergencyName(code TypeCode) string {
	if name, ok := EmergencyNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Código %d", code)
}

// Period is a calendar month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	year, month, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	if m < 1 || m > 12 {
		return Period{}, fmt.Errorf("invalid period %q: month must be 1..12", s)
	}
	return Period{Year: y, Month: m}, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// AddMonths returns the period n months later (n may be negative).
func (p Period) AddMonths(n int) Period {
	idx := p.Year*12 + (p.Month - 1) + n
	return Period{Year: idx / 12, Month: idx%12 + 1}
}

// Forecast is the predicted incident volume for one month, keyed by type code.
type Forecast struct {
	Period      Period               `json:"period"`
	Complaints  map[TypeCode]float64 `json:"denuncias"`
	Emergencies map[TypeCode]float64 `json:"emergencias"`
}

// SortedCodes returns the keys of counts in ascending order.
func SortedCodes(counts map[TypeCode]float64) []TypeCode {
	codes := make([]TypeCode, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Sum adds counts in ascending code order so repeated calls agree bit for bit.
func Sum(counts map[TypeCode]float64) float64 {
	var total float64
	for _, c := range SortedCodes(counts) {
		total += counts[c]
	}
	return total
}
