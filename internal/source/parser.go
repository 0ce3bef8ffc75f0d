// Package source decodes forecast, inventory and ratio payloads from the
// municipal API or from local files.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/monsefu/resplan/internal/engine"
	"github.com/monsefu/resplan/internal/model"
)

// ErrRejected is returned when the envelope reports success=false.
var ErrRejected = errors.New("source: upstream rejected request")

// Unwrap strips the {success, data, error} envelope when present.
func Unwrap(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Success == nil {
		return trimmed, nil //nolint:nilerr // not an envelope, treat as bare payload
	}
	if !*env.Success {
		if env.Error == "" {
			return nil, ErrRejected
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, env.Error)
	}
	return env.Data, nil
}

// DecodeForecast parses a forecast payload. A zero year/month in the payload is
// filled from want; a conflicting period is an error.
func DecodeForecast(body []byte, want model.Period) (model.Forecast, error) {
	data, err := Unwrap(body)
	if err != nil {
		return model.Forecast{}, err
	}
	var raw RawForecast
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Forecast{}, fmt.Errorf("parsing forecast: %w", err)
	}

	f := model.Forecast{Period: model.Period{Year: raw.Year, Month: raw.Month}}
	if f.Period.Year == 0 && f.Period.Month == 0 {
		f.Period = want
	} else if want != (model.Period{}) && f.Period != want {
		return model.Forecast{}, fmt.Errorf("forecast is for %s, requested %s", f.Period, want)
	}

	if f.Complaints, err = parseCounts("denuncias", raw.Denuncias); err != nil {
		return model.Forecast{}, err
	}
	if f.Emergencies, err = parseCounts("emergencias", raw.Emergencias); err != nil {
		return model.Forecast{}, err
	}
	return f, nil
}

func parseCounts(field string, raw map[string]json.RawMessage) (map[model.TypeCode]float64, error) {
	counts := make(map[model.TypeCode]float64, len(raw))
	for key, v := range raw {
		code, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: type code %q is not an integer", field, key)
		}
		n, ok := parseNumber(v)
		if !ok {
			return nil, &engine.InvalidForecastError{
				Field: field,
				Code:  model.TypeCode(code),
				Value: math.NaN(),
				Err:   engine.ErrNonNumeric,
			}
		}
		counts[model.TypeCode(code)] = n
	}
	return counts, nil
}

// parseNumber accepts a JSON number or a numeric string such as "15.00".
func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// timestampLayouts covers RFC 3339 and the zone-less ISO form the API emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DecodeInventory parses the flat inventory record. Missing counts are zero;
// negative or fractional counts are errors. Unknown keys are ignored.
func DecodeInventory(body []byte) (model.Inventory, error) {
	data, err := Unwrap(body)
	if err != nil {
		return model.Inventory{}, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Inventory{}, fmt.Errorf("parsing inventory: %w", err)
	}

	var inv model.Inventory
	for _, item := range model.InventoryItems {
		v, ok := raw[item.Name]
		if !ok || string(v) == "null" {
			continue
		}
		n, ok := parseNumber(v)
		if !ok || n < 0 || n != math.Trunc(n) {
			return model.Inventory{}, fmt.Errorf("parsing inventory: %s = %s is not a non-negative integer", item.Name, v)
		}
		inv.Set(item.Name, int(n))
	}
	if v, ok := raw["ultima_actualizacion"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if t, ok := parseTimestamp(s); ok {
				inv.UpdatedAt = t
			}
		}
	}
	return inv, nil
}

// DecodeRatios parses either the nested {CATEGORY: {param: value}} table or a
// list of ratio rows.
func DecodeRatios(body []byte) (model.OperationalRatios, error) {
	data, err := Unwrap(body)
	if err != nil {
		return model.OperationalRatios{}, err
	}
	if len(data) > 0 && data[0] == '[' {
		rows, err := DecodeRatioRows(data)
		if err != nil {
			return model.OperationalRatios{}, err
		}
		return model.RatiosFromRows(rows).Ratios(), nil
	}

	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.OperationalRatios{}, fmt.Errorf("parsing ratios: %w", err)
	}
	table := model.RatioTable{}
	for cat, params := range raw {
		table[cat] = map[string]float64{}
		for name, v := range params {
			n, ok := parseRatioValue(v)
			if !ok {
				return model.OperationalRatios{}, fmt.Errorf("parsing ratios: %s.%s = %s is not numeric", cat, name, v)
			}
			table[cat][name] = n
		}
	}
	return table.Ratios(), nil
}

// parseRatioValue also accepts the {"valor": x, ...} detail form.
func parseRatioValue(raw json.RawMessage) (float64, bool) {
	if n, ok := parseNumber(raw); ok {
		return n, true
	}
	var detail struct {
		Valor json.RawMessage `json:"valor"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil {
		return parseNumber(detail.Valor)
	}
	return 0, false
}

// DecodeRatioRows parses a list of stored ratio rows.
func DecodeRatioRows(data []byte) ([]model.RatioRow, error) {
	var raw []RawRatioRow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing ratio rows: %w", err)
	}
	rows := make([]model.RatioRow, 0, len(raw))
	for _, r := range raw {
		v, ok := parseNumber(r.Valor)
		if !ok {
			return nil, fmt.Errorf("parsing ratio rows: %s.%s has non-numeric valor %s", r.Categoria, r.NombreParametro, r.Valor)
		}
		rows = append(rows, model.RatioRow{
			Category:    r.Categoria,
			Subcategory: r.Subcategoria,
			Parameter:   r.NombreParametro,
			Value:       v,
			Description: r.Descripcion,
			Unit:        r.Unidad,
			Editable:    r.Editable == nil || *r.Editable,
		})
	}
	return rows, nil
}
