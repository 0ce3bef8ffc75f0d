package source

import "encoding/json"

// Envelope is the {success, data, error} wrapper the municipal API puts around payloads.
type Envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// RawForecast is a forecast payload before count validation.
// Counts may arrive as numbers or numeric strings.
type RawForecast struct {
	Year        int                        `json:"year"`
	Month       int                        `json:"month"`
	Denuncias   map[string]json.RawMessage `json:"denuncias"`
	Emergencias map[string]json.RawMessage `json:"emergencias"`
}

// RawRatioRow is a stored ratio row; valor is often a decimal string.
type RawRatioRow struct {
	Categoria       string          `json:"categoria"`
	Subcategoria    string          `json:"subcategoria"`
	NombreParametro string          `json:"nombre_parametro"`
	Valor           json.RawMessage `json:"valor"`
	Descripcion     string          `json:"descripcion"`
	Unidad          string          `json:"unidad"`
	Editable        *bool           `json:"editable"`
}
