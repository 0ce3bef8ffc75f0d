package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/monsefu/resplan/internal/model"
)

// SeedRatioRows is the reference ratio set written by "resplan ratios reset".
// It is never used as a fallback for missing configuration.
var SeedRatioRows = []model.RatioRow{
	seed("SERENO", "CAPACIDAD", "llamadas_mes", 15, "Llamadas de emergencia que atiende un sereno al mes", "llamadas/mes"),
	seed("SERENO", "CAPACIDAD", "casos_mes", 8, "Casos de denuncia que gestiona un sereno al mes", "casos/mes"),
	seed("POLICIA", "CAPACIDAD", "llamadas_mes", 20, "Llamadas de emergencia que atiende un policía al mes", "llamadas/mes"),
	seed("POLICIA", "CAPACIDAD", "casos_mes", 12, "Casos administrativos que gestiona un policía al mes", "casos/mes"),
	seed("BOMBERO", "CAPACIDAD", "llamadas_mes", 30, "Llamadas que atiende un bombero al mes", "llamadas/mes"),
	seed("BOMBERO", "CAPACIDAD", "casos_mes", 5, "Casos de prevención que gestiona un bombero al mes", "casos/mes"),
	seed("AMBULANCIA", "CAPACIDAD", "llamadas_mes", 25, "Llamadas médicas que atiende una ambulancia al mes", "llamadas/mes"),
	seed("AMBULANCIA", "OPERACION", "turnos_dia", 3, "Turnos diarios de 8 horas por ambulancia", "turnos/día"),
	seed("VEHICULO_SERENAZGO", "CAPACIDAD", "llamadas_mes", 50, "Llamadas que cubre un vehículo de serenazgo al mes", "llamadas/mes"),
	seed("VEHICULO_POLICIA", "CAPACIDAD", "llamadas_mes", 60, "Llamadas que cubre una patrulla policial al mes", "llamadas/mes"),
	seed("VEHICULO_BOMBEROS", "CAPACIDAD", "llamadas_mes", 40, "Emergencias que atiende un camión de bomberos al mes", "llamadas/mes"),
	seed("PRESUPUESTO", "OPERATIVO", "costo_caso", 50, "Costo operativo promedio por caso atendido", "soles/caso"),
	seed("PRESUPUESTO", "OPERATIVO", "overhead", 1.15, "Factor de overhead operativo", "multiplicador"),
	seed("TIEMPO", "LABORAL", "horas_caso", 2, "Horas-hombre promedio por caso", "horas/caso"),
	seed("TIEMPO", "LABORAL", "dias_laborables", 22, "Días laborables al mes", "días/mes"),
	seed("TIEMPO", "LABORAL", "horas_turno", 8, "Horas por turno de trabajo", "horas/turno"),
}

func seed(cat, sub, param string, v float64, desc, unit string) model.RatioRow {
	return model.RatioRow{
		Category:    cat,
		Subcategory: sub,
		Parameter:   param,
		Value:       v,
		Description: desc,
		Unit:        unit,
		Editable:    true,
	}
}

// LoadRatiosFile reads a ratio table from a TOML file of the form
//
//	[SERENO]
//	llamadas_mes = 15
//	casos_mes = 8
func LoadRatiosFile(path string) (model.RatioTable, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied ratio file
	if err != nil {
		return nil, fmt.Errorf("reading ratio file: %w", err)
	}
	var table model.RatioTable
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing ratio file %s: %w", path, err)
	}
	return table, nil
}

// WriteRatiosFile writes a ratio table in the format LoadRatiosFile reads.
func WriteRatiosFile(path string, table model.RatioTable) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // user-supplied path
	if err != nil {
		return fmt.Errorf("creating ratio file: %w", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(table)
}

// TableRows expands a ratio table into rows, using seed metadata where a row
// with the same category and parameter exists.
func TableRows(table model.RatioTable) []model.RatioRow {
	var rows []model.RatioRow
	for cat, params := range table {
		for param, v := range params {
			row := model.RatioRow{Category: cat, Subcategory: "GENERAL", Parameter: param, Value: v, Editable: true}
			for _, s := range SeedRatioRows {
				if s.Category == cat && s.Parameter == param {
					row.Subcategory, row.Description, row.Unit = s.Subcategory, s.Description, s.Unit
					break
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}
