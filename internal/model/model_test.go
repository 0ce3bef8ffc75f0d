package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2027-03")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2027, Month: 3}, p)
	assert.Equal(t, "2027-03", p.String())

	for _, bad := range []string{"", "2027", "2027-13", "2027-00", "abcd-01"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParsePeriod(bad)
			assert.Error(t, err)
		})
	}
}

func TestPeriodAddMonths(t *testing.T) {
	p := Period{Year: 2026, Month: 11}
	assert.Equal(t, Period{Year: 2026, Month: 12}, p.AddMonths(1))
	assert.Equal(t, Period{Year: 2027, Month: 1}, p.AddMonths(2))
	assert.Equal(t, Period{Year: 2025, Month: 12}, p.AddMonths(-11))
}

func TestRatioTableAlias(t *testing.T) {
	table := RatioTable{
		"SERENO": {"llamadas_mes": 15, "casos_mes": 8},
		"TIEMPO": {"horas_caso": 2, "dias_laborables_mes": 22},
	}
	r := table.Ratios()

	require.NotNil(t, r.Time)
	require.NotNil(t, r.Time.WorkableDaysPerMonth)
	assert.Equal(t, 22.0, *r.Time.WorkableDaysPerMonth)
	assert.Nil(t, r.Budget)
	assert.Equal(t, 15.0, *r.Roles[RoleSereno].CallsPerMonth)

	back := r.Table()
	assert.Equal(t, 22.0, back[CategoryTime][ParamWorkableDays])
	assert.Equal(t, 8.0, back["SERENO"]["casos_mes"])
}

func TestRatiosFromRows(t *testing.T) {
	rows := []RatioRow{
		{Category: "POLICIA", Parameter: "llamadas_mes", Value: 20},
		{Category: "POLICIA", Parameter: "llamadas_mes", Value: 25},
	}
	assert.Equal(t, 25.0, RatiosFromRows(rows)["POLICIA"]["llamadas_mes"])
}

func TestInventoryAccessors(t *testing.T) {
	var inv Inventory
	assert.True(t, inv.Set("ambulancias", 8))
	assert.False(t, inv.Set("helicopteros", 1))

	v, ok := inv.Get("ambulancias")
	assert.True(t, ok)
	assert.Equal(t, 8, v)
	assert.Equal(t, 8, inv.VehicleTotal())
	assert.Equal(t, "Ambulancias", InventoryLabel("ambulancias"))
}

func TestComplaintName(t *testing.T) {
	assert.Equal(t, "Ruidos molestos", ComplaintName(1))
	assert.Equal(t, "Código 42", ComplaintName(42))
}
