package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/tui/components"
	"github.com/monsefu/resplan/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	p := a.plan
	d := p.Demand
	var b strings.Builder

	// Row 1: Metric cards
	personnelNote := "no inventory"
	vehicleNote := "no inventory"
	var personnelTone, vehicleTone lipgloss.Color
	if p.Gap != nil {
		personnelNote = "gap " + cli.FormatGap(p.Gap.PersonnelTotalGap)
		vehicleNote = "gap " + cli.FormatGap(p.Gap.VehicleTotalGap)
		personnelTone = t.ForGap(p.Gap.PersonnelTotalGap)
		vehicleTone = t.ForGap(p.Gap.VehicleTotalGap)
	}
	metrics := []components.Metric{
		{Label: "Cases", Value: cli.FormatCount(d.TotalCases),
			Note: fmt.Sprintf("%s complaints", cli.FormatCount(d.TotalComplaints))},
		{Label: "Personnel", Value: cli.FormatNumber(int64(d.Personnel.Total())), Note: personnelNote, Tone: personnelTone},
		{Label: "Vehicles", Value: cli.FormatNumber(int64(d.Vehicles.Total())), Note: vehicleNote, Tone: vehicleTone},
		{Label: "Budget", Value: cli.FormatSoles(float64(d.Budget)), Note: cli.FormatHours(d.LaborHours)},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: KPIs | Status
	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard(kpiTitle(p.Kpis), renderKpiBars(p.Kpis, components.CardInnerWidth(halves[0])), halves[0]),
		components.ContentCard("Status", a.renderStatusBody(), halves[1]),
	}))
	return b.String()
}

func kpiTitle(k model.KpiSet) string {
	if k.Mode == model.KpiDefault {
		return "KPIs (defaults)"
	}
	return "KPIs"
}

func renderKpiBars(k model.KpiSet, innerW int) string {
	t := theme.Active
	const labelW = 22
	barW := max(innerW-labelW-8, 10)

	lines := []string{
		components.IndicatorBar("Personnel efficiency", k.PersonnelEfficiencyPct, components.ColorForCoverage, labelW, barW),
		components.IndicatorBar("Vehicle coverage", k.VehicleCoveragePct, components.ColorForCoverage, labelW, barW),
		components.IndicatorBar("Response capacity", k.ResponseCapacityPct, components.ColorForCoverage, labelW, barW),
	}
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	lines = append(lines, dim.Render(fmt.Sprintf("%-*s %.1f", labelW, "Cases per staff", k.CasesPerPersonnel)))
	return strings.Join(lines, "\n")
}

func (a App) renderStatusBody() string {
	t := theme.Active
	p := a.plan
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	state := a.State()
	stateStyle := lipgloss.NewStyle().Foreground(t.ForState(string(state))).Background(t.Surface).Bold(true)

	lines := []string{
		label.Render("State     ") + stateStyle.Render(strings.ToUpper(string(state))),
	}
	if p.Gap != nil {
		gapStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Bold(true)
		if p.Gap.Status == model.StatusDeficit {
			gapStyle = gapStyle.Foreground(t.Red)
		}
		lines = append(lines,
			label.Render("Inventory ")+gapStyle.Render(strings.ToUpper(string(p.Gap.Status))),
			label.Render("Critical  ")+value.Render(fmt.Sprintf("%d resources", len(p.Gap.CriticalDeficits))),
		)
	} else if p.InventoryError != "" {
		lines = append(lines, label.Render("Inventory ")+
			lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render(p.InventoryError))
	}
	if p.ID != "" {
		lines = append(lines, label.Render("Plan      ")+value.Render(p.ID))
	}
	if !p.GeneratedAt.IsZero() {
		lines = append(lines, label.Render("Generated ")+value.Render(p.GeneratedAt.Local().Format("2006-01-02 15:04")))
	}
	return strings.Join(lines, "\n")
}
