package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/tui/components"
	"github.com/monsefu/resplan/internal/tui/theme"
)

func (a App) renderGapTab(cw int) string {
	t := theme.Active
	p := a.plan

	if p.Gap == nil || p.Inventory == nil {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		body := warn.Render("Inventory unavailable, showing demand only")
		if p.InventoryError != "" {
			body += "\n" + muted.Render(wrapText(p.InventoryError, components.CardInnerWidth(cw)))
		}
		return components.ContentCard("Inventory Gap", body, cw) + "\n" +
			components.ContentCard("", cli.RenderDemand(p.Demand), cw)
	}

	body := cli.RenderGap(p.Demand, *p.Inventory, p.Gap)
	if deficits := cli.RenderDeficits(p.Gap.CriticalDeficits); deficits != "" {
		body += deficits
	}
	return components.ContentCard("", body, cw)
}
