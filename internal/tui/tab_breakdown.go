package tui

import (
	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/tui/components"
)

func (a App) renderBreakdownTab(cw int) string {
	return components.ContentCard("", cli.RenderBreakdown(a.plan.Breakdown, a.plan.Utilization), cw)
}
