package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/config"
	"github.com/monsefu/resplan/internal/tui/components"
	"github.com/monsefu/resplan/internal/tui/theme"
)

func (a App) renderParametersTab(cw int) string {
	t := theme.Active
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render("Edit with `resplan ratios set CATEGORY.param=value`, then press r.")
	return components.ContentCard("", cli.RenderRatiosUsed(a.plan.Demand.RatiosUsed)+hint, cw)
}

func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}
