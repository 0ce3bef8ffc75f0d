package cmd

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/monsefu/resplan/internal/config"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/tui"
	"github.com/monsefu/resplan/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [YYYY-MM]",
	Short: "Launch the interactive plan viewer",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	period, err := periodArg(args)
	if err != nil {
		return err
	}
	env, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	planner := &reloadingPlanner{env: env}
	defer planner.Close()

	theme.SetActive(env.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	if env.cfg.Appearance.Color && !flagNoColor {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}

	app := tui.NewApp(planner, period, tui.Options{
		Refresh:   planner.Reload,
		NeedSetup: !config.Exists(),
		Timeout:   3 * env.cfg.Timeout(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// reloadingPlanner rebuilds its sources from the config file on Reload, so
// edits made in the setup form or by other commands apply without a restart.
type reloadingPlanner struct {
	mu      sync.Mutex
	env     *planEnv
	retired []*planEnv
}

func (r *reloadingPlanner) Plan(ctx context.Context, period model.Period) (*model.Plan, error) {
	r.mu.Lock()
	planner := r.env.planner
	r.mu.Unlock()
	return planner.Plan(ctx, period)
}

// Reload reopens the sources. If the new config cannot be used the current
// sources are kept with their caches dropped.
func (r *reloadingPlanner) Reload() {
	env, err := openEnv(envOptions{})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.env.Refresh()
		return
	}
	// A plan may still be running on the old sources; close them on exit.
	r.retired = append(r.retired, r.env)
	r.env = env
}

func (r *reloadingPlanner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.retired {
		e.Close()
	}
	r.env.Close()
}
