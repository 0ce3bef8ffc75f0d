// Package tui provides the interactive Bubble Tea plan viewer for resplan.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/pipeline"
	"github.com/monsefu/resplan/internal/tui/components"
	"github.com/monsefu/resplan/internal/tui/theme"
)

// Planner computes the plan for one month.
type Planner interface {
	Plan(ctx context.Context, period model.Period) (*model.Plan, error)
}

// PlanLoadedMsg is sent when a plan request finishes.
type PlanLoadedMsg struct {
	Period   model.Period
	Plan     *model.Plan
	Err      error
	LoadTime time.Duration
}

// Options configures the viewer.
type Options struct {
	// Refresh drops cached ratios and inventory before a reload and is also
	// called after the setup form saves. May be nil.
	Refresh func()
	// NeedSetup shows the setup form before the first plan.
	NeedSetup bool
	// Timeout bounds one plan request.
	Timeout time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	planner Planner
	opts    Options

	// Data
	period   model.Period
	plan     *model.Plan
	err      error
	loading  bool
	loadTime time.Duration
	loadedAt time.Time

	// UI state
	width     int
	height    int
	activeTab int
	scroll    int
	showHelp  bool

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool
	setupErr  error

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5

	defaultPlanTimeout = 90 * time.Second
)

// NewApp creates a viewer starting at period.
func NewApp(planner Planner, period model.Period, opts Options) App {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPlanTimeout
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		planner:   planner,
		opts:      opts,
		period:    period,
		loading:   true,
		needSetup: opts.NeedSetup,
		spinner:   sp,
	}
	if a.needSetup {
		a.setupVals = SetupValuesFrom(loadConfigOrDefault())
		a.setupForm = NewSetupForm(&a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
	}
	if a.needSetup {
		cmds = append(cmds, a.setupForm.Init())
	} else {
		cmds = append(cmds, loadPlanCmd(a.planner, a.period, a.opts.Timeout))
	}
	return tea.Batch(cmds...)
}

// State is the presentation state of the current period.
func (a App) State() pipeline.State {
	if a.loading {
		return ""
	}
	return pipeline.StateOf(a.plan, a.err)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case PlanLoadedMsg:
		if msg.Period != a.period {
			// A newer request superseded this one.
			return a, nil
		}
		a.loading = false
		a.plan = msg.Plan
		a.err = msg.Err
		a.loadTime = msg.LoadTime
		a.loadedAt = time.Now()
		a.scroll = 0
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.updateKey(msg)
	case tea.MouseMsg:
		return a.updateMouse(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "?":
		a.showHelp = true
		return a, nil
	case "n":
		return a.gotoPeriod(a.period.AddMonths(1))
	case "p":
		return a.gotoPeriod(a.period.AddMonths(-1))
	case "r":
		if a.opts.Refresh != nil {
			a.opts.Refresh()
		}
		return a.gotoPeriod(a.period)
	case "left", "h":
		a.activeTab = (a.activeTab + len(components.Tabs) - 1) % len(components.Tabs)
		a.scroll = 0
		return a, nil
	case "right", "l", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		a.scroll = 0
		return a, nil
	case "j", "down":
		a.scroll++
		return a, nil
	case "k", "up":
		if a.scroll > 0 {
			a.scroll--
		}
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
			a.scroll = 0
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelDown:
		a.scroll++
	case msg.Button == tea.MouseButtonWheelUp && a.scroll > 0:
		a.scroll--
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == 0:
		if idx := components.TabAtX(msg.X, a.activeTab); idx >= 0 {
			a.activeTab = idx
			a.scroll = 0
		}
	}
	return a, nil
}

// gotoPeriod starts loading period. Periods outside the supported range are
// rejected without a request.
func (a App) gotoPeriod(p model.Period) (tea.Model, tea.Cmd) {
	if err := pipeline.ValidatePeriod(p); err != nil {
		return a, nil
	}
	a.period = p
	a.loading = true
	a.plan = nil
	a.err = nil
	return a, tea.Batch(a.spinner.Tick, loadPlanCmd(a.planner, p, a.opts.Timeout))
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupErr = a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		if a.setupErr == nil && a.opts.Refresh != nil {
			a.opts.Refresh()
		}
		return a, loadPlanCmd(a.planner, a.period, a.opts.Timeout)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, loadPlanCmd(a.planner, a.period, a.opts.Timeout)
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	if a.loading {
		return a.viewLoading()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  resplan needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ resplan"))
	b.WriteString(subtitleStyle.Render(" · Resource Planning"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Planning " + cli.FormatPeriod(a.period) + "..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	bindings := []struct{ key, desc string }{
		{"o g b a", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Scroll"},
		{"n p", "Next / Previous month"},
		{"r", "Reload ratios, inventory and plan"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	periodStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)
	pillRow := lipgloss.NewStyle().Background(t.Surface).Width(w)

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		pillRow.Render(" "+periodStyle.Render(cli.FormatPeriod(a.period)))

	age := ""
	if !a.loadedAt.IsZero() {
		age = fmt.Sprintf("%.1fs", a.loadTime.Seconds())
	}
	statusBar := components.RenderStatusBar(w, string(a.State()), age)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.State() {
	case pipeline.StateFailed:
		content = a.renderFailed(cw)
	case pipeline.StateNoData:
		content = components.ContentCard("No data", "No plan is available for "+cli.FormatPeriod(a.period)+".", cw)
	default:
		content = a.renderTab(cw)
	}

	content = scrollLines(content, a.scroll)
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderTab(cw int) string {
	var body string
	switch a.activeTab {
	case 0:
		body = a.renderOverviewTab(cw)
	case 1:
		body = a.renderGapTab(cw)
	case 2:
		body = a.renderBreakdownTab(cw)
	case 3:
		body = a.renderParametersTab(cw)
	}
	if a.setupErr != nil {
		body = warnLine("Setup not saved: "+a.setupErr.Error()) + "\n" + body
	}
	return body
}

func (a App) renderFailed(cw int) string {
	t := theme.Active
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := errStyle.Render("Plan failed") + "\n\n" +
		wrapText(a.err.Error(), components.CardInnerWidth(cw)) + "\n\n" +
		hintStyle.Render("Press r to retry, n/p to change month.")
	return components.ContentCard(cli.FormatPeriod(a.period), body, cw)
}

// ─── Helpers ────────────────────────────────────────────────────

func loadPlanCmd(p Planner, period model.Period, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		plan, err := p.Plan(ctx, period)
		return PlanLoadedMsg{
			Period:   period,
			Plan:     plan,
			Err:      err,
			LoadTime: time.Since(start),
		}
	}
}

func warnLine(msg string) string {
	t := theme.Active
	return lipgloss.NewStyle().Foreground(t.Orange).Background(t.Background).Render(" ! " + msg)
}

func wrapText(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func scrollLines(s string, offset int) string {
	if offset <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if offset >= len(lines) {
		offset = len(lines) - 1
	}
	return strings.Join(lines[offset:], "\n")
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
