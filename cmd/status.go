package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/config"
	"github.com/monsefu/resplan/internal/municipal"
	"github.com/monsefu/resplan/internal/source"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that forecast, ratio and inventory sources respond",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// sourceCheck is the result of probing one upstream source.
type sourceCheck struct {
	Name    string        `json:"name"`
	Where   string        `json:"where"`
	Err     string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency_ns"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, tokenSource := config.GetAPIToken(cfg)
	period := nextPeriod()

	var client *municipal.Client
	if cfg.API.BaseURL != "" {
		client = newClient(cfg)
	}

	type probe struct {
		name  string
		where string
		run   func(ctx context.Context) error
	}
	var probes []probe

	switch {
	case cfg.General.ForecastDir != "":
		probes = append(probes, probe{"forecast " + period.String(), cfg.General.ForecastDir, func(ctx context.Context) error {
			_, err := source.Files{Path: cfg.General.ForecastDir}.FetchForecast(ctx, period)
			return err
		}})
	case client != nil:
		probes = append(probes, probe{"forecast " + period.String(), cfg.API.BaseURL, func(ctx context.Context) error {
			_, err := client.FetchForecast(ctx, period)
			return err
		}})
	}

	if cfg.General.DefaultSource == config.SourceLocal {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		probes = append(probes,
			probe{"ratios", dbPath(cfg), func(ctx context.Context) error {
				_, err := st.LoadRatios(ctx)
				return err
			}},
			probe{"inventory", dbPath(cfg), func(ctx context.Context) error {
				_, err := st.LoadInventory(ctx)
				return err
			}},
		)
	} else if client != nil {
		probes = append(probes,
			probe{"ratios", cfg.API.BaseURL, func(ctx context.Context) error {
				_, err := client.FetchRatios(ctx)
				return err
			}},
			probe{"inventory", cfg.API.BaseURL, func(ctx context.Context) error {
				_, err := client.FetchInventory(ctx)
				return err
			}},
		)
	}

	if len(probes) == 0 {
		fmt.Println()
		fmt.Println("  No sources configured.")
		fmt.Println()
		fmt.Println("  Configure the municipal API or a local database:")
		fmt.Println("    resplan setup                                   (interactive)")
		fmt.Println("    resplan --api-url http://host:5000 status        (one-shot)")
		fmt.Println()
		return nil
	}

	progressf("  Checking %d sources...\n", len(probes))
	checks := make([]sourceCheck, len(probes))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, p := range probes {
		i, p := i, p
		g.Go(func() error {
			start := time.Now()
			err := p.run(ctx)
			checks[i] = sourceCheck{Name: p.name, Where: p.where, Latency: time.Since(start)}
			if err != nil {
				checks[i].Err = describeSourceError(err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if flagJSON {
		return printJSON(checks)
	}

	okStyle := lipgloss.NewStyle().Foreground(cli.ColorGreen)
	failStyle := lipgloss.NewStyle().Foreground(cli.ColorRed)
	rows := make([][]string, 0, len(checks))
	failed := 0
	for _, c := range checks {
		result := okStyle.Render("ok")
		if c.Err != "" {
			result = failStyle.Render(c.Err)
			failed++
		}
		rows = append(rows, []string{c.Name, c.Where, result, fmt.Sprintf("%d ms", c.Latency.Milliseconds())})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SOURCE STATUS"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Source", "Location", "Result", "Latency"},
		Rows:    rows,
	}))
	if dir := cfg.General.ForecastDir; dir != "" {
		if periods, err := source.ScanDir(dir); err == nil && len(periods) > 0 {
			fmt.Println(cli.RenderKV("Forecast files", fmt.Sprintf("%d months, %s to %s",
				len(periods), periods[0], periods[len(periods)-1])))
		}
	}
	fmt.Println(cli.RenderKV("API token", string(tokenSource)))
	fmt.Println(cli.RenderKV("Cache TTL", cli.FormatDuration(int64(cfg.Cache.TTLSec))))
	fmt.Println()

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(checks))
	}
	return nil
}

func describeSourceError(err error) string {
	switch {
	case errors.Is(err, municipal.ErrUnauthorized):
		return "unauthorized: set a token with `resplan config set-token`"
	case errors.Is(err, municipal.ErrRateLimited):
		return "rate limited, try again in a minute"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	default:
		return err.Error()
	}
}
