package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/pipeline"
)

var flagRangeMonths int

var rangeCmd = &cobra.Command{
	Use:   "range [YYYY-MM]",
	Short: "Plan consecutive months (default: from next month)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRange,
}

func init() {
	rangeCmd.Flags().IntVarP(&flagRangeMonths, "months", "m", 6, "Number of months to plan")
	rootCmd.AddCommand(rangeCmd)
}

// rangeMonth is the JSON form of one planned month.
type rangeMonth struct {
	Period model.Period   `json:"period"`
	State  pipeline.State `json:"state"`
	Plan   *model.Plan    `json:"plan,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func runRange(cmd *cobra.Command, args []string) error {
	from, err := periodArg(args)
	if err != nil {
		return err
	}
	if flagRangeMonths < 1 || flagRangeMonths > 24 {
		return fmt.Errorf("--months must be 1..24, got %d", flagRangeMonths)
	}
	if last := from.AddMonths(flagRangeMonths - 1); pipeline.ValidatePeriod(last) != nil {
		return fmt.Errorf("range ends at %s, past the supported years %d..%d", last, pipeline.MinYear, pipeline.MaxYear)
	}

	env, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer env.Close()

	results := env.planner.PlanRange(cmd.Context(), from, flagRangeMonths, func(current, total int) {
		progressf("\r  Planning %s", cli.RenderProgressBar(current, total, 20))
	})
	progressf("\n")

	if flagJSON {
		out := make([]rangeMonth, 0, len(results))
		for _, r := range results {
			m := rangeMonth{Period: r.Period, State: r.State(), Plan: r.Plan}
			if r.Err != nil {
				m.Error = r.Err.Error()
			}
			out = append(out, m)
		}
		return printJSON(out)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RESOURCE PLAN  %s + %d months", cli.FormatPeriod(from), flagRangeMonths-1)))
	fmt.Println()

	rows := make([][]string, 0, len(results))
	cases := make([]float64, 0, len(results))
	var failures []pipeline.Result
	for _, r := range results {
		row := []string{r.Period.String(), string(r.State()), "-", "-", "-", "-", "-"}
		if r.Plan != nil {
			d := r.Plan.Demand
			row[2] = cli.FormatCount(d.TotalCases)
			row[3] = cli.FormatNumber(int64(d.Personnel.Total()))
			row[4] = cli.FormatNumber(int64(d.Vehicles.Total()))
			row[5] = cli.FormatSoles(float64(d.Budget))
			if r.Plan.Gap != nil {
				row[6] = cli.FormatGap(r.Plan.Gap.PersonnelTotalGap)
			}
			cases = append(cases, d.TotalCases)
		} else {
			failures = append(failures, r)
		}
		rows = append(rows, row)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "State", "Cases", "Personnel", "Vehicles", "Budget", "Staff Gap"},
		Rows:    rows,
	}))

	if len(cases) > 1 {
		fmt.Printf("\n  Cases  %s\n", cli.RenderSparkline(cases))
	}

	s := pipeline.Summarize(results)
	fmt.Println()
	fmt.Println(cli.RenderKV("Months planned", fmt.Sprintf("%d of %d", s.Months-s.Failed, s.Months)))
	fmt.Println(cli.RenderKV("Complete/degraded/failed", fmt.Sprintf("%d / %d / %d", s.Complete, s.Degraded, s.Failed)))
	if s.Complete > 0 {
		fmt.Println(cli.RenderKV("Months with deficit", fmt.Sprintf("%d", s.DeficitMonths)))
	}
	fmt.Println(cli.RenderKV("Total cases", cli.FormatCount(s.TotalCases)))
	fmt.Println(cli.RenderKV("Total budget", cli.FormatSoles(float64(s.TotalBudget))))
	fmt.Println(cli.RenderKV("Total labor hours", cli.FormatHours(s.TotalLaborHours)))
	if s.PeakPersonnel > 0 {
		fmt.Println(cli.RenderKV("Peak personnel", fmt.Sprintf("%s (%s)", cli.FormatNumber(int64(s.PeakPersonnel)), cli.FormatPeriod(s.PeakPeriod))))
		fmt.Println(cli.RenderKV("Peak vehicles", cli.FormatNumber(int64(s.PeakVehicles))))
	}

	if len(failures) > 0 {
		fmt.Println()
		for _, r := range failures {
			msg := "no data"
			if r.Err != nil {
				msg = r.Err.Error()
			}
			fmt.Println(cli.RenderBanner(cli.BannerFail, r.Period.String()+": "+msg))
		}
	}
	fmt.Println()
	return nil
}
