package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/pipeline"
)

var flagPlanSave bool

var planCmd = &cobra.Command{
	Use:   "plan [YYYY-MM]",
	Short: "Resource plan for a month (default: next month)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlan,
}

var demandCmd = &cobra.Command{
	Use:   "demand [YYYY-MM]",
	Short: "Required personnel, vehicles and budget, without the inventory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDemand,
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown [YYYY-MM]",
	Short: "Per-type volumes, shift distribution and utilization",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBreakdown,
}

func init() {
	planCmd.Flags().BoolVar(&flagPlanSave, "save", false, "Store the plan in the local database")
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(demandCmd)
	rootCmd.AddCommand(breakdownCmd)
}

// computePlan plans one month and stores it when save is set.
func computePlan(cmd *cobra.Command, args []string, opts envOptions, save bool) (*model.Plan, error) {
	period, err := periodArg(args)
	if err != nil {
		return nil, err
	}

	env, err := openEnv(envOptions{withStore: save || opts.withStore, noInventory: opts.noInventory})
	if err != nil {
		return nil, err
	}
	defer env.Close()

	progressf("  Planning %s...\n", cli.FormatPeriod(period))
	plan, err := env.planner.Plan(cmd.Context(), period)
	state := pipeline.StateOf(plan, err)

	if save && plan != nil {
		prev, _ := env.store.LatestPlan(cmd.Context(), period)
		if serr := env.store.SavePlan(cmd.Context(), plan, string(state)); serr != nil {
			return plan, fmt.Errorf("saving plan: %w", serr)
		}
		progressf("  Saved plan %s (%s)\n", plan.ID, state)
		if prev != nil {
			progressf("  Since last run: budget %s, personnel %s, vehicles %s\n",
				cli.FormatDelta(float64(plan.Demand.Budget), float64(prev.Demand.Budget)),
				cli.FormatDelta(float64(plan.Demand.Personnel.Total()), float64(prev.Demand.Personnel.Total())),
				cli.FormatDelta(float64(plan.Demand.Vehicles.Total()), float64(prev.Demand.Vehicles.Total())))
		}
	}
	return plan, err
}

func runPlan(cmd *cobra.Command, args []string) error {
	plan, err := computePlan(cmd, args, envOptions{}, flagPlanSave)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(plan)
	}
	fmt.Println()
	fmt.Print(cli.RenderPlan(plan))
	return nil
}

func runDemand(cmd *cobra.Command, args []string) error {
	plan, err := computePlan(cmd, args, envOptions{noInventory: true}, false)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(plan.Demand)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("RESOURCE DEMAND  " + cli.FormatPeriod(plan.Period)))
	fmt.Println()
	fmt.Print(cli.RenderDemand(plan.Demand))
	fmt.Print(cli.RenderRatiosUsed(plan.Demand.RatiosUsed))
	return nil
}

func runBreakdown(cmd *cobra.Command, args []string) error {
	plan, err := computePlan(cmd, args, envOptions{}, false)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(struct {
			Period      model.Period       `json:"period"`
			Breakdown   model.Breakdown    `json:"desglose"`
			Utilization *model.Utilization `json:"utilizacion,omitempty"`
		}{plan.Period, plan.Breakdown, plan.Utilization})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("FORECAST BREAKDOWN  " + cli.FormatPeriod(plan.Period)))
	fmt.Println()
	fmt.Print(cli.RenderBreakdown(plan.Breakdown, plan.Utilization))
	return nil
}
