package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/store"
)

var (
	flagHistoryKind   string
	flagHistoryRecord string
	flagHistoryLimit  int
	flagRunsLimit     int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the ratio and inventory change history",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored plans",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryKind, "kind", "", `Only "ratio" or "inventory" changes`)
	historyCmd.Flags().StringVar(&flagHistoryRecord, "record", "", "Only changes to this record (e.g. SERENO.GENERAL, serenos)")
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 50, "Max entries")
	runsCmd.Flags().IntVarP(&flagRunsLimit, "limit", "n", 20, "Max runs")

	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(runsCmd)
}

func historyKind(s string) (model.ChangeKind, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "ratio", "ratios", strings.ToLower(string(model.ChangeRatio)):
		return model.ChangeRatio, nil
	case "inventory", strings.ToLower(string(model.ChangeInventory)):
		return model.ChangeInventory, nil
	default:
		return "", fmt.Errorf(`--kind must be "ratio" or "inventory", got %q`, s)
	}
}

func runHistory(cmd *cobra.Command, _ []string) error {
	kind, err := historyKind(flagHistoryKind)
	if err != nil {
		return err
	}

	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	changes, err := st.History(cmd.Context(), store.HistoryFilter{
		Kind:   kind,
		Record: flagHistoryRecord,
		Limit:  flagHistoryLimit,
	})
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(changes)
	}
	if len(changes) == 0 {
		fmt.Println("\n  No changes recorded.")
		return nil
	}

	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{
			c.ChangedAt.Local().Format("2006-01-02 15:04"),
			string(c.Kind),
			c.Record + "." + c.Field,
			orDash(c.OldValue),
			orDash(c.NewValue),
			c.User,
			c.Reason,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Change History",
		Headers: []string{"When", "Kind", "Field", "Old", "New", "User", "Reason"},
		Rows:    rows,
	}))
	return nil
}

func runRuns(cmd *cobra.Command, _ []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListPlans(cmd.Context(), flagRunsLimit)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("\n  No stored plans. Use `resplan plan --save` or run the daemon.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.Period.String(),
			r.State,
			r.GeneratedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Stored Plans",
		Headers: []string{"ID", "Month", "State", "Generated"},
		Rows:    rows,
	}))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	plan, err := st.LoadPlan(cmd.Context(), args[0])
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

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
