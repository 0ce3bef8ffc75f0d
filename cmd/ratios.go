package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/config"
	"github.com/monsefu/resplan/internal/engine"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/store"
)

var (
	flagRatiosYes   bool
	flagRatiosForce bool
)

var ratiosCmd = &cobra.Command{
	Use:   "ratios",
	Short: "List operational ratios in the local database",
	Args:  cobra.NoArgs,
	RunE:  runRatios,
}

var ratiosSetCmd = &cobra.Command{
	Use:   "set CATEGORY[.SUB].param=VALUE...",
	Short: "Set ratio values",
	Long:  "Set ratio values, e.g. `resplan ratios set SERENO.casos_mes=9 TIEMPO.horas_caso=2.5`.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRatiosSet,
}

var ratiosDeleteCmd = &cobra.Command{
	Use:   "delete CATEGORY[.SUB].param",
	Short: "Delete one ratio row",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatiosDelete,
}

var ratiosResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace all ratios with the documented seed values",
	Args:  cobra.NoArgs,
	RunE:  runRatiosReset,
}

var ratiosImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all ratios with a TOML ratio table",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatiosImport,
}

var ratiosExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write the ratio table to a TOML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatiosExport,
}

func init() {
	ratiosResetCmd.Flags().BoolVarP(&flagRatiosYes, "yes", "y", false, "Do not ask for confirmation")
	ratiosImportCmd.Flags().BoolVar(&flagRatiosForce, "force", false, "Import a table that lacks required ratios")

	ratiosCmd.AddCommand(ratiosSetCmd)
	ratiosCmd.AddCommand(ratiosDeleteCmd)
	ratiosCmd.AddCommand(ratiosResetCmd)
	ratiosCmd.AddCommand(ratiosImportCmd)
	ratiosCmd.AddCommand(ratiosExportCmd)
	rootCmd.AddCommand(ratiosCmd)
}

func runRatios(cmd *cobra.Command, _ []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.ListRatioRows(cmd.Context())
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Println("\n  No ratios stored. Run `resplan ratios reset` or `resplan ratios import FILE`.")
		return nil
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		value := strconv.FormatFloat(r.Value, 'f', -1, 64)
		if r.Unit != "" {
			value += " " + r.Unit
		}
		name := r.Parameter
		if !r.Editable {
			name += " (locked)"
		}
		table = append(table, []string{r.Category, r.Subcategory, name, value, r.Description})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Operational Ratios",
		Headers: []string{"Category", "Sub", "Parameter", "Value", "Description"},
		Rows:    table,
	}))

	if err := engine.ValidateRatios(model.RatiosFromRows(rows).Ratios()); err != nil {
		fmt.Println(cli.RenderBanner(cli.BannerWarn, "Incomplete: "+err.Error()))
	} else {
		fmt.Println(cli.RenderBanner(cli.BannerOK, "All required ratios present"))
	}
	fmt.Println()
	return nil
}

// parseRatioKey splits CATEGORY.param or CATEGORY.SUB.param.
func parseRatioKey(key string) (store.RatioUpdate, error) {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return store.RatioUpdate{}, fmt.Errorf("invalid ratio %q: want CATEGORY[.SUB].param", key)
		}
	}
	switch len(parts) {
	case 2:
		return store.RatioUpdate{Category: strings.ToUpper(parts[0]), Parameter: parts[1]}, nil
	case 3:
		return store.RatioUpdate{Category: strings.ToUpper(parts[0]), Subcategory: strings.ToUpper(parts[1]), Parameter: parts[2]}, nil
	default:
		return store.RatioUpdate{}, fmt.Errorf("invalid ratio %q: want CATEGORY[.SUB].param", key)
	}
}

func runRatiosSet(cmd *cobra.Command, args []string) error {
	assignments, err := parseAssignments(args)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(assignments))
	for k := range assignments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]store.RatioUpdate, 0, len(keys))
	for _, k := range keys {
		u, err := parseRatioKey(k)
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(assignments[k], 64)
		if err != nil {
			return fmt.Errorf("ratio %s: %q is not a number", k, assignments[k])
		}
		u.Value = v
		updates = append(updates, u)
	}

	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetRatios(cmd.Context(), updates, currentActor(cfg)); err != nil {
		return err
	}
	fmt.Printf("  Updated %d ratios\n", len(updates))
	return nil
}

func runRatiosDelete(cmd *cobra.Command, args []string) error {
	u, err := parseRatioKey(args[0])
	if err != nil {
		return err
	}

	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteRatio(cmd.Context(), u.Category, u.Subcategory, u.Parameter, currentActor(cfg)); err != nil {
		return err
	}
	fmt.Printf("  Deleted %s\n", args[0])
	return nil
}

func runRatiosReset(cmd *cobra.Command, _ []string) error {
	if !flagRatiosYes {
		confirmed := false
		err := huh.NewConfirm().
			Title("Replace every stored ratio with the seed values?").
			Description("Changes are recorded in the history.").
			Value(&confirmed).
			Run()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		if !confirmed {
			return nil
		}
	}

	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ReplaceRatios(cmd.Context(), config.SeedRatioRows, currentActor(cfg)); err != nil {
		return err
	}
	fmt.Printf("  Reset %d ratios to seed values\n", len(config.SeedRatioRows))
	return nil
}

func runRatiosImport(cmd *cobra.Command, args []string) error {
	table, err := config.LoadRatiosFile(args[0])
	if err != nil {
		return err
	}
	if err := engine.ValidateRatios(table.Ratios()); err != nil && !flagRatiosForce {
		return fmt.Errorf("%s: %w (use --force to import anyway)", args[0], err)
	}

	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rows := config.TableRows(table)
	if err := st.ReplaceRatios(cmd.Context(), rows, currentActor(cfg)); err != nil {
		return err
	}
	fmt.Printf("  Imported %d ratios from %s\n", len(rows), args[0])
	return nil
}

func runRatiosExport(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.ListRatioRows(cmd.Context())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("ratios: %w", store.ErrEmpty)
	}
	if err := config.WriteRatiosFile(args[0], model.RatiosFromRows(rows)); err != nil {
		return err
	}
	fmt.Printf("  Wrote %d ratios to %s\n", len(rows), args[0])
	return nil
}
