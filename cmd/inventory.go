package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monsefu/resplan/internal/cli"
	"github.com/monsefu/resplan/internal/config"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/source"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Show the current resource inventory",
	Args:  cobra.NoArgs,
	RunE:  runInventory,
}

var inventorySetCmd = &cobra.Command{
	Use:   "set NAME=COUNT...",
	Short: "Set inventory counts in the local database",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInventorySet,
}

var inventoryImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load inventory counts from a JSON file into the local database",
	Args:  cobra.ExactArgs(1),
	RunE:  runInventoryImport,
}

func init() {
	inventoryCmd.AddCommand(inventorySetCmd)
	inventoryCmd.AddCommand(inventoryImportCmd)
	rootCmd.AddCommand(inventoryCmd)
}

func runInventory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var (
		inv  model.Inventory
		from string
	)
	switch {
	case flagInventoryFile != "":
		from = flagInventoryFile
		inv, err = source.LoadInventoryFile(flagInventoryFile)
	case cfg.General.DefaultSource == config.SourceREST && cfg.API.BaseURL != "":
		from = cfg.API.BaseURL
		inv, err = newClient(cfg).FetchInventory(cmd.Context())
	default:
		st, _, oerr := openStore()
		if oerr != nil {
			return oerr
		}
		defer st.Close()
		from = dbPath(cfg)
		inv, err = st.LoadInventory(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("loading inventory from %s: %w", from, err)
	}

	if flagJSON {
		return printJSON(inv)
	}

	rows := make([][]string, 0, len(model.InventoryItems)+3)
	for _, it := range model.InventoryItems {
		n, _ := inv.Get(it.Name)
		rows = append(rows, []string{it.Label, it.Name, cli.FormatNumber(int64(n))})
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"Personnel total", "", cli.FormatNumber(int64(inv.PersonnelTotal()))},
		[]string{"Vehicle total", "", cli.FormatNumber(int64(inv.VehicleTotal()))},
	)

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Inventory",
		Headers: []string{"Resource", "Name", "Count"},
		Rows:    rows,
	}))
	fmt.Println(cli.RenderKV("Source", from))
	if !inv.UpdatedAt.IsZero() {
		fmt.Println(cli.RenderKV("Last updated", inv.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	fmt.Println()
	return nil
}

// parseAssignments parses NAME=VALUE arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid assignment %q: want NAME=VALUE", arg)
		}
		out[name] = value
	}
	return out, nil
}

func runInventorySet(cmd *cobra.Command, args []string) error {
	assignments, err := parseAssignments(args)
	if err != nil {
		return err
	}
	counts := make(map[string]int, len(assignments))
	for name, value := range assignments {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("inventory %s: %q is not a whole number", name, value)
		}
		counts[strings.ToLower(name)] = n
	}

	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetInventory(cmd.Context(), counts, currentActor(cfg)); err != nil {
		return err
	}
	fmt.Printf("  Updated %d inventory counts in %s\n", len(counts), dbPath(cfg))
	return nil
}

func runInventoryImport(cmd *cobra.Command, args []string) error {
	inv, err := source.LoadInventoryFile(args[0])
	if err != nil {
		return err
	}
	counts := make(map[string]int, len(model.InventoryItems))
	for _, it := range model.InventoryItems {
		counts[it.Name], _ = inv.Get(it.Name)
	}

	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetInventory(cmd.Context(), counts, currentActor(cfg)); err != nil {
		return err
	}
	fmt.Printf("  Imported inventory from %s\n", args[0])
	return nil
}
