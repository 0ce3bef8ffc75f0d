// Package cmd implements the resplan CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/monsefu/resplan/internal/config"
	"github.com/monsefu/resplan/internal/metrics"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/municipal"
	"github.com/monsefu/resplan/internal/pipeline"
	"github.com/monsefu/resplan/internal/provider"
	"github.com/monsefu/resplan/internal/source"
	"github.com/monsefu/resplan/internal/store"
)

var (
	flagSource        string
	flagAPIURL        string
	flagDBPath        string
	flagForecastDir   string
	flagInventoryFile string
	flagNoInventory   bool
	flagQuiet         bool
	flagJSON          bool
	flagNoColor       bool
	flagUser          string
	flagReason        string
)

var rootCmd = &cobra.Command{
	Use:   "resplan",
	Short: "Municipal resource demand and gap planning",
	Long: "Turn a monthly incident forecast into required personnel, vehicles and budget,\n" +
		"and compare it against the current municipal inventory.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runPlan,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", `Ratios/inventory source: "rest" or "local" (default from config)`)
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Municipal API base URL")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Local database path")
	rootCmd.PersistentFlags().StringVar(&flagForecastDir, "forecast-dir", "", "Read forecasts from YYYY-MM.json files in this directory")
	rootCmd.PersistentFlags().StringVar(&flagInventoryFile, "inventory-file", "", "Read the inventory from a JSON file")
	rootCmd.PersistentFlags().BoolVar(&flagNoInventory, "no-inventory", false, "Plan demand only, skip the inventory")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "User recorded in the change history")
	rootCmd.PersistentFlags().StringVar(&flagReason, "reason", "", "Reason recorded in the change history")
}

// loadConfig loads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if flagSource != "" {
		cfg.General.DefaultSource = flagSource
	}
	if flagAPIURL != "" {
		cfg.API.BaseURL = flagAPIURL
	}
	if flagDBPath != "" {
		cfg.General.DBPath = flagDBPath
	}
	if flagForecastDir != "" {
		cfg.General.ForecastDir = flagForecastDir
	}
	if flagNoColor || !cfg.Appearance.Color {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func dbPath(cfg config.Config) string {
	if cfg.General.DBPath != "" {
		return cfg.General.DBPath
	}
	return pipeline.DBPath()
}

// currentActor names who a store mutation is recorded under.
func currentActor(cfg config.Config) store.Actor {
	name := flagUser
	if name == "" {
		name = cfg.General.User
	}
	if name == "" {
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
	}
	if name == "" {
		name = "cli"
	}
	return store.Actor{User: name, Reason: flagReason}
}

// planEnv holds everything a planning command needs.
type planEnv struct {
	cfg       config.Config
	store     *store.Store
	client    *municipal.Client
	ratios    *provider.CachedProvider[model.OperationalRatios]
	inventory *provider.CachedProvider[model.Inventory]
	planner   *pipeline.Planner
}

type envOptions struct {
	// withStore opens the local database even when the source is REST.
	withStore bool
	// noInventory builds a demand-only planner.
	noInventory bool
}

// openEnv wires forecast, ratio and inventory sources into a planner.
func openEnv(opts envOptions) (*planEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	env := &planEnv{cfg: cfg}

	local := cfg.General.DefaultSource == config.SourceLocal
	if local || opts.withStore {
		st, err := store.Open(dbPath(cfg))
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		env.store = st
	}

	if cfg.API.BaseURL != "" {
		env.client = newClient(cfg)
	}

	var forecasts pipeline.ForecastSource
	switch {
	case cfg.General.ForecastDir != "":
		forecasts = source.Files{Path: cfg.General.ForecastDir}
	case env.client != nil:
		forecasts = env.client
	default:
		env.Close()
		return nil, errors.New("no forecast source: set api.base_url or general.forecast_dir (run `resplan setup`)")
	}

	providerOpts := []provider.Option{
		provider.WithTTL(cfg.TTL()),
		provider.WithObserver(func(name string, o provider.Outcome) {
			metrics.ObserveProvider(name, string(o))
		}),
	}

	var fetchRatios provider.FetchFunc[model.OperationalRatios]
	var fetchInventory provider.FetchFunc[model.Inventory]
	switch {
	case local:
		fetchRatios = env.store.LoadRatios
		fetchInventory = env.store.LoadInventory
	case env.client != nil:
		fetchRatios = env.client.FetchRatios
		fetchInventory = env.client.FetchInventory
	default:
		env.Close()
		return nil, errors.New("no ratio source: set api.base_url or use --source local")
	}
	if flagInventoryFile != "" {
		path := flagInventoryFile
		fetchInventory = func(_ context.Context) (model.Inventory, error) {
			return source.LoadInventoryFile(path)
		}
	}

	env.ratios = provider.New("ratios", fetchRatios, providerOpts...)

	var inventory pipeline.InventoryProvider
	if !opts.noInventory && !flagNoInventory {
		env.inventory = provider.New("inventory", fetchInventory, providerOpts...)
		inventory = env.inventory
	}

	env.planner = pipeline.NewPlanner(forecasts, env.ratios, inventory)
	return env, nil
}

func newClient(cfg config.Config) *municipal.Client {
	token, _ := config.GetAPIToken(cfg)
	return municipal.NewClient(municipal.Options{
		BaseURL:    cfg.API.BaseURL,
		Token:      token,
		Timeout:    cfg.Timeout(),
		RetryCount: cfg.API.RetryCount,
	})
}

// Refresh drops cached ratios and inventory.
func (e *planEnv) Refresh() {
	e.ratios.Invalidate()
	if e.inventory != nil {
		e.inventory.Invalidate()
	}
}

// Close releases the database, if open.
func (e *planEnv) Close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// openStore opens the local database for the data-editing commands.
func openStore() (*store.Store, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	st, err := store.Open(dbPath(cfg))
	if err != nil {
		return nil, cfg, fmt.Errorf("opening database: %w", err)
	}
	return st, cfg, nil
}

// nextPeriod is the month after the current one, the default planning target.
func nextPeriod() model.Period {
	return model.PeriodOf(time.Now()).AddMonths(1)
}

// periodArg parses an optional YYYY-MM argument.
func periodArg(args []string) (model.Period, error) {
	if len(args) == 0 {
		return nextPeriod(), nil
	}
	p, err := model.ParsePeriod(args[0])
	if err != nil {
		return p, err
	}
	return p, pipeline.ValidatePeriod(p)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func progressf(format string, args ...any) {
	if flagQuiet || flagJSON {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
