package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monsefu/resplan/internal/config"
)

var flagTokenInFile bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token [TOKEN]",
	Short: "Store the municipal API token (reads stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigSetToken,
}

var configDeleteTokenCmd = &cobra.Command{
	Use:   "delete-token",
	Short: "Remove the stored API token",
	Args:  cobra.NoArgs,
	RunE:  runConfigDeleteToken,
}

func init() {
	configSetTokenCmd.Flags().BoolVar(&flagTokenInFile, "in-file", false, "Store in the config file instead of the OS keyring")
	configCmd.AddCommand(configSetTokenCmd)
	configCmd.AddCommand(configDeleteTokenCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Source:        %s\n", cfg.General.DefaultSource)
	fmt.Printf("    Database:      %s\n", dbPath(cfg))
	if cfg.General.ForecastDir != "" {
		fmt.Printf("    Forecast dir:  %s\n", cfg.General.ForecastDir)
	}
	if cfg.General.User != "" {
		fmt.Printf("    User:          %s\n", cfg.General.User)
	}
	fmt.Println()

	fmt.Println("  [API]")
	fmt.Printf("    Base URL:    %s\n", cfg.API.BaseURL)
	token, src := config.GetAPIToken(cfg)
	if token != "" {
		fmt.Printf("    Token:       %s (%s)\n", maskAPIKey(token), src)
	} else {
		fmt.Println("    Token:       not configured")
	}
	fmt.Printf("    Timeout:     %ds\n", cfg.API.TimeoutSec)
	fmt.Printf("    Retries:     %d\n", cfg.API.RetryCount)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    TTL: %ds\n", cfg.Cache.TTLSec)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Schedule: %s\n", cfg.Daemon.Schedule)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Color: %v\n", cfg.Appearance.Color)
	fmt.Println()

	fmt.Println("  Run `resplan setup` to reconfigure.")
	return nil
}

func runConfigSetToken(_ *cobra.Command, args []string) error {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		fmt.Fprint(os.Stderr, "  Token: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading token: %w", err)
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}

	if !flagTokenInFile {
		if err := config.StoreAPIToken(token); err != nil {
			return fmt.Errorf("%w (use --in-file to store it in %s)", err, config.Path())
		}
		fmt.Println("  Token stored in the OS keyring")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.API.Token = token
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  Token stored in %s\n", config.Path())
	return nil
}

func runConfigDeleteToken(_ *cobra.Command, _ []string) error {
	if err := config.DeleteAPIToken(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.API.Token != "" {
		cfg.API.Token = ""
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
	}
	fmt.Println("  Token removed")
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
