package tui

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/monsefu/resplan/internal/config"
	"github.com/monsefu/resplan/internal/tui/theme"
)

// SetupValues holds the answers of the setup form.
type SetupValues struct {
	Source      string
	BaseURL     string
	Token       string
	TimeoutSec  string
	ForecastDir string
	Theme       string
	StoreToken  bool
}

// SetupValuesFrom seeds the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Source:      cfg.General.DefaultSource,
		BaseURL:     cfg.API.BaseURL,
		TimeoutSec:  strconv.Itoa(cfg.API.TimeoutSec),
		ForecastDir: cfg.General.ForecastDir,
		Theme:       cfg.Appearance.Theme,
		StoreToken:  true,
	}
}

// NewSetupForm builds the interactive setup form writing into vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, th := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(th.Name, th.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Ratios and inventory source").
				Description("Where operational ratios and the resource inventory come from.").
				Options(
					huh.NewOption("Municipal API (REST)", config.SourceREST),
					huh.NewOption("Local database", config.SourceLocal),
				).
				Value(&vals.Source),
			huh.NewInput().
				Title("Municipal API base URL").
				Placeholder("http://localhost:5000").
				Value(&vals.BaseURL).
				Validate(validateBaseURL),
			huh.NewInput().
				Title("API token").
				Description("Leave blank to keep the current token.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.Token),
			huh.NewConfirm().
				Title("Store the token in the OS keyring?").
				Affirmative("Keyring").
				Negative("Config file").
				Value(&vals.StoreToken),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&vals.TimeoutSec).
				Validate(validateTimeout),
			huh.NewInput().
				Title("Local forecast directory").
				Description("YYYY-MM.json files. Leave blank to fetch forecasts from the API.").
				Value(&vals.ForecastDir),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	)
}

func validateBaseURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("enter a full URL such as http://host:5000")
	}
	return nil
}

func validateTimeout(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a positive number of seconds")
	}
	return nil
}

// ApplySetup merges the form answers into cfg and stores the token. It
// returns the updated config without saving it.
func ApplySetup(cfg config.Config, vals SetupValues) (config.Config, error) {
	if vals.Source != "" {
		cfg.General.DefaultSource = vals.Source
	}
	if u := strings.TrimSpace(vals.BaseURL); u != "" {
		cfg.API.BaseURL = strings.TrimRight(u, "/")
	}
	if n, err := strconv.Atoi(strings.TrimSpace(vals.TimeoutSec)); err == nil && n > 0 {
		cfg.API.TimeoutSec = n
	}
	cfg.General.ForecastDir = strings.TrimSpace(vals.ForecastDir)
	if vals.Theme != "" {
		cfg.Appearance.Theme = vals.Theme
		theme.SetActive(vals.Theme)
	}

	if tok := strings.TrimSpace(vals.Token); tok != "" {
		if vals.StoreToken {
			if err := config.StoreAPIToken(tok); err != nil {
				return cfg, err
			}
			cfg.API.Token = ""
		} else {
			cfg.API.Token = tok
		}
	}
	return cfg, cfg.Validate()
}

// saveSetupConfig applies the completed first-run form and saves it.
func (a *App) saveSetupConfig() error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	cfg, err = ApplySetup(cfg, a.setupVals)
	if err != nil {
		return err
	}
	return config.Save(cfg)
}
