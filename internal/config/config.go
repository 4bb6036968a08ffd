package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"creative-mango/internal/config/configs"
)

// Config aggregates all configuration sections for the application.
// Values are read from an optional YAML setup file first, then
// overridden by environment variables using the caarlos0/env library.
// The nested structs are tagged with envPrefix so their fields are
// parsed with the given prefix. See the individual types in the configs
// package for default values and options. Use Load to construct a
// Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev). It is
	// not currently used by the application but may be useful for logging
	// or metrics.
	Env string `yaml:"env" env:"ENV" envDefault:"prod"`

	// HTTP holds configuration for the trigger HTTP server. Environment
	// variables prefixed with HTTP_ will populate this struct.
	HTTP configs.HTTP `yaml:"http" envPrefix:"HTTP_"`

	// Log configures the structured logger. Environment variables
	// prefixed with LOG_ will populate this struct.
	Log configs.Logger `yaml:"log" envPrefix:"LOG_"`

	// Sheets configures the managed spreadsheets. Environment variables
	// prefixed with SHEETS_ will populate this struct.
	Sheets configs.Sheets `yaml:"sheets" envPrefix:"SHEETS_"`

	// Ads configures the ad platform access. Environment variables
	// prefixed with ADS_ will populate this struct.
	Ads configs.Ads `yaml:"ads" envPrefix:"ADS_"`

	// Assets configures the creative sources. Environment variables
	// prefixed with ASSETS_ will populate this struct.
	Assets configs.Assets `yaml:"assets" envPrefix:"ASSETS_"`
}

// Load reads configuration into a Config, layering three sources:
// tag defaults, then the setup file at path (skipped when empty or
// missing), then environment variables. Each layer only overrides what
// it actually sets, so a setup value survives an unset env var.
func Load(path string) (Config, error) {
	var cfg Config
	// An empty environment applies the envDefault tags and nothing else.
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return cfg, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// No setup file; defaults and environment variables only.
		case err != nil:
			return cfg, fmt.Errorf("read setup file: %w", err)
		default:
			if err = yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse setup file: %w", err)
			}
		}
	}
	// Pointing the default tag at an unused name keeps this pass from
	// re-applying defaults over the setup file.
	if err := env.ParseWithOptions(&cfg, env.Options{DefaultValueTagName: "envLayeredDefault"}); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if len(c.Sheets.SpreadsheetIDs) == 0 {
		return errors.New("at least one spreadsheet id is required")
	}
	if c.Ads.DeveloperToken == "" {
		return errors.New("ads developer token is required")
	}
	return nil
}
