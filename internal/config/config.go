// Package config loads pricing job files.
//
// A job file lists the contracts to price together with defaults for the
// market inputs they leave out. JSON and YAML are both accepted; the format
// is picked from the file extension. A few settings can be overridden from
// the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/contactkeval/option-pricer/internal/pricing"
)

// DateLayout is the layout of as_of and expiry dates.
const DateLayout = "2006-01-02"

// ErrNoContracts is returned when a job has nothing to price.
var ErrNoContracts = errors.New("no contracts configured")

// Defaults are applied to contracts that leave a market input empty.
// Rates default to zero; volatility has no implicit value since a zero
// volatility changes the price.
type Defaults struct {
	RiskFreeRate  float64  `json:"risk_free_rate" yaml:"risk_free_rate"`
	DividendYield float64  `json:"dividend_yield" yaml:"dividend_yield"`
	Volatility    *float64 `json:"volatility,omitempty" yaml:"volatility,omitempty"`
}

// Contract is one option to price. Pointer fields distinguish "not set"
// (inherit the default) from an explicit zero, which matters for
// volatility and time where zero selects the intrinsic value.
type Contract struct {
	ID            string   `json:"id,omitempty" yaml:"id,omitempty"`
	Underlying    string   `json:"underlying,omitempty" yaml:"underlying,omitempty"`
	OptionType    string   `json:"option_type" yaml:"option_type"`
	Spot          *float64 `json:"spot,omitempty" yaml:"spot,omitempty"`
	Strike        float64  `json:"strike" yaml:"strike"`
	Volatility    *float64 `json:"volatility,omitempty" yaml:"volatility,omitempty"`
	RiskFreeRate  *float64 `json:"risk_free_rate,omitempty" yaml:"risk_free_rate,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty" yaml:"dividend_yield,omitempty"`
	TimeToExpiry  *float64 `json:"time_to_expiry,omitempty" yaml:"time_to_expiry,omitempty"` // years, wins over Expiry
	Expiry        string   `json:"expiry,omitempty" yaml:"expiry,omitempty"`                 // 2006-01-02
}

// Config is a pricing job.
type Config struct {
	AsOf      string             `json:"as_of,omitempty" yaml:"as_of,omitempty"`
	Defaults  Defaults           `json:"defaults" yaml:"defaults"`
	Spots     map[string]float64 `json:"spots,omitempty" yaml:"spots,omitempty"`
	SpotsFile string             `json:"spots_file,omitempty" yaml:"spots_file,omitempty"` // "symbol,price" CSV
	Contracts []Contract         `json:"contracts" yaml:"contracts"`
	ReportDir string             `json:"report_dir,omitempty" yaml:"report_dir,omitempty"`
	Verbosity int                `json:"verbosity,omitempty" yaml:"verbosity,omitempty"` // 0=errors,1=info,2=debug,3=trace

	// APIKey is only ever read from the environment.
	APIKey string `json:"-" yaml:"-"`
}

// Load reads the job file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a job from data. format is a file extension (".json",
// ".yaml", ".yml"); anything else is treated as JSON.
func Parse(data []byte, format string) (*Config, error) {
	cfg := &Config{}

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid json config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns an empty job carrying only environment settings, used
// when the REST server runs without a job file.
func FromEnv() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	c.APIKey = getEnv("MASSIVE_API_KEY", getEnv("POLYGON_API_KEY", ""))
	c.Verbosity = getEnvInt("PRICER_VERBOSITY", c.Verbosity)
	c.ReportDir = getEnv("PRICER_REPORT_DIR", c.ReportDir)
	if c.ReportDir == "" {
		c.ReportDir = "reports"
	}
}

// Validate checks the fields that can be checked without market data. A job
// must name at least one contract.
// Numeric domain checks are left to the pricer so they surface as
// pricing.ErrInvalidParameter.
func (c *Config) Validate() error {
	if c.AsOf != "" {
		if _, err := time.Parse(DateLayout, c.AsOf); err != nil {
			return fmt.Errorf("as_of %q: %w", c.AsOf, err)
		}
	}

	if len(c.Contracts) == 0 {
		return ErrNoContracts
	}

	for i, ct := range c.Contracts {
		if err := ct.Validate(); err != nil {
			return fmt.Errorf("contract %d (%s): %w", i, ct.Label(), err)
		}
	}
	return nil
}

// Validate checks a single contract.
func (ct Contract) Validate() error {
	if _, err := pricing.ParseOptionType(ct.OptionType); err != nil {
		return err
	}
	if ct.Spot == nil && ct.Underlying == "" {
		return errors.New("either spot or underlying is required")
	}
	if ct.TimeToExpiry == nil {
		if ct.Expiry == "" {
			return errors.New("either time_to_expiry or expiry is required")
		}
		if _, err := time.Parse(DateLayout, ct.Expiry); err != nil {
			return fmt.Errorf("expiry %q: %w", ct.Expiry, err)
		}
	}
	return nil
}

// Label names a contract in logs and errors.
func (ct Contract) Label() string {
	if ct.ID != "" {
		return ct.ID
	}
	return fmt.Sprintf("%s %s %g", ct.Underlying, ct.OptionType, ct.Strike)
}

// AsOfDate returns the pricing date, defaulting to now's UTC calendar day.
func (c *Config) AsOfDate(now time.Time) time.Time {
	if c.AsOf != "" {
		if d, err := time.Parse(DateLayout, c.AsOf); err == nil {
			return d
		}
	}
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
