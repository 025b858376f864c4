// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
	"github.com/warp/clinic-ledger/payroll"
)

// Config holds runtime configuration for the ledger server and CLI.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	AppAddr         string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite3"`
	DBDSN    string `envconfig:"DB_DSN" default:"ledger.db"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	SeedDefaults bool `envconfig:"SEED_DEFAULTS" default:"true"`

	CORSOrigins        []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	CashAccountCode      string `envconfig:"CASH_ACCOUNT_CODE" default:"101"`
	RetainedEarningsCode string `envconfig:"RETAINED_EARNINGS_CODE" default:"310"`
	PayablesAccountCode  string `envconfig:"PAYABLES_ACCOUNT_CODE" default:"201"`
	// Empty disables the suspense fallback for unmapped payroll codes.
	PayrollSuspenseCode string `envconfig:"PAYROLL_SUSPENSE_CODE" default:"290"`

	AutoCloseEnabled  bool          `envconfig:"AUTO_CLOSE_ENABLED" default:"false"`
	AutoCloseGrace    time.Duration `envconfig:"AUTO_CLOSE_GRACE" default:"120h"`
	AutoCloseInterval time.Duration `envconfig:"AUTO_CLOSE_INTERVAL" default:"1h"`

	InsuranceMin decimal.Decimal `envconfig:"INSURANCE_MIN" default:"2000"`
	InsuranceMax decimal.Decimal `envconfig:"INSURANCE_MAX" default:"12600"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return generic.Configuration(fmt.Sprintf("DB_DRIVER must be sqlite3 or pgx, got %q", c.DBDriver))
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		return generic.Configuration("DB_DSN is required")
	}
	if c.CashAccountCode == "" || c.RetainedEarningsCode == "" || c.PayablesAccountCode == "" {
		return generic.Configuration("cash, retained earnings and payables account codes are required")
	}
	if c.RateLimitPerMinute < 0 {
		return generic.Configuration("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// ControlCodes returns the configured control account codes.
func (c *Config) ControlCodes() ledger.ControlCodes {
	return ledger.ControlCodes{
		Cash:             c.CashAccountCode,
		RetainedEarnings: c.RetainedEarningsCode,
		Payables:         c.PayablesAccountCode,
		PayrollSuspense:  c.PayrollSuspenseCode,
	}
}

// Policy returns the default payroll policy with the configured insurance
// limits.
func (c *Config) Policy() (payroll.Policy, error) {
	p := payroll.DefaultPolicy()
	p.MinInsurable = c.InsuranceMin
	p.MaxInsurable = c.InsuranceMax
	if p.MinInsurable.IsNegative() || !p.MaxInsurable.IsPositive() || p.MaxInsurable.LessThan(p.MinInsurable) {
		return payroll.Policy{}, generic.Configuration("insurance limits must satisfy 0 <= INSURANCE_MIN <= INSURANCE_MAX and INSURANCE_MAX > 0")
	}
	return p, nil
}
