package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clinic-ledger/generic"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "101", cfg.CashAccountCode)
	assert.Equal(t, "290", cfg.PayrollSuspenseCode)
	assert.Equal(t, 120*time.Hour, cfg.AutoCloseGrace)
	assert.False(t, cfg.AutoCloseEnabled)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, "2000", cfg.InsuranceMin.String())
	assert.Equal(t, "12600", cfg.InsuranceMax.String())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_DSN", "postgres://ledger@localhost/ledger")
	t.Setenv("CASH_ACCOUNT_CODE", "102")
	t.Setenv("PAYROLL_SUSPENSE_CODE", "")
	t.Setenv("INSURANCE_MAX", "14500.50")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "102", cfg.ControlCodes().Cash)
	assert.Empty(t, cfg.ControlCodes().PayrollSuspense)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, "14500.5", policy.MaxInsurable.String())
	assert.Equal(t, "2000", policy.MinInsurable.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "DB_DRIVER", "oracle"},
		{"negative rate limit", "RATE_LIMIT_PER_MINUTE", "-1"},
		{"insurance limits inverted", "INSURANCE_MIN", "20000"},
		{"insurance not a number", "INSURANCE_MAX", "lots"},
		{"insurance ceiling zero", "INSURANCE_MAX", "0"},
		{"bad duration", "AUTO_CLOSE_GRACE", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			assert.True(t, generic.IsConfiguration(err), "got %v", err)
		})
	}
}

func TestIsProduction(t *testing.T) {
	var nilCfg *Config
	assert.False(t, nilCfg.IsProduction())
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
}
