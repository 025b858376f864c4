/*
Package app wires the store and the engines into one application.

PURPOSE:
  Shared by cmd/server and cmd/ledgerctl so both run the same startup:

  1. Open the store (SQLite or PostgreSQL)
  2. Seed the default chart and payroll codes (SEED_DEFAULTS)
  3. Resolve the control accounts. A missing or mistyped control account
     stops startup with a configuration error.
  4. Build the engines on top of the store

SEE ALSO:
  - config/config.go: Environment variables
  - ledger/control.go: Control account resolution
*/
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/warp/clinic-ledger/config"
	"github.com/warp/clinic-ledger/ledger"
	"github.com/warp/clinic-ledger/payroll"
	"github.com/warp/clinic-ledger/store/sqlstore"
	"github.com/warp/clinic-ledger/timeoff"
)

// App holds the store and every engine built on it.
type App struct {
	Config *config.Config
	Store  *sqlstore.Store

	Chart       *ledger.Chart
	Journal     *ledger.Journal
	Reports     *ledger.Reports
	Closer      *ledger.Closer
	Settlements *ledger.Settlements
	TimeOff     *timeoff.Ledger
	Payroll     *payroll.Service
	Controls    ledger.ControlAccounts

	log zerolog.Logger
}

// New opens the configured store and builds the application on it.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	a, err := Build(ctx, cfg, store, log)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

// Build seeds (if configured), resolves control accounts and builds the
// engines on an open store.
func Build(ctx context.Context, cfg *config.Config, store *sqlstore.Store, log zerolog.Logger) (*App, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Store:   store,
		Chart:   ledger.NewChart(store, log),
		Journal: ledger.NewJournal(store, log),
		Reports: ledger.NewReports(store, log),
		TimeOff: timeoff.NewLedger(store, log),
		log:     log.With().Str("component", "app").Logger(),
	}

	if cfg.SeedDefaults {
		n, err := a.Chart.Seed(ctx, ledger.DefaultChart)
		if err != nil {
			return nil, fmt.Errorf("seed chart of accounts: %w", err)
		}
		if n > 0 {
			a.log.Info().Int("accounts", n).Msg("default chart of accounts seeded")
		}
	}

	a.Controls, err = ledger.ResolveControlAccounts(ctx, store, cfg.ControlCodes())
	if err != nil {
		return nil, err
	}

	a.Closer = ledger.NewCloser(store, a.Journal, a.Controls, log)
	a.Settlements = ledger.NewSettlements(store, a.Journal, a.Controls, log)
	a.Payroll = payroll.NewService(store, a.Journal, a.TimeOff, a.Controls, policy, log)

	if cfg.SeedDefaults {
		n, err := a.Payroll.SeedCodes(ctx, a.Chart.GetByCode)
		if err != nil {
			return nil, fmt.Errorf("seed payroll codes: %w", err)
		}
		if n > 0 {
			a.log.Info().Int("codes", n).Msg("default payroll codes seeded")
		}
	}

	a.log.Info().
		Str("driver", cfg.DBDriver).
		Str("cash", a.Controls.Cash.Code).
		Str("retained_earnings", a.Controls.RetainedEarnings.Code).
		Str("payables", a.Controls.Payables.Code).
		Bool("payroll_suspense", a.Controls.PayrollSuspense != nil).
		Msg("ledger ready")
	return a, nil
}

// Close closes the store.
func (a *App) Close() error {
	return a.Store.Close()
}
