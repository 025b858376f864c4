/*
scheduler.go - Automatic month-end closing

PURPOSE:
  Optionally closes past accounting months once a grace period after month
  end has passed, so books are not left open when nobody runs the close.

DESIGN:
  - Background goroutine on a ticker (AUTO_CLOSE_INTERVAL)
  - Only the month before the current one is considered
  - Months with no revenue or expense activity are left open
  - An already closed month is skipped; Close itself rejects double closes,
    so a manual close racing the scheduler is safe

CONFIGURATION:
  AUTO_CLOSE_ENABLED   default false
  AUTO_CLOSE_GRACE     time after month end before closing (default 120h)
  AUTO_CLOSE_INTERVAL  check interval (default 1h)

SEE ALSO:
  - ledger/closing.go: Closer
*/
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
)

// MonthCloser is the part of ledger.Closer the scheduler uses.
type MonthCloser interface {
	Preview(ctx context.Context, m generic.Month) (ledger.ClosingPreview, error)
	Close(ctx context.Context, m generic.Month) (ledger.ClosingResult, error)
}

// ClosingScheduler closes the previous month after a grace period.
type ClosingScheduler struct {
	closer   MonthCloser
	grace    time.Duration
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClosingScheduler creates a scheduler. Call Start to run it.
func NewClosingScheduler(closer MonthCloser, grace, interval time.Duration, log zerolog.Logger) *ClosingScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ClosingScheduler{
		closer:   closer,
		grace:    grace,
		interval: interval,
		log:      log.With().Str("component", "closing-scheduler").Logger(),
		now:      time.Now,
	}
}

// Start runs a check now and then on every tick until Stop.
func (cs *ClosingScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cs.cancel = cancel
	cs.wg.Add(1)
	go cs.run(ctx)

	cs.log.Info().Dur("interval", cs.interval).Dur("grace", cs.grace).Msg("closing scheduler started")
}

// Stop stops the scheduler and waits for a running check to finish.
func (cs *ClosingScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.cancel == nil {
		return
	}
	cs.cancel()
	cs.wg.Wait()
	cs.cancel = nil
	cs.log.Info().Msg("closing scheduler stopped")
}

func (cs *ClosingScheduler) run(ctx context.Context) {
	defer cs.wg.Done()

	ticker := time.NewTicker(cs.interval)
	defer ticker.Stop()

	cs.CheckAndClose(ctx)
	for {
		select {
		case <-ticker.C:
			cs.CheckAndClose(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckAndClose closes the previous month if its grace period has passed.
// It reports whether a month was closed.
func (cs *ClosingScheduler) CheckAndClose(ctx context.Context) bool {
	now := cs.now().UTC()
	prev := generic.MonthContaining(generic.StartOfMonth(now).AddDate(0, 0, -1))

	due := prev.End().AddDate(0, 0, 1).Add(cs.grace)
	if now.Before(due) {
		return false
	}

	preview, err := cs.closer.Preview(ctx, prev)
	if err != nil {
		cs.log.Error().Err(err).Str("month", prev.Key()).Msg("closing preview failed")
		return false
	}
	if preview.Status == ledger.PeriodClosed || !preview.HasActivity() {
		return false
	}

	res, err := cs.closer.Close(ctx, prev)
	switch {
	case errors.Is(err, ledger.ErrPeriodClosed), errors.Is(err, ledger.ErrNoActivity):
		return false
	case err != nil:
		cs.log.Error().Err(err).Str("month", prev.Key()).Msg("automatic close failed")
		return false
	}
	cs.log.Info().
		Str("month", prev.Key()).
		Str("reference", res.Reference).
		Str("net_profit", res.NetProfit.StringFixed(2)).
		Msg("month closed automatically")
	return true
}
