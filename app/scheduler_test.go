package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
)

type fakeCloser struct {
	status   ledger.PeriodStatus
	activity bool
	closeErr error

	previewed []generic.Month
	closed    []generic.Month
}

func (f *fakeCloser) Preview(_ context.Context, m generic.Month) (ledger.ClosingPreview, error) {
	f.previewed = append(f.previewed, m)
	p := ledger.ClosingPreview{Month: m, Status: f.status}
	if f.activity {
		p.Lines = []ledger.ClosingLine{{Balance: decimal.NewFromInt(100)}}
	}
	return p, nil
}

func (f *fakeCloser) Close(_ context.Context, m generic.Month) (ledger.ClosingResult, error) {
	if f.closeErr != nil {
		return ledger.ClosingResult{}, f.closeErr
	}
	f.closed = append(f.closed, m)
	return ledger.ClosingResult{Reference: "CLS-" + m.Key(), NetProfit: decimal.NewFromInt(100)}, nil
}

func newTestScheduler(closer MonthCloser, now time.Time) *ClosingScheduler {
	cs := NewClosingScheduler(closer, 5*24*time.Hour, time.Hour, zerolog.Nop())
	cs.now = func() time.Time { return now }
	return cs
}

func TestCheckAndClose_WithinGracePeriod(t *testing.T) {
	// GIVEN: Four days after the end of March, grace is five
	closer := &fakeCloser{status: ledger.PeriodOpen, activity: true}
	cs := newTestScheduler(closer, time.Date(2025, 4, 4, 12, 0, 0, 0, time.UTC))

	// WHEN / THEN: Nothing is closed or even previewed
	assert.False(t, cs.CheckAndClose(context.Background()))
	assert.Empty(t, closer.previewed)
}

func TestCheckAndClose_ClosesPreviousMonth(t *testing.T) {
	closer := &fakeCloser{status: ledger.PeriodOpen, activity: true}
	cs := newTestScheduler(closer, time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC))

	assert.True(t, cs.CheckAndClose(context.Background()))
	assert.Equal(t, []generic.Month{{Year: 2025, Month: time.March}}, closer.closed)
}

func TestCheckAndClose_JanuaryClosesDecember(t *testing.T) {
	closer := &fakeCloser{status: ledger.PeriodOpen, activity: true}
	cs := newTestScheduler(closer, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))

	assert.True(t, cs.CheckAndClose(context.Background()))
	assert.Equal(t, []generic.Month{{Year: 2025, Month: time.December}}, closer.closed)
}

func TestCheckAndClose_SkipsClosedOrIdleMonths(t *testing.T) {
	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	closed := &fakeCloser{status: ledger.PeriodClosed, activity: true}
	assert.False(t, newTestScheduler(closed, now).CheckAndClose(context.Background()))
	assert.Empty(t, closed.closed)

	idle := &fakeCloser{status: ledger.PeriodOpen}
	assert.False(t, newTestScheduler(idle, now).CheckAndClose(context.Background()))
	assert.Empty(t, idle.closed)
}

func TestCheckAndClose_LostRaceIsQuiet(t *testing.T) {
	closer := &fakeCloser{status: ledger.PeriodOpen, activity: true, closeErr: ledger.ErrPeriodClosed}
	cs := newTestScheduler(closer, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))

	assert.False(t, cs.CheckAndClose(context.Background()))
}

func TestClosingScheduler_StartStop(t *testing.T) {
	closer := &fakeCloser{status: ledger.PeriodOpen}
	cs := newTestScheduler(closer, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))

	cs.Start()
	cs.Start()
	assert.NotNil(t, cs.cancel)
	cs.Stop()
	cs.Stop()

	assert.Nil(t, cs.cancel)
}
