package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
)

// =============================================================================
// MONTH-END CLOSING
// =============================================================================
//
// Closing moves a month's revenue and expense balances into retained earnings
// with one reversing entry, then flips the accounting period to closed. Both
// happen in one transaction: a month is either closed with its entry or not
// closed at all.

// ClosingLine is one temporary account's activity in the month.
type ClosingLine struct {
	AccountID string
	Code      string
	Name      string
	Type      AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	// Balance is credit minus debit for revenue and debit minus credit for
	// expense.
	Balance decimal.Decimal
}

// ClosingPreview is what Close would post.
type ClosingPreview struct {
	Month         generic.Month
	Status        PeriodStatus
	Lines         []ClosingLine
	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	NetProfit     decimal.Decimal
}

// HasActivity reports whether any line has a non-zero balance.
func (p ClosingPreview) HasActivity() bool {
	for _, l := range p.Lines {
		if !l.Balance.IsZero() {
			return true
		}
	}
	return false
}

// ClosingResult identifies the posted closing entry.
type ClosingResult struct {
	Month     generic.Month
	EntryID   string
	Reference string
	NetProfit decimal.Decimal
}

// Closer runs month-end closing.
type Closer struct {
	store    Store
	journal  *Journal
	controls ControlAccounts
	log      zerolog.Logger
	now      func() time.Time
}

// NewCloser returns a closer that posts through journal and books net income
// to the retained earnings control account.
func NewCloser(store Store, journal *Journal, controls ControlAccounts, log zerolog.Logger) *Closer {
	return &Closer{
		store:    store,
		journal:  journal,
		controls: controls,
		log:      log.With().Str("component", "closing").Logger(),
		now:      time.Now,
	}
}

// ClosingReference is the entry reference for a month's close.
func ClosingReference(m generic.Month) string {
	return SourceClosing.Prefix() + "-" + m.Key()
}

// Preview computes per-account totals for the month without writing.
func (c *Closer) Preview(ctx context.Context, m generic.Month) (ClosingPreview, error) {
	if err := m.Validate(); err != nil {
		return ClosingPreview{}, err
	}
	var preview ClosingPreview
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		preview, err = c.preview(ctx, m)
		return err
	})
	return preview, err
}

func (c *Closer) preview(ctx context.Context, m generic.Month) (ClosingPreview, error) {
	period, err := c.store.GetAccountingPeriod(ctx, m)
	if err != nil {
		return ClosingPreview{}, err
	}
	lines, err := c.store.ListPostedLines(ctx, LineFilter{
		Range:          m.Range(),
		Types:          []AccountType{Revenue, Expense},
		ExcludeSources: []Source{SourceClosing},
	})
	if err != nil {
		return ClosingPreview{}, err
	}

	p := buildClosingPreview(lines)
	p.Month = m
	p.Status = period.Status
	return p, nil
}

func buildClosingPreview(lines []PostedLine) ClosingPreview {
	byAccount := map[string]*ClosingLine{}
	for _, l := range lines {
		cl, ok := byAccount[l.AccountID]
		if !ok {
			cl = &ClosingLine{
				AccountID: l.AccountID,
				Code:      l.AccountCode,
				Name:      l.AccountName,
				Type:      l.AccountType,
				Debit:     decimal.Zero,
				Credit:    decimal.Zero,
			}
			byAccount[l.AccountID] = cl
		}
		cl.Debit = cl.Debit.Add(l.Debit)
		cl.Credit = cl.Credit.Add(l.Credit)
	}

	p := ClosingPreview{TotalRevenue: decimal.Zero, TotalExpenses: decimal.Zero}
	for _, cl := range byAccount {
		if cl.Type == Revenue {
			cl.Balance = cl.Credit.Sub(cl.Debit)
			p.TotalRevenue = p.TotalRevenue.Add(cl.Balance)
		} else {
			cl.Balance = cl.Debit.Sub(cl.Credit)
			p.TotalExpenses = p.TotalExpenses.Add(cl.Balance)
		}
		p.Lines = append(p.Lines, *cl)
	}
	sort.Slice(p.Lines, func(i, j int) bool { return p.Lines[i].Code < p.Lines[j].Code })
	p.NetProfit = p.TotalRevenue.Sub(p.TotalExpenses)
	return p
}

// Close posts the closing entry for the month and marks it closed. A month
// can be closed once; a second call returns ErrPeriodClosed.
func (c *Closer) Close(ctx context.Context, m generic.Month) (ClosingResult, error) {
	if err := m.Validate(); err != nil {
		return ClosingResult{}, err
	}

	var result ClosingResult
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		preview, err := c.preview(ctx, m)
		if err != nil {
			return err
		}
		if preview.Status == PeriodClosed {
			return fmt.Errorf("%w: %s", ErrPeriodClosed, m)
		}
		if !preview.HasActivity() {
			return fmt.Errorf("%w: %s", ErrNoActivity, m)
		}

		entry, err := c.journal.Post(ctx, PostingInput{
			Date:        m.End(),
			Description: "Closing entry for " + m.String(),
			Source:      SourceClosing,
			Reference:   ClosingReference(m),
			Lines:       c.closingLines(preview),
		})
		if err != nil {
			return err
		}

		flipped, err := c.store.CloseAccountingPeriod(ctx, m, entry.ID, c.now().UTC())
		if err != nil {
			return err
		}
		if !flipped {
			return fmt.Errorf("%w: %s", ErrPeriodClosed, m)
		}

		result = ClosingResult{Month: m, EntryID: entry.ID, Reference: entry.Reference, NetProfit: preview.NetProfit}
		return nil
	})
	if err != nil {
		return ClosingResult{}, err
	}

	c.log.Info().
		Str("month", m.Key()).
		Str("reference", result.Reference).
		Str("net_profit", result.NetProfit.StringFixed(2)).
		Msg("month closed")
	return result, nil
}

// closingLines reverses each non-zero temporary balance and books the net to
// retained earnings: a profit is credited, a loss debited.
func (c *Closer) closingLines(p ClosingPreview) []PostingLine {
	var lines []PostingLine
	for _, l := range p.Lines {
		if l.Balance.IsZero() {
			continue
		}
		amount := l.Balance.Abs()
		// A positive revenue balance sits on the credit side; positive
		// expense on the debit side. Post the opposite side.
		creditSide := (l.Type == Revenue) == l.Balance.IsPositive()
		pl := PostingLine{AccountID: l.AccountID, Memo: "close " + l.Code}
		if creditSide {
			pl.Debit = amount
		} else {
			pl.Credit = amount
		}
		lines = append(lines, pl)
	}

	switch {
	case p.NetProfit.IsPositive():
		lines = append(lines, PostingLine{AccountID: c.controls.RetainedEarnings.ID, Credit: p.NetProfit, Memo: "net profit"})
	case p.NetProfit.IsNegative():
		lines = append(lines, PostingLine{AccountID: c.controls.RetainedEarnings.ID, Debit: p.NetProfit.Abs(), Memo: "net loss"})
	}
	return lines
}

// Periods lists accounting periods that have a recorded state.
func (c *Closer) Periods(ctx context.Context) ([]AccountingPeriod, error) {
	return c.store.ListAccountingPeriods(ctx)
}
