package payroll

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
)

// =============================================================================
// PAYROLL CLOSE
// =============================================================================
//
// Closing a payroll month posts one entry for all slips:
//
//   earnings    Dr  their GL account, per department
//   deductions  Cr  their GL account, per department
//   net salary  Cr  cash
//
// Amounts for the same (GL account, department) are netted across
// employees. Items whose code has no GL account are not posted; the
// difference they leave goes to the payroll suspense account when one is
// configured, otherwise the close fails.

// PayrollReference is the entry reference for a month's payroll.
func PayrollReference(m generic.Month) string {
	return ledger.SourcePayroll.Prefix() + "-" + m.Key()
}

// CloseResult describes a closed payroll month.
type CloseResult struct {
	PeriodID      string
	Month         generic.Month
	EntryID       string
	Reference     string
	TotalNet      decimal.Decimal
	Lines         int
	UnmappedCodes []string
	CreditedDays  map[string]decimal.Decimal
}

// ClosePeriod posts the month's slips and closes the period.
func (s *Service) ClosePeriod(ctx context.Context, m generic.Month) (CloseResult, error) {
	if err := m.Validate(); err != nil {
		return CloseResult{}, err
	}

	res := CloseResult{Month: m, CreditedDays: map[string]decimal.Decimal{}}
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		period, err := s.store.GetPayrollPeriod(ctx, m)
		if err != nil {
			if generic.IsNotFound(err) {
				return fmt.Errorf("%w: %s", ErrNoSlips, m)
			}
			return err
		}
		if period.Status == PeriodClosed {
			return fmt.Errorf("%w: %s", ErrPeriodClosed, m)
		}
		res.PeriodID = period.ID

		slips, err := s.store.ListSlips(ctx, period.ID)
		if err != nil {
			return err
		}
		if len(slips) == 0 {
			return fmt.Errorf("%w: %s", ErrNoSlips, m)
		}

		posting := BuildPosting(slips, s.controls)
		for _, code := range posting.UnmappedCodes {
			s.log.Warn().
				Str("month", m.Key()).
				Str("code", code).
				Msg("payroll code has no GL account, items not posted")
		}
		if !posting.Residual.IsZero() {
			if s.controls.PayrollSuspense == nil {
				return fmt.Errorf("%w: %s (unposted %s)", ErrUnmappedCodes,
					strings.Join(posting.UnmappedCodes, ", "), posting.Residual.StringFixed(2))
			}
			posting.Lines = append(posting.Lines, suspenseLine(*s.controls.PayrollSuspense, posting.Residual))
		}

		ref := PayrollReference(m)
		entry, err := s.journal.Post(ctx, ledger.PostingInput{
			Date:        m.End(),
			Description: "Payroll for " + m.String(),
			Source:      ledger.SourcePayroll,
			Reference:   ref,
			Lines:       posting.Lines,
		})
		if err != nil {
			return err
		}

		for _, slip := range slips {
			if slip.Action != ActionCredit || slip.RestDaysWorked <= 0 {
				continue
			}
			days := decimal.NewFromInt(int64(slip.RestDaysWorked))
			key := fmt.Sprintf("payroll:%s:%s", period.ID, slip.EmployeeID)
			if _, err := s.timeOff.Credit(ctx, slip.EmployeeID, days, m.End(), "rest days worked in "+m.String(), ref, key); err != nil {
				return err
			}
			res.CreditedDays[slip.EmployeeID] = days
		}

		closed, err := s.store.ClosePayrollPeriod(ctx, period.ID, entry.ID, s.now().UTC())
		if err != nil {
			return err
		}
		if !closed {
			return fmt.Errorf("%w: %s", ErrPeriodClosed, m)
		}

		res.EntryID = entry.ID
		res.Reference = entry.Reference
		res.TotalNet = posting.TotalNet
		res.Lines = len(entry.Lines)
		res.UnmappedCodes = posting.UnmappedCodes
		return nil
	})
	if err != nil {
		return CloseResult{}, err
	}

	s.log.Info().
		Str("month", m.Key()).
		Str("reference", res.Reference).
		Str("total_net", res.TotalNet.StringFixed(2)).
		Int("credited_employees", len(res.CreditedDays)).
		Msg("payroll period closed")
	return res, nil
}

// Posting is the aggregated payroll entry before it is posted.
type Posting struct {
	Lines    []ledger.PostingLine
	TotalNet decimal.Decimal
	// Residual is unmapped earnings minus unmapped deductions: the debit
	// needed to balance the entry.
	Residual      decimal.Decimal
	UnmappedCodes []string
}

type glKey struct {
	account    string
	department string
}

// BuildPosting aggregates slips into entry lines. Lines are ordered by GL
// account then department, with the cash line last.
func BuildPosting(slips []Slip, controls ledger.ControlAccounts) Posting {
	net := map[glKey]decimal.Decimal{}
	unmapped := map[string]bool{}
	p := Posting{TotalNet: decimal.Zero, Residual: decimal.Zero}

	add := func(li LineItem, signed decimal.Decimal) {
		if !li.Mapped() {
			if !signed.IsZero() {
				unmapped[li.Code] = true
				p.Residual = p.Residual.Add(signed)
			}
			return
		}
		k := glKey{li.GLAccountID, li.Department}
		net[k] = net[k].Add(signed)
	}

	for _, slip := range slips {
		for _, e := range slip.Earnings {
			add(e, e.Amount)
		}
		for _, d := range slip.Deductions {
			add(d, d.Amount.Neg())
		}
		p.TotalNet = p.TotalNet.Add(slip.NetSalary)
	}

	keys := make([]glKey, 0, len(net))
	for k := range net {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].account != keys[j].account {
			return keys[i].account < keys[j].account
		}
		return keys[i].department < keys[j].department
	})

	for _, k := range keys {
		amount := net[k]
		switch {
		case amount.IsPositive():
			p.Lines = append(p.Lines, ledger.DebitLine(k.account, amount, k.department))
		case amount.IsNegative():
			p.Lines = append(p.Lines, ledger.CreditLine(k.account, amount.Neg(), k.department))
		}
	}

	switch {
	case p.TotalNet.IsPositive():
		p.Lines = append(p.Lines, ledger.CreditLine(controls.Cash.ID, p.TotalNet, ""))
	case p.TotalNet.IsNegative():
		p.Lines = append(p.Lines, ledger.DebitLine(controls.Cash.ID, p.TotalNet.Neg(), ""))
	}

	for code := range unmapped {
		p.UnmappedCodes = append(p.UnmappedCodes, code)
	}
	sort.Strings(p.UnmappedCodes)
	return p
}

func suspenseLine(acct ledger.Account, residual decimal.Decimal) ledger.PostingLine {
	pl := ledger.PostingLine{AccountID: acct.ID, Memo: "unmapped payroll codes"}
	if residual.IsPositive() {
		pl.Debit = residual
	} else {
		pl.Credit = residual.Neg()
	}
	return pl
}
