package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
)

// =============================================================================
// REPORTS - read-only derivations over posted lines
// =============================================================================
//
// Every report reads inside one store transaction so that all of its
// queries observe the same committed state.

// UnassignedDepartment labels lines posted without a department tag.
const UnassignedDepartment = "Unassigned"

// CurrentEarningsName is the synthetic equity line carrying unclosed net
// income on the balance sheet.
const CurrentEarningsName = "Retained Earnings (Current Period)"

// Reports derives financial statements from the journal.
type Reports struct {
	store Store
	log   zerolog.Logger
}

// NewReports returns a report engine backed by store.
func NewReports(store Store, log zerolog.Logger) *Reports {
	return &Reports{store: store, log: log.With().Str("component", "reports").Logger()}
}

// =============================================================================
// TRIAL BALANCE
// =============================================================================

// TrialBalanceRow is one account's lifetime totals.
type TrialBalanceRow struct {
	AccountID string
	Code      string
	Name      string
	Type      AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Net       decimal.Decimal
}

// TrialBalance lists every account with totals.
type TrialBalance struct {
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balanced    bool
}

// TrialBalance sums every account's lines. Accounts without activity are
// listed with zeros. Rows are ordered by account code.
func (r *Reports) TrialBalance(ctx context.Context) (TrialBalance, error) {
	var accounts []Account
	var lines []PostedLine
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if accounts, err = r.store.ListAccounts(ctx); err != nil {
			return err
		}
		lines, err = r.store.ListPostedLines(ctx, LineFilter{})
		return err
	})
	if err != nil {
		return TrialBalance{}, err
	}
	tb := buildTrialBalance(accounts, lines)
	if !tb.Balanced {
		r.log.Error().
			Str("debit", tb.TotalDebit.StringFixed(2)).
			Str("credit", tb.TotalCredit.StringFixed(2)).
			Msg("trial balance does not balance")
	}
	return tb, nil
}

func buildTrialBalance(accounts []Account, lines []PostedLine) TrialBalance {
	type sums struct{ debit, credit decimal.Decimal }
	byAccount := make(map[string]*sums, len(accounts))
	for _, a := range accounts {
		byAccount[a.ID] = &sums{decimal.Zero, decimal.Zero}
	}
	for _, l := range lines {
		s, ok := byAccount[l.AccountID]
		if !ok {
			continue
		}
		s.debit = s.debit.Add(l.Debit)
		s.credit = s.credit.Add(l.Credit)
	}

	tb := TrialBalance{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, a := range accounts {
		s := byAccount[a.ID]
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID: a.ID,
			Code:      a.Code,
			Name:      a.Name,
			Type:      a.Type,
			Debit:     s.debit,
			Credit:    s.credit,
			Net:       s.debit.Sub(s.credit),
		})
		tb.TotalDebit = tb.TotalDebit.Add(s.debit)
		tb.TotalCredit = tb.TotalCredit.Add(s.credit)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb
}

// =============================================================================
// ACCOUNT STATEMENT
// =============================================================================

// StatementLine is one posted line with the balance after it.
type StatementLine struct {
	Date        string
	EntryID     string
	Reference   string
	Description string
	Memo        string
	Department  string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
}

// Statement is an account's activity over a range.
type Statement struct {
	Account Account
	Range   generic.DateRange
	Opening decimal.Decimal
	Lines   []StatementLine
	Closing decimal.Decimal
}

// AccountStatement returns the opening balance before the range, every line
// inside it with a running balance, and the closing balance. Balances are
// debit minus credit. Lines are ordered by date then entry creation order.
func (r *Reports) AccountStatement(ctx context.Context, accountID string, rng generic.DateRange) (Statement, error) {
	if err := rng.Validate(); err != nil {
		return Statement{}, err
	}

	st := Statement{Range: rng, Opening: decimal.Zero}
	var prior, inRange []PostedLine
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if st.Account, err = r.store.GetAccount(ctx, accountID); err != nil {
			return err
		}
		if !rng.Start.IsZero() {
			prior, err = r.store.ListPostedLines(ctx, LineFilter{AccountID: accountID, Before: rng.Start})
			if err != nil {
				return err
			}
		}
		inRange, err = r.store.ListPostedLines(ctx, LineFilter{AccountID: accountID, Range: rng})
		return err
	})
	if err != nil {
		return Statement{}, err
	}

	for _, l := range prior {
		st.Opening = st.Opening.Add(l.Net())
	}

	running := st.Opening
	for _, l := range inRange {
		running = running.Add(l.Net())
		st.Lines = append(st.Lines, StatementLine{
			Date:        generic.FormatDate(l.EntryDate),
			EntryID:     l.EntryID,
			Reference:   l.EntryReference,
			Description: l.EntryDesc,
			Memo:        l.Memo,
			Department:  l.Department,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Balance:     running,
		})
	}
	st.Closing = running
	return st, nil
}

// =============================================================================
// PROFIT AND LOSS
// =============================================================================

// DepartmentResult is one department's revenue, expenses and profit.
type DepartmentResult struct {
	Department string
	Revenue    decimal.Decimal
	// Expenses is the magnitude of the expense net.
	Expenses decimal.Decimal
	Profit   decimal.Decimal
}

// ProfitAndLoss groups revenue and expense by department tag.
type ProfitAndLoss struct {
	Range         generic.DateRange
	Departments   []DepartmentResult
	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	NetProfit     decimal.Decimal
}

// ProfitAndLoss reports revenue (credit minus debit) and expense per
// department tag over the range. Closing entries are left out so a closed
// month still shows what happened in it. Departments without activity are
// omitted.
func (r *Reports) ProfitAndLoss(ctx context.Context, rng generic.DateRange) (ProfitAndLoss, error) {
	if err := rng.Validate(); err != nil {
		return ProfitAndLoss{}, err
	}
	var lines []PostedLine
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		lines, err = r.store.ListPostedLines(ctx, LineFilter{
			Range:          rng,
			Types:          []AccountType{Revenue, Expense},
			ExcludeSources: []Source{SourceClosing},
		})
		return err
	})
	if err != nil {
		return ProfitAndLoss{}, err
	}

	pl := buildProfitAndLoss(lines)
	pl.Range = rng
	return pl, nil
}

func buildProfitAndLoss(lines []PostedLine) ProfitAndLoss {
	type acc struct{ revenue, expenseNet decimal.Decimal }
	byDept := map[string]*acc{}
	for _, l := range lines {
		dept := l.Department
		if dept == "" {
			dept = UnassignedDepartment
		}
		a, ok := byDept[dept]
		if !ok {
			a = &acc{decimal.Zero, decimal.Zero}
			byDept[dept] = a
		}
		signed := l.Credit.Sub(l.Debit)
		switch l.AccountType {
		case Revenue:
			a.revenue = a.revenue.Add(signed)
		case Expense:
			a.expenseNet = a.expenseNet.Add(signed)
		}
	}

	pl := ProfitAndLoss{TotalRevenue: decimal.Zero, TotalExpenses: decimal.Zero, NetProfit: decimal.Zero}
	for dept, a := range byDept {
		res := DepartmentResult{
			Department: dept,
			Revenue:    a.revenue,
			Expenses:   a.expenseNet.Abs(),
			Profit:     a.revenue.Add(a.expenseNet),
		}
		pl.Departments = append(pl.Departments, res)
		pl.TotalRevenue = pl.TotalRevenue.Add(res.Revenue)
		pl.TotalExpenses = pl.TotalExpenses.Add(res.Expenses)
		pl.NetProfit = pl.NetProfit.Add(res.Profit)
	}
	sort.Slice(pl.Departments, func(i, j int) bool {
		return pl.Departments[i].Department < pl.Departments[j].Department
	})
	return pl
}

// =============================================================================
// BALANCE SHEET
// =============================================================================

// BalanceSheetLine is one account's balance in its natural sign.
type BalanceSheetLine struct {
	AccountID string
	Code      string
	Name      string
	Balance   decimal.Decimal
	// Synthetic marks the injected current-earnings line.
	Synthetic bool
}

// BalanceSheet lists permanent account balances.
type BalanceSheet struct {
	AsOf                      string
	Assets                    []BalanceSheetLine
	Liabilities               []BalanceSheetLine
	Equity                    []BalanceSheetLine
	TotalAssets               decimal.Decimal
	TotalLiabilities          decimal.Decimal
	TotalEquity               decimal.Decimal
	TotalLiabilitiesAndEquity decimal.Decimal
	CurrentEarnings           decimal.Decimal
	Balanced                  bool
}

// BalanceSheet reports asset, liability and equity balances up to asOf (zero
// means all postings). Net income not yet closed into retained earnings
// appears as a synthetic equity line so the sheet balances between closes.
func (r *Reports) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	var accounts []Account
	var lines []PostedLine
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if accounts, err = r.store.ListAccounts(ctx); err != nil {
			return err
		}
		lines, err = r.store.ListPostedLines(ctx, LineFilter{Range: generic.DateRange{End: asOf}})
		return err
	})
	if err != nil {
		return BalanceSheet{}, err
	}

	bs := buildBalanceSheet(accounts, lines)
	if !asOf.IsZero() {
		bs.AsOf = generic.FormatDate(asOf)
	}
	return bs, nil
}

func buildBalanceSheet(accounts []Account, lines []PostedLine) BalanceSheet {
	net := make(map[string]decimal.Decimal, len(accounts))
	currentEarnings := decimal.Zero
	for _, l := range lines {
		net[l.AccountID] = net[l.AccountID].Add(l.Net())
		if l.AccountType.Temporary() {
			currentEarnings = currentEarnings.Add(l.Credit.Sub(l.Debit))
		}
	}

	sorted := append([]Account(nil), accounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	bs := BalanceSheet{
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
		CurrentEarnings:  currentEarnings,
	}
	for _, a := range sorted {
		n := net[a.ID]
		if n.IsZero() {
			continue
		}
		line := BalanceSheetLine{AccountID: a.ID, Code: a.Code, Name: a.Name}
		switch a.Type {
		case Asset:
			line.Balance = n
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(n)
		case Liability:
			line.Balance = n.Neg()
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(line.Balance)
		case Equity:
			line.Balance = n.Neg()
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(line.Balance)
		}
	}

	if !currentEarnings.IsZero() {
		bs.Equity = append(bs.Equity, BalanceSheetLine{
			Name:      CurrentEarningsName,
			Balance:   currentEarnings,
			Synthetic: true,
		})
		bs.TotalEquity = bs.TotalEquity.Add(currentEarnings)
	}

	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	bs.Balanced = bs.TotalAssets.Equal(bs.TotalLiabilitiesAndEquity)
	return bs
}
