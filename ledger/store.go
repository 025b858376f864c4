package ledger

import (
	"context"
	"time"

	"github.com/warp/clinic-ledger/generic"
)

// LineFilter narrows ListPostedLines. Zero values leave a dimension open.
type LineFilter struct {
	AccountID string
	Range     generic.DateRange
	// Before keeps lines dated strictly before this day (opening balances).
	Before         time.Time
	Types          []AccountType
	ExcludeSources []Source
}

// EntryFilter narrows ListEntries.
type EntryFilter struct {
	Range  generic.DateRange
	Source Source
	Limit  int
}

// Store is the persistence the ledger needs. Every method joins the
// transaction carried by ctx, if any.
type Store interface {
	generic.TxRunner

	// Accounts
	InsertAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByCode(ctx context.Context, code string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	DeleteAccount(ctx context.Context, id string) error
	AccountHasLines(ctx context.Context, id string) (bool, error)
	AccountHasChildren(ctx context.Context, id string) (bool, error)

	// Entries
	NextEntrySeq(ctx context.Context) (int64, error)
	InsertEntry(ctx context.Context, e Entry) error
	GetEntry(ctx context.Context, id string) (Entry, error)
	ListEntries(ctx context.Context, f EntryFilter) ([]Entry, error)
	ReviseEntry(ctx context.Context, id, description, reason string, at time.Time) error
	ListPostedLines(ctx context.Context, f LineFilter) ([]PostedLine, error)

	// Accounting periods
	GetAccountingPeriod(ctx context.Context, m generic.Month) (AccountingPeriod, error)
	ListAccountingPeriods(ctx context.Context) ([]AccountingPeriod, error)
	// CloseAccountingPeriod flips the month from open to closed and reports
	// whether this call made the change.
	CloseAccountingPeriod(ctx context.Context, m generic.Month, entryID string, at time.Time) (bool, error)

	// Expenses
	InsertExpense(ctx context.Context, e ExpenseRecord) error
	GetExpense(ctx context.Context, id string) (ExpenseRecord, error)
	ListUnpaidExpenses(ctx context.Context) ([]ExpenseRecord, error)
	MarkExpensePaid(ctx context.Context, id string, paidDate time.Time, entryID string) (bool, error)
}
