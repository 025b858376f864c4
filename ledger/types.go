/*
Package ledger implements the clinic's double-entry general ledger.

PURPOSE:
  Owns the chart of accounts, posts balanced journal entries, derives every
  financial report from posted lines, and closes months into retained
  earnings. Balances are never stored; they are always recomputed from lines.

KEY INVARIANTS:
  - Every posted entry balances exactly after rounding each amount to cents
  - Lines are immutable once posted; only description and revision reason
    of an entry can change
  - An account referenced by any line, or with children, cannot be deleted
  - A closed accounting month accepts no further postings

FILES:
  types.go      Accounts, entries, lines
  errors.go     Ledger sentinels
  store.go      Persistence interface
  chart.go      Chart of accounts
  journal.go    Post and Revise
  reports.go    Trial balance, statement, P&L, balance sheet
  aging.go      Supplier aging
  closing.go    Month-end closing
  settlement.go Invoice settlement and expense entry
  control.go    Control accounts

SEE ALSO:
  - payroll/posting.go: Posts payroll through Journal
  - store/sqlstore: SQL implementation of Store
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT TYPES
// =============================================================================

// AccountType is one of the five fundamental account classes.
type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
)

// AccountTypes lists the classes in reporting order.
var AccountTypes = []AccountType{Asset, Liability, Equity, Revenue, Expense}

// Valid reports whether t is a known class.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// DebitNormal reports whether the natural balance is a debit.
func (t AccountType) DebitNormal() bool {
	return t == Asset || t == Expense
}

// Temporary reports whether the class is zeroed at month-end closing.
func (t AccountType) Temporary() bool {
	return t == Revenue || t == Expense
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// Account is a node in the chart of accounts.
type Account struct {
	ID        string
	Code      string
	Name      string
	Type      AccountType
	ParentID  string
	CreatedAt time.Time
}

// AccountNode is an account with its children, used for the tree listing.
type AccountNode struct {
	Account
	Children []*AccountNode
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

// Source identifies the business event behind an entry and picks its
// reference prefix.
type Source string

const (
	SourceManual  Source = "manual"
	SourceInvoice Source = "invoice"
	SourceExpense Source = "expense"
	SourcePayment Source = "payment"
	SourcePayroll Source = "payroll"
	SourceClosing Source = "closing"
)

var sourcePrefixes = map[Source]string{
	SourceManual:  "JV",
	SourceInvoice: "INV",
	SourceExpense: "EXP",
	SourcePayment: "PMT",
	SourcePayroll: "PAY",
	SourceClosing: "CLS",
}

// Prefix returns the reference prefix for the source.
func (s Source) Prefix() string {
	if p, ok := sourcePrefixes[s]; ok {
		return p
	}
	return "JV"
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	_, ok := sourcePrefixes[s]
	return ok
}

// Entry is a posted journal entry.
type Entry struct {
	ID             string
	Seq            int64
	Date           time.Time
	Description    string
	Reference      string
	Source         Source
	RevisionReason string
	RevisedAt      *time.Time
	CreatedAt      time.Time
	Lines          []Line
}

// Totals returns the debit and credit sums of the entry.
func (e Entry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Line is one debit and/or credit against an account.
type Line struct {
	ID         string
	EntryID    string
	LineNo     int
	AccountID  string
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	Department string
	Memo       string
}

// Net returns debit minus credit.
func (l Line) Net() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// PostedLine is a line joined with its entry and account, the input to every
// report.
type PostedLine struct {
	Line
	EntryDate      time.Time
	EntrySeq       int64
	EntryReference string
	EntryDesc      string
	EntrySource    Source
	AccountCode    string
	AccountName    string
	AccountType    AccountType
}

// =============================================================================
// POSTING INPUT
// =============================================================================

// PostingInput is a request to post one entry.
type PostingInput struct {
	Date        time.Time
	Description string
	Source      Source
	// Reference overrides the generated {PREFIX}-{seq} reference. Used for
	// period-specific references such as CLS-2025-03.
	Reference string
	Lines     []PostingLine
}

// PostingLine names its account by ID or, if ID is empty, by code.
type PostingLine struct {
	AccountID   string
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Department  string
	Memo        string
}

// DebitLine is shorthand for a debit-only posting line.
func DebitLine(accountID string, amount decimal.Decimal, department string) PostingLine {
	return PostingLine{AccountID: accountID, Debit: amount, Department: department}
}

// CreditLine is shorthand for a credit-only posting line.
func CreditLine(accountID string, amount decimal.Decimal, department string) PostingLine {
	return PostingLine{AccountID: accountID, Credit: amount, Department: department}
}

// =============================================================================
// ACCOUNTING PERIODS
// =============================================================================

// PeriodStatus is the state of an accounting month.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
)

// AccountingPeriod records whether a month has been closed.
type AccountingPeriod struct {
	Year           int
	Month          time.Month
	Status         PeriodStatus
	ClosingEntryID string
	Version        int
	ClosedAt       *time.Time
}

// =============================================================================
// EXPENSES
// =============================================================================

// ExpenseRecord is a supplier expense. Unpaid records feed supplier aging.
type ExpenseRecord struct {
	ID             string
	Vendor         string
	Description    string
	Amount         decimal.Decimal
	Date           time.Time
	DueDate        *time.Time
	AccountID      string
	Department     string
	Paid           bool
	PaidDate       *time.Time
	EntryID        string
	PaymentEntryID string
	CreatedAt      time.Time
}

// Due returns the due date, falling back to the expense date.
func (e ExpenseRecord) Due() time.Time {
	if e.DueDate != nil {
		return *e.DueDate
	}
	return e.Date
}
