package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
)

// =============================================================================
// SETTLEMENTS - invoice receipts and supplier expenses
// =============================================================================

// SupplierTag is the department tag put on payable lines for a vendor.
func SupplierTag(vendor string) string {
	return "Supplier: " + vendor
}

// Settlements turns business events into journal entries.
type Settlements struct {
	store    Store
	journal  *Journal
	controls ControlAccounts
	log      zerolog.Logger
	now      func() time.Time
}

// NewSettlements returns a settlement service.
func NewSettlements(store Store, journal *Journal, controls ControlAccounts, log zerolog.Logger) *Settlements {
	return &Settlements{
		store:    store,
		journal:  journal,
		controls: controls,
		log:      log.With().Str("component", "settlements").Logger(),
		now:      time.Now,
	}
}

// InvoiceItem is one revenue line of a settled invoice.
type InvoiceItem struct {
	AccountID  string
	Department string
	Amount     decimal.Decimal
	Memo       string
}

// InvoiceSettlement is a patient invoice paid in cash.
type InvoiceSettlement struct {
	Number string
	Date   time.Time
	Items  []InvoiceItem
}

// SettleInvoice debits cash for the invoice total and credits each revenue
// item under its department.
func (s *Settlements) SettleInvoice(ctx context.Context, in InvoiceSettlement) (Entry, error) {
	if strings.TrimSpace(in.Number) == "" {
		return Entry{}, generic.Field("number", "required")
	}
	if len(in.Items) == 0 {
		return Entry{}, generic.Field("items", "at least one item required")
	}

	total := decimal.Zero
	lines := make([]PostingLine, 0, len(in.Items)+1)
	lines = append(lines, PostingLine{})
	for _, it := range in.Items {
		amount := generic.RoundMoney(it.Amount)
		if !amount.IsPositive() {
			return Entry{}, generic.Field("items.amount", "must be positive")
		}
		total = total.Add(amount)
		lines = append(lines, PostingLine{
			AccountID:  it.AccountID,
			Credit:     amount,
			Department: it.Department,
			Memo:       it.Memo,
		})
	}
	lines[0] = DebitLine(s.controls.Cash.ID, total, "")

	return s.journal.Post(ctx, PostingInput{
		Date:        in.Date,
		Description: "Settlement of invoice " + in.Number,
		Source:      SourceInvoice,
		Lines:       lines,
	})
}

// ExpenseInput records a supplier expense.
type ExpenseInput struct {
	Vendor      string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	DueDate     *time.Time
	AccountID   string
	Department  string
	// PaidNow credits cash immediately; otherwise the expense is owed to the
	// vendor through accounts payable.
	PaidNow bool
}

// RecordExpense posts the expense and stores the record.
func (s *Settlements) RecordExpense(ctx context.Context, in ExpenseInput) (ExpenseRecord, error) {
	vendor := strings.TrimSpace(in.Vendor)
	if vendor == "" {
		return ExpenseRecord{}, generic.Field("vendor", "required")
	}
	amount := generic.RoundMoney(in.Amount)
	if !amount.IsPositive() {
		return ExpenseRecord{}, generic.Field("amount", "must be positive")
	}
	if in.DueDate != nil && in.DueDate.Before(generic.TruncateDay(in.Date)) {
		return ExpenseRecord{}, generic.Field("due_date", "before expense date")
	}

	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = "Expense from " + vendor
	}

	rec := ExpenseRecord{
		ID:          uuid.NewString(),
		Vendor:      vendor,
		Description: desc,
		Amount:      amount,
		Date:        generic.TruncateDay(in.Date),
		DueDate:     in.DueDate,
		AccountID:   in.AccountID,
		Department:  in.Department,
		Paid:        in.PaidNow,
		CreatedAt:   s.now().UTC(),
	}

	credit := CreditLine(s.controls.Payables.ID, amount, SupplierTag(vendor))
	if in.PaidNow {
		credit = CreditLine(s.controls.Cash.ID, amount, "")
		paid := rec.Date
		rec.PaidDate = &paid
	}

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		acct, err := s.store.GetAccount(ctx, in.AccountID)
		if err != nil {
			return err
		}
		if acct.Type != Expense {
			return fmt.Errorf("%w: %s is %s, want expense", ErrInvalidAccount, acct.Code, acct.Type)
		}
		entry, err := s.journal.Post(ctx, PostingInput{
			Date:        rec.Date,
			Description: desc,
			Source:      SourceExpense,
			Lines: []PostingLine{
				{AccountID: acct.ID, Debit: amount, Department: in.Department, Memo: vendor},
				credit,
			},
		})
		if err != nil {
			return err
		}
		rec.EntryID = entry.ID
		if in.PaidNow {
			rec.PaymentEntryID = entry.ID
		}
		return s.store.InsertExpense(ctx, rec)
	})
	if err != nil {
		return ExpenseRecord{}, err
	}

	s.log.Info().Str("vendor", vendor).Str("amount", amount.StringFixed(2)).Bool("paid", rec.Paid).Msg("expense recorded")
	return rec, nil
}

// PayExpense settles an unpaid expense from cash.
func (s *Settlements) PayExpense(ctx context.Context, expenseID string, date time.Time) (ExpenseRecord, error) {
	var rec ExpenseRecord
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if rec, err = s.store.GetExpense(ctx, expenseID); err != nil {
			return err
		}
		if rec.Paid {
			return fmt.Errorf("%w: %s", ErrAlreadyPaid, expenseID)
		}

		day := generic.TruncateDay(date)
		entry, err := s.journal.Post(ctx, PostingInput{
			Date:        day,
			Description: "Payment to " + rec.Vendor,
			Source:      SourcePayment,
			Lines: []PostingLine{
				DebitLine(s.controls.Payables.ID, rec.Amount, SupplierTag(rec.Vendor)),
				CreditLine(s.controls.Cash.ID, rec.Amount, ""),
			},
		})
		if err != nil {
			return err
		}

		ok, err := s.store.MarkExpensePaid(ctx, rec.ID, day, entry.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrAlreadyPaid, expenseID)
		}
		rec.Paid = true
		rec.PaidDate = &day
		rec.PaymentEntryID = entry.ID
		return nil
	})
	if err != nil {
		return ExpenseRecord{}, err
	}

	s.log.Info().Str("vendor", rec.Vendor).Str("amount", rec.Amount.StringFixed(2)).Msg("expense paid")
	return rec, nil
}
