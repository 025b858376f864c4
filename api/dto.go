/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger and payroll domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Responses carry amounts as strings with exactly two decimals ("1234.50").
  Requests accept amounts as JSON strings or numbers; they are parsed into
  decimals and never go through float64.

DATES:
  Dates are "YYYY-MM-DD". Timestamps are RFC3339.

VALIDATION:
  Request structs carry go-playground/validator tags for shape checks
  (required, enums, date format). Business rules such as balance and
  period state are enforced by the engines.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
	"github.com/warp/clinic-ledger/payroll"
	"github.com/warp/clinic-ledger/timeoff"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(generic.MoneyPlaces)
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return generic.FormatDate(*t)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountNodeDTO is an account with its children.
type AccountNodeDTO struct {
	AccountDTO
	Children []AccountNodeDTO `json:"children"`
}

// CreateAccountRequest is the body for POST /api/accounts.
type CreateAccountRequest struct {
	Code       string `json:"code" validate:"required,max=20"`
	Name       string `json:"name" validate:"required,max=200"`
	Type       string `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
	ParentCode string `json:"parent_code,omitempty" validate:"omitempty,max=20"`
}

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		Type:      string(a.Type),
		ParentID:  a.ParentID,
		CreatedAt: a.CreatedAt,
	}
}

func toAccountNodeDTOs(nodes []*ledger.AccountNode) []AccountNodeDTO {
	out := make([]AccountNodeDTO, len(nodes))
	for i, n := range nodes {
		out[i] = AccountNodeDTO{
			AccountDTO: toAccountDTO(n.Account),
			Children:   toAccountNodeDTOs(n.Children),
		}
	}
	return out
}

// =============================================================================
// JOURNAL
// =============================================================================

// JournalLineRequest is one line of a posting request. The account is named
// by ID or code.
type JournalLineRequest struct {
	AccountID   string          `json:"account_id,omitempty" validate:"required_without=AccountCode"`
	AccountCode string          `json:"account_code,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Department  string          `json:"department,omitempty"`
	Memo        string          `json:"memo,omitempty"`
}

// PostEntryRequest is the body for POST /api/journal. Payroll and closing
// entries are only posted by their engines.
type PostEntryRequest struct {
	Date        string               `json:"date" validate:"required,datetime=2006-01-02"`
	Description string               `json:"description" validate:"required,max=500"`
	Source      string               `json:"source,omitempty" validate:"omitempty,oneof=manual invoice expense payment"`
	Lines       []JournalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// ReviseEntryRequest is the body for POST /api/journal/{id}/revise.
type ReviseEntryRequest struct {
	Description string `json:"description" validate:"required,max=500"`
	Reason      string `json:"reason" validate:"required,max=500"`
}

// EntryDTO represents a journal entry with its lines.
type EntryDTO struct {
	ID             string     `json:"id"`
	Seq            int64      `json:"seq"`
	Date           string     `json:"date"`
	Description    string     `json:"description"`
	Reference      string     `json:"reference"`
	Source         string     `json:"source"`
	RevisionReason string     `json:"revision_reason,omitempty"`
	RevisedAt      *time.Time `json:"revised_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	TotalDebit     string     `json:"total_debit"`
	TotalCredit    string     `json:"total_credit"`
	Lines          []LineDTO  `json:"lines"`
}

// LineDTO represents one journal line.
type LineDTO struct {
	LineNo     int    `json:"line_no"`
	AccountID  string `json:"account_id"`
	Debit      string `json:"debit"`
	Credit     string `json:"credit"`
	Department string `json:"department,omitempty"`
	Memo       string `json:"memo,omitempty"`
}

func toEntryDTO(e ledger.Entry) EntryDTO {
	debit, credit := e.Totals()
	dto := EntryDTO{
		ID:             e.ID,
		Seq:            e.Seq,
		Date:           generic.FormatDate(e.Date),
		Description:    e.Description,
		Reference:      e.Reference,
		Source:         string(e.Source),
		RevisionReason: e.RevisionReason,
		RevisedAt:      e.RevisedAt,
		CreatedAt:      e.CreatedAt,
		TotalDebit:     money(debit),
		TotalCredit:    money(credit),
		Lines:          make([]LineDTO, len(e.Lines)),
	}
	for i, l := range e.Lines {
		dto.Lines[i] = LineDTO{
			LineNo:     l.LineNo,
			AccountID:  l.AccountID,
			Debit:      money(l.Debit),
			Credit:     money(l.Credit),
			Department: l.Department,
			Memo:       l.Memo,
		}
	}
	return dto
}

// =============================================================================
// REPORTS
// =============================================================================

// TrialBalanceRowDTO is one account row.
type TrialBalanceRowDTO struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
	Net       string `json:"net"`
}

// TrialBalanceDTO is the trial balance report.
type TrialBalanceDTO struct {
	Rows        []TrialBalanceRowDTO `json:"rows"`
	TotalDebit  string               `json:"total_debit"`
	TotalCredit string               `json:"total_credit"`
	Balanced    bool                 `json:"balanced"`
}

func toTrialBalanceDTO(tb ledger.TrialBalance) TrialBalanceDTO {
	dto := TrialBalanceDTO{
		Rows:        make([]TrialBalanceRowDTO, len(tb.Rows)),
		TotalDebit:  money(tb.TotalDebit),
		TotalCredit: money(tb.TotalCredit),
		Balanced:    tb.Balanced,
	}
	for i, r := range tb.Rows {
		dto.Rows[i] = TrialBalanceRowDTO{
			AccountID: r.AccountID,
			Code:      r.Code,
			Name:      r.Name,
			Type:      string(r.Type),
			Debit:     money(r.Debit),
			Credit:    money(r.Credit),
			Net:       money(r.Net),
		}
	}
	return dto
}

// StatementLineDTO is one line of an account statement.
type StatementLineDTO struct {
	Date        string `json:"date"`
	EntryID     string `json:"entry_id"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Memo        string `json:"memo,omitempty"`
	Department  string `json:"department,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
}

// StatementDTO is an account statement with running balance.
type StatementDTO struct {
	Account AccountDTO         `json:"account"`
	Start   string             `json:"start,omitempty"`
	End     string             `json:"end,omitempty"`
	Opening string             `json:"opening_balance"`
	Lines   []StatementLineDTO `json:"lines"`
	Closing string             `json:"closing_balance"`
}

func toStatementDTO(st ledger.Statement) StatementDTO {
	dto := StatementDTO{
		Account: toAccountDTO(st.Account),
		Opening: money(st.Opening),
		Closing: money(st.Closing),
		Lines:   make([]StatementLineDTO, len(st.Lines)),
	}
	if !st.Range.Start.IsZero() {
		dto.Start = generic.FormatDate(st.Range.Start)
	}
	if !st.Range.End.IsZero() {
		dto.End = generic.FormatDate(st.Range.End)
	}
	for i, l := range st.Lines {
		dto.Lines[i] = StatementLineDTO{
			Date:        l.Date,
			EntryID:     l.EntryID,
			Reference:   l.Reference,
			Description: l.Description,
			Memo:        l.Memo,
			Department:  l.Department,
			Debit:       money(l.Debit),
			Credit:      money(l.Credit),
			Balance:     money(l.Balance),
		}
	}
	return dto
}

// DepartmentResultDTO is one department of the P&L.
type DepartmentResultDTO struct {
	Department string `json:"department"`
	Revenue    string `json:"revenue"`
	Expenses   string `json:"expenses"`
	Profit     string `json:"profit"`
}

// ProfitAndLossDTO is the profit and loss report.
type ProfitAndLossDTO struct {
	Start         string                `json:"start,omitempty"`
	End           string                `json:"end,omitempty"`
	Departments   []DepartmentResultDTO `json:"departments"`
	TotalRevenue  string                `json:"total_revenue"`
	TotalExpenses string                `json:"total_expenses"`
	NetProfit     string                `json:"net_profit"`
}

func toProfitAndLossDTO(pl ledger.ProfitAndLoss) ProfitAndLossDTO {
	dto := ProfitAndLossDTO{
		Departments:   make([]DepartmentResultDTO, len(pl.Departments)),
		TotalRevenue:  money(pl.TotalRevenue),
		TotalExpenses: money(pl.TotalExpenses),
		NetProfit:     money(pl.NetProfit),
	}
	if !pl.Range.Start.IsZero() {
		dto.Start = generic.FormatDate(pl.Range.Start)
	}
	if !pl.Range.End.IsZero() {
		dto.End = generic.FormatDate(pl.Range.End)
	}
	for i, d := range pl.Departments {
		dto.Departments[i] = DepartmentResultDTO{
			Department: d.Department,
			Revenue:    money(d.Revenue),
			Expenses:   money(d.Expenses),
			Profit:     money(d.Profit),
		}
	}
	return dto
}

// BalanceSheetLineDTO is one account on the balance sheet. Synthetic lines
// are computed, not stored accounts.
type BalanceSheetLineDTO struct {
	AccountID string `json:"account_id,omitempty"`
	Code      string `json:"code,omitempty"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// BalanceSheetDTO is the balance sheet report.
type BalanceSheetDTO struct {
	AsOf                      string                `json:"as_of,omitempty"`
	Assets                    []BalanceSheetLineDTO `json:"assets"`
	Liabilities               []BalanceSheetLineDTO `json:"liabilities"`
	Equity                    []BalanceSheetLineDTO `json:"equity"`
	TotalAssets               string                `json:"total_assets"`
	TotalLiabilities          string                `json:"total_liabilities"`
	TotalEquity               string                `json:"total_equity"`
	TotalLiabilitiesAndEquity string                `json:"total_liabilities_and_equity"`
	CurrentEarnings           string                `json:"current_earnings"`
	Balanced                  bool                  `json:"balanced"`
}

func toBalanceSheetLines(lines []ledger.BalanceSheetLine) []BalanceSheetLineDTO {
	out := make([]BalanceSheetLineDTO, len(lines))
	for i, l := range lines {
		out[i] = BalanceSheetLineDTO{
			AccountID: l.AccountID,
			Code:      l.Code,
			Name:      l.Name,
			Balance:   money(l.Balance),
			Synthetic: l.Synthetic,
		}
	}
	return out
}

func toBalanceSheetDTO(bs ledger.BalanceSheet) BalanceSheetDTO {
	return BalanceSheetDTO{
		AsOf:                      bs.AsOf,
		Assets:                    toBalanceSheetLines(bs.Assets),
		Liabilities:               toBalanceSheetLines(bs.Liabilities),
		Equity:                    toBalanceSheetLines(bs.Equity),
		TotalAssets:               money(bs.TotalAssets),
		TotalLiabilities:          money(bs.TotalLiabilities),
		TotalEquity:               money(bs.TotalEquity),
		TotalLiabilitiesAndEquity: money(bs.TotalLiabilitiesAndEquity),
		CurrentEarnings:           money(bs.CurrentEarnings),
		Balanced:                  bs.Balanced,
	}
}

// AgingItemDTO is one unpaid expense.
type AgingItemDTO struct {
	ExpenseID   string `json:"expense_id"`
	Description string `json:"description"`
	Date        string `json:"date"`
	DueDate     string `json:"due_date"`
	Amount      string `json:"amount"`
	DaysOverdue int    `json:"days_overdue"`
	Bucket      string `json:"bucket"`
}

// VendorAgingDTO is one vendor's aging row.
type VendorAgingDTO struct {
	Vendor       string         `json:"vendor"`
	Current      string         `json:"current"`
	Days31To60   string         `json:"days_31_60"`
	Days61To90   string         `json:"days_61_90"`
	Over90       string         `json:"over_90"`
	Total        string         `json:"total"`
	RunningTotal string         `json:"running_total"`
	Items        []AgingItemDTO `json:"items,omitempty"`
}

// SupplierAgingDTO is the supplier aging report.
type SupplierAgingDTO struct {
	AsOf    string           `json:"as_of"`
	Vendors []VendorAgingDTO `json:"vendors"`
	Totals  VendorAgingDTO   `json:"totals"`
}

func toVendorAgingDTO(v ledger.VendorAging) VendorAgingDTO {
	dto := VendorAgingDTO{
		Vendor:       v.Vendor,
		Current:      money(v.Current),
		Days31To60:   money(v.Days31To60),
		Days61To90:   money(v.Days61To90),
		Over90:       money(v.Over90),
		Total:        money(v.Total),
		RunningTotal: money(v.RunningTotal),
	}
	for _, it := range v.Items {
		dto.Items = append(dto.Items, AgingItemDTO{
			ExpenseID:   it.ExpenseID,
			Description: it.Description,
			Date:        it.Date,
			DueDate:     it.DueDate,
			Amount:      money(it.Amount),
			DaysOverdue: it.DaysOverdue,
			Bucket:      it.Bucket,
		})
	}
	return dto
}

func toSupplierAgingDTO(sa ledger.SupplierAging) SupplierAgingDTO {
	dto := SupplierAgingDTO{
		AsOf:    sa.AsOf,
		Vendors: make([]VendorAgingDTO, len(sa.Vendors)),
		Totals:  toVendorAgingDTO(sa.Totals),
	}
	for i, v := range sa.Vendors {
		dto.Vendors[i] = toVendorAgingDTO(v)
	}
	return dto
}

// =============================================================================
// CLOSING
// =============================================================================

// ClosingLineDTO is one account zeroed by closing.
type ClosingLineDTO struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
}

// ClosingPreviewDTO shows what closing a month would post.
type ClosingPreviewDTO struct {
	Month         string           `json:"month"`
	Status        string           `json:"status"`
	Lines         []ClosingLineDTO `json:"lines"`
	TotalRevenue  string           `json:"total_revenue"`
	TotalExpenses string           `json:"total_expenses"`
	NetProfit     string           `json:"net_profit"`
}

// ClosingResultDTO identifies the posted closing entry.
type ClosingResultDTO struct {
	Month     string `json:"month"`
	EntryID   string `json:"entry_id"`
	Reference string `json:"reference"`
	NetProfit string `json:"net_profit"`
}

func toClosingPreviewDTO(p ledger.ClosingPreview) ClosingPreviewDTO {
	dto := ClosingPreviewDTO{
		Month:         p.Month.Key(),
		Status:        string(p.Status),
		Lines:         make([]ClosingLineDTO, len(p.Lines)),
		TotalRevenue:  money(p.TotalRevenue),
		TotalExpenses: money(p.TotalExpenses),
		NetProfit:     money(p.NetProfit),
	}
	for i, l := range p.Lines {
		dto.Lines[i] = ClosingLineDTO{
			AccountID: l.AccountID,
			Code:      l.Code,
			Name:      l.Name,
			Type:      string(l.Type),
			Balance:   money(l.Balance),
		}
	}
	return dto
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

// InvoiceItemRequest is one revenue item of a settled invoice.
type InvoiceItemRequest struct {
	AccountID  string          `json:"account_id" validate:"required"`
	Department string          `json:"department,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Memo       string          `json:"memo,omitempty"`
}

// SettleInvoiceRequest is the body for POST /api/invoices/settle.
type SettleInvoiceRequest struct {
	Number string               `json:"number" validate:"required,max=50"`
	Date   string               `json:"date" validate:"required,datetime=2006-01-02"`
	Items  []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ExpenseRequest is the body for POST /api/expenses.
type ExpenseRequest struct {
	Vendor      string          `json:"vendor" validate:"required,max=200"`
	Description string          `json:"description,omitempty" validate:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	DueDate     string          `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AccountID   string          `json:"account_id" validate:"required"`
	Department  string          `json:"department,omitempty"`
	PaidNow     bool            `json:"paid_now"`
}

// PayExpenseRequest is the body for POST /api/expenses/{id}/pay.
type PayExpenseRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ExpenseDTO represents a supplier expense.
type ExpenseDTO struct {
	ID             string `json:"id"`
	Vendor         string `json:"vendor"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	Date           string `json:"date"`
	DueDate        string `json:"due_date,omitempty"`
	AccountID      string `json:"account_id"`
	Department     string `json:"department,omitempty"`
	Paid           bool   `json:"paid"`
	PaidDate       string `json:"paid_date,omitempty"`
	EntryID        string `json:"entry_id,omitempty"`
	PaymentEntryID string `json:"payment_entry_id,omitempty"`
}

func toExpenseDTO(e ledger.ExpenseRecord) ExpenseDTO {
	return ExpenseDTO{
		ID:             e.ID,
		Vendor:         e.Vendor,
		Description:    e.Description,
		Amount:         money(e.Amount),
		Date:           generic.FormatDate(e.Date),
		DueDate:        dateOrEmpty(e.DueDate),
		AccountID:      e.AccountID,
		Department:     e.Department,
		Paid:           e.Paid,
		PaidDate:       dateOrEmpty(e.PaidDate),
		EntryID:        e.EntryID,
		PaymentEntryID: e.PaymentEntryID,
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

// DepartmentDTO represents a department.
type DepartmentDTO struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required,max=100"`
}

// EmployeeRequest is the body for POST /api/employees.
type EmployeeRequest struct {
	ID              string          `json:"id,omitempty"`
	Name            string          `json:"name" validate:"required,max=200"`
	DepartmentID    string          `json:"department_id"`
	BasicSalary     decimal.Decimal `json:"basic_salary"`
	VariableSalary  decimal.Decimal `json:"variable_salary"`
	InsuranceSalary decimal.Decimal `json:"insurance_salary"`
	Active          *bool           `json:"active,omitempty"`
	HireDate        string          `json:"hire_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DepartmentID    string `json:"department_id"`
	BasicSalary     string `json:"basic_salary"`
	VariableSalary  string `json:"variable_salary"`
	InsuranceSalary string `json:"insurance_salary"`
	TimeOffBalance  string `json:"time_off_balance"`
	Active          bool   `json:"active"`
	HireDate        string `json:"hire_date,omitempty"`
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:              e.ID,
		Name:            e.Name,
		DepartmentID:    e.DepartmentID,
		BasicSalary:     money(e.BasicSalary),
		VariableSalary:  money(e.VariableSalary),
		InsuranceSalary: money(e.InsuranceSalary),
		TimeOffBalance:  e.TimeOffBalance.String(),
		Active:          e.Active,
		HireDate:        dateOrEmpty(e.HireDate),
	}
}

// AttendanceRequest is the body for POST /api/employees/{id}/attendance.
type AttendanceRequest struct {
	Year              int    `json:"year" validate:"required,min=1900,max=9999"`
	Month             int    `json:"month" validate:"required,min=1,max=12"`
	PresentDays       int    `json:"present_days" validate:"min=0,max=31"`
	OffDays           int    `json:"off_days" validate:"min=0,max=31"`
	HolidayDays       int    `json:"holiday_days" validate:"min=0,max=31"`
	AbsentDays        int    `json:"absent_days" validate:"min=0,max=31"`
	UnpaidDays        int    `json:"unpaid_days" validate:"min=0,max=31"`
	WorkedOffDays     int    `json:"worked_off_days" validate:"min=0,max=31"`
	WorkedHolidayDays int    `json:"worked_holiday_days" validate:"min=0,max=31"`
	Action            string `json:"action,omitempty" validate:"omitempty,oneof=pay credit"`
}

// PayrollCodeDTO represents a payroll code and its GL account.
type PayrollCodeDTO struct {
	Code        string `json:"code" validate:"required,max=30"`
	Name        string `json:"name" validate:"max=100"`
	Kind        string `json:"kind" validate:"required,oneof=earning deduction"`
	GLAccountID string `json:"gl_account_id,omitempty"`
}

// LineItemDTO is one earning or deduction on a slip.
type LineItemDTO struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	GLAccountID string `json:"gl_account_id,omitempty"`
	Amount      string `json:"amount"`
}

// SlipDTO represents a salary slip.
type SlipDTO struct {
	ID               string        `json:"id"`
	EmployeeID       string        `json:"employee_id"`
	EmployeeName     string        `json:"employee_name"`
	Department       string        `json:"department"`
	BasicSalary      string        `json:"basic_salary"`
	PayableDays      int           `json:"payable_days"`
	ComputedBasic    string        `json:"computed_basic"`
	Earnings         []LineItemDTO `json:"earnings"`
	Deductions       []LineItemDTO `json:"deductions"`
	TotalEarnings    string        `json:"total_earnings"`
	TotalDeductions  string        `json:"total_deductions"`
	NetSalary        string        `json:"net_salary"`
	CompanyInsurance string        `json:"company_insurance"`
	Action           string        `json:"action"`
	RestDaysWorked   int           `json:"rest_days_worked"`
	Warnings         []string      `json:"warnings,omitempty"`
}

func toLineItemDTOs(items []payroll.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, len(items))
	for i, li := range items {
		out[i] = LineItemDTO{
			Code:        li.Code,
			Name:        li.Name,
			Kind:        string(li.Kind),
			GLAccountID: li.GLAccountID,
			Amount:      money(li.Amount),
		}
	}
	return out
}

func toSlipDTO(s payroll.Slip) SlipDTO {
	return SlipDTO{
		ID:               s.ID,
		EmployeeID:       s.EmployeeID,
		EmployeeName:     s.EmployeeName,
		Department:       s.Department,
		BasicSalary:      money(s.BasicSalary),
		PayableDays:      s.PayableDays,
		ComputedBasic:    money(s.ComputedBasic),
		Earnings:         toLineItemDTOs(s.Earnings),
		Deductions:       toLineItemDTOs(s.Deductions),
		TotalEarnings:    money(s.TotalEarnings),
		TotalDeductions:  money(s.TotalDeductions),
		NetSalary:        money(s.NetSalary),
		CompanyInsurance: money(s.CompanyInsurance),
		Action:           string(s.Action),
		RestDaysWorked:   s.RestDaysWorked,
		Warnings:         s.Warnings,
	}
}

// CalculationResultDTO summarizes a payroll calculation.
type CalculationResultDTO struct {
	PeriodID string   `json:"period_id"`
	Month    string   `json:"month"`
	Slips    int      `json:"slips"`
	Skipped  []string `json:"skipped_employees,omitempty"`
	TotalNet string   `json:"total_net"`
	Warnings []string `json:"warnings,omitempty"`
}

// PayrollCloseDTO describes a closed payroll month.
type PayrollCloseDTO struct {
	PeriodID      string            `json:"period_id"`
	Month         string            `json:"month"`
	EntryID       string            `json:"entry_id"`
	Reference     string            `json:"reference"`
	TotalNet      string            `json:"total_net"`
	Lines         int               `json:"lines"`
	UnmappedCodes []string          `json:"unmapped_codes,omitempty"`
	CreditedDays  map[string]string `json:"credited_days,omitempty"`
}

// =============================================================================
// TIME OFF
// =============================================================================

// TimeOffRequest is the body for POST /api/employees/{id}/time-off.
// Kind "consumption" takes days off; "adjustment" applies Days with its sign.
type TimeOffRequest struct {
	Kind   string          `json:"kind" validate:"required,oneof=consumption adjustment"`
	Days   decimal.Decimal `json:"days"`
	Date   string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Reason string          `json:"reason" validate:"max=500"`
}

// TimeOffTransactionDTO represents one time-off transaction.
type TimeOffTransactionDTO struct {
	ID          string    `json:"id"`
	EffectiveAt string    `json:"effective_at"`
	Delta       string    `json:"delta"`
	Kind        string    `json:"kind"`
	Reason      string    `json:"reason,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TimeOffDTO is an employee's balance with history.
type TimeOffDTO struct {
	EmployeeID   string                  `json:"employee_id"`
	Balance      string                  `json:"balance"`
	InSync       bool                    `json:"in_sync"`
	Credited     string                  `json:"credited"`
	Consumed     string                  `json:"consumed"`
	Adjusted     string                  `json:"adjusted"`
	Transactions []TimeOffTransactionDTO `json:"transactions"`
}

func toTimeOffDTO(s timeoff.Summary, txs []timeoff.Transaction) TimeOffDTO {
	dto := TimeOffDTO{
		EmployeeID:   s.EmployeeID,
		Balance:      s.Stored.String(),
		InSync:       s.InSync,
		Credited:     s.Credited.String(),
		Consumed:     s.Consumed.String(),
		Adjusted:     s.Adjusted.String(),
		Transactions: make([]TimeOffTransactionDTO, len(txs)),
	}
	for i, tx := range txs {
		dto.Transactions[i] = TimeOffTransactionDTO{
			ID:          tx.ID,
			EffectiveAt: generic.FormatDate(tx.EffectiveAt),
			Delta:       tx.Delta.String(),
			Kind:        string(tx.Kind),
			Reason:      tx.Reason,
			Reference:   tx.Reference,
			CreatedAt:   tx.CreatedAt,
		}
	}
	return dto
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// LoadScenarioRequest is the body for POST /api/scenarios/load. Year and
// month default to the current month.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	Year       int    `json:"year,omitempty" validate:"omitempty,min=1900,max=9999"`
	Month      int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
