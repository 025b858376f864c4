/*
Package payroll computes monthly salary slips and posts them to the ledger.

PURPOSE:
  Turns contractual salaries and monthly attendance into salary slips
  (progressive income tax, capped social insurance, attendance-prorated pay)
  and, when a payroll month is closed, posts every slip as one balanced
  journal entry.

FLOW:
  1. Calculate(month)    one slip per active employee with attendance
  2. ClosePeriod(month)  aggregate slips, post PAY-YYYY-MM, bank rest days,
                         mark the period closed

  A closed period is final: it cannot be recalculated or closed again.

FILES:
  types.go    Employees, attendance, codes, slips
  policy.go   Tax brackets and insurance limits
  calc.go     Pure computation
  service.go  Calculate, master data
  posting.go  ClosePeriod

SEE ALSO:
  - ledger/journal.go: Posting path
  - timeoff/ledger.go: Banked rest days
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYEES AND ATTENDANCE
// =============================================================================

// Employee is the payroll view of an employee.
type Employee struct {
	ID              string
	Name            string
	DepartmentID    string
	BasicSalary     decimal.Decimal
	VariableSalary  decimal.Decimal
	InsuranceSalary decimal.Decimal
	TimeOffBalance  decimal.Decimal
	Active          bool
	HireDate        *time.Time
	CreatedAt       time.Time
}

// Department is a cost center. Lines carry its ID as their department tag.
type Department struct {
	ID   string
	Name string
}

// AttendanceAction decides what happens to rest days worked.
type AttendanceAction string

const (
	// ActionPay pays rest days worked as overtime.
	ActionPay AttendanceAction = "pay"
	// ActionCredit banks rest days worked as time off.
	ActionCredit AttendanceAction = "credit"
)

// Valid reports whether a is a known action.
func (a AttendanceAction) Valid() bool {
	return a == ActionPay || a == ActionCredit
}

// Attendance is one employee's day counts for a month.
type Attendance struct {
	EmployeeID        string
	Year              int
	Month             time.Month
	PresentDays       int
	OffDays           int
	HolidayDays       int
	AbsentDays        int
	UnpaidDays        int
	WorkedOffDays     int
	WorkedHolidayDays int
	Action            AttendanceAction
}

// PayableDays is present + off + holiday.
func (a Attendance) PayableDays() int {
	return a.PresentDays + a.OffDays + a.HolidayDays
}

// RestDaysWorked is worked-on-off-day + worked-on-holiday.
func (a Attendance) RestDaysWorked() int {
	return a.WorkedOffDays + a.WorkedHolidayDays
}

// =============================================================================
// PAYROLL CODES AND LINE ITEMS
// =============================================================================

// Kind separates earnings from deductions.
type Kind string

const (
	Earning   Kind = "earning"
	Deduction Kind = "deduction"
)

// System payroll codes produced by ComputeSlip.
const (
	CodeBasic           = "BASIC"
	CodeVariable        = "VARIABLE"
	CodeOvertime        = "OVERTIME"
	CodeSocialInsurance = "SOCIAL_INSURANCE"
	CodeIncomeTax       = "INCOME_TAX"
)

// Code is a payroll code and its optional GL account.
type Code struct {
	Code        string
	Name        string
	Kind        Kind
	GLAccountID string
}

// Codes indexes payroll codes by code.
type Codes map[string]Code

// DefaultCodes are the system codes with the GL account codes they map to in
// the default chart.
var DefaultCodes = []struct {
	Code          Code
	GLAccountCode string
}{
	{Code{Code: CodeBasic, Name: "Basic Salary", Kind: Earning}, "501"},
	{Code{Code: CodeVariable, Name: "Variable Salary", Kind: Earning}, "501"},
	{Code{Code: CodeOvertime, Name: "Overtime", Kind: Earning}, "502"},
	{Code{Code: CodeSocialInsurance, Name: "Social Insurance (Employee Share)", Kind: Deduction}, "210"},
	{Code{Code: CodeIncomeTax, Name: "Income Tax", Kind: Deduction}, "211"},
}

// LineItem is one earning or deduction on a slip. GLAccountID is empty when
// the code has no GL mapping; check Mapped before posting.
type LineItem struct {
	Kind        Kind            `json:"kind"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	GLAccountID string          `json:"gl_account_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Department  string          `json:"department,omitempty"`
}

// Mapped reports whether the item can be posted to the ledger.
func (li LineItem) Mapped() bool {
	return li.GLAccountID != ""
}

// =============================================================================
// SLIPS AND PERIODS
// =============================================================================

// Slip is one employee's computed pay for a payroll period.
type Slip struct {
	ID               string
	PeriodID         string
	EmployeeID       string
	EmployeeName     string
	Department       string
	BasicSalary      decimal.Decimal
	PayableDays      int
	ComputedBasic    decimal.Decimal
	Earnings         []LineItem
	Deductions       []LineItem
	TotalEarnings    decimal.Decimal
	TotalDeductions  decimal.Decimal
	NetSalary        decimal.Decimal
	CompanyInsurance decimal.Decimal
	Action           AttendanceAction
	RestDaysWorked   int
	Warnings         []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PeriodStatus is the state of a payroll month.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
)

// Period is a payroll month.
type Period struct {
	ID             string
	Year           int
	Month          time.Month
	Status         PeriodStatus
	JournalEntryID string
	Version        int
	ClosedAt       *time.Time
	CreatedAt      time.Time
}
