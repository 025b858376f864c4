/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Populates the ledger with a realistic clinic month for demos and manual
  testing: departments, staff, attendance, patient invoices, supplier
  expenses and a calculated payroll.

AVAILABLE SCENARIOS:
  clinic-month:  One open month of activity with payroll calculated
  closed-month:  The same month with payroll posted and the books closed

HOW SCENARIOS WORK:
  1. Reset activity (chart of accounts and payroll codes are kept)
  2. Create departments and employees
  3. Post owner capital, invoices and expenses
  4. Record attendance and calculate payroll
  5. closed-month only: close payroll, then close the month

USAGE:
  POST /api/scenarios/load {"scenario_id": "clinic-month", "year": 2025, "month": 3}
  ledgerctl seed --scenario clinic-month

NOTE:
  Scenarios delete existing activity. Only use in development or demos.
*/
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
	"github.com/warp/clinic-ledger/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// Scenario describes a loadable demo data set.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Scenarios lists the available demo data sets.
var Scenarios = []Scenario{
	{
		ID:          "clinic-month",
		Name:        "Clinic Month",
		Description: "Invoices, supplier expenses and a calculated payroll for one open month",
	},
	{
		ID:          "closed-month",
		Name:        "Closed Month",
		Description: "Clinic month with payroll posted and the accounting month closed",
	},
}

// ScenarioResult summarizes a loaded scenario.
type ScenarioResult struct {
	ScenarioID string        `json:"scenario_id"`
	Month      generic.Month `json:"-"`
	Employees  int           `json:"employees"`
	Entries    int           `json:"entries"`
	Closed     bool          `json:"closed"`
}

// ErrUnknownScenario is returned for an ID not in Scenarios.
var ErrUnknownScenario = generic.NotFound("unknown scenario")

// LoadScenario resets activity and loads the scenario into month m.
func (a *App) LoadScenario(ctx context.Context, id string, m generic.Month) (ScenarioResult, error) {
	if err := m.Validate(); err != nil {
		return ScenarioResult{}, err
	}
	known := false
	for _, s := range Scenarios {
		known = known || s.ID == id
	}
	if !known {
		return ScenarioResult{}, fmt.Errorf("%w: %s", ErrUnknownScenario, id)
	}

	if err := a.Store.ResetActivity(ctx); err != nil {
		return ScenarioResult{}, err
	}

	res := ScenarioResult{ScenarioID: id, Month: m}
	if err := a.loadClinicMonth(ctx, m, &res); err != nil {
		return res, fmt.Errorf("scenario %s: %w", id, err)
	}

	if id == "closed-month" {
		if _, err := a.Payroll.ClosePeriod(ctx, m); err != nil {
			return res, fmt.Errorf("scenario %s: %w", id, err)
		}
		if _, err := a.Closer.Close(ctx, m); err != nil {
			return res, fmt.Errorf("scenario %s: %w", id, err)
		}
		res.Entries += 2
		res.Closed = true
	}

	a.log.Info().Str("scenario", id).Str("month", m.Key()).Int("entries", res.Entries).Msg("scenario loaded")
	return res, nil
}

// =============================================================================
// CLINIC MONTH
// =============================================================================

func (a *App) loadClinicMonth(ctx context.Context, m generic.Month, res *ScenarioResult) error {
	day := func(d int) time.Time { return generic.NewDate(m.Year, m.Month, d) }
	money := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	accounts := map[string]ledger.Account{}
	for _, code := range []string{"301", "401", "402", "403", "510", "520", "530"} {
		acct, err := a.Chart.GetByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("account %s: %w", code, err)
		}
		accounts[code] = acct
	}

	for _, d := range []payroll.Department{
		{ID: "clinic", Name: "Clinic"},
		{ID: "lab", Name: "Laboratory"},
		{ID: "radiology", Name: "Radiology"},
	} {
		if _, err := a.Payroll.SaveDepartment(ctx, d); err != nil {
			return err
		}
	}

	// Owner capital
	if _, err := a.Journal.Post(ctx, ledger.PostingInput{
		Date:        day(1),
		Description: "Owner capital contribution",
		Lines: []ledger.PostingLine{
			ledger.DebitLine(a.Controls.Cash.ID, money("50000"), ""),
			ledger.CreditLine(accounts["301"].ID, money("50000"), ""),
		},
	}); err != nil {
		return err
	}
	res.Entries++

	invoices := []ledger.InvoiceSettlement{
		{Number: "1001", Date: day(5), Items: []ledger.InvoiceItem{
			{AccountID: accounts["401"].ID, Department: "clinic", Amount: money("1200"), Memo: "Consultations"},
			{AccountID: accounts["402"].ID, Department: "lab", Amount: money("800"), Memo: "Blood panel"},
		}},
		{Number: "1002", Date: day(12), Items: []ledger.InvoiceItem{
			{AccountID: accounts["403"].ID, Department: "radiology", Amount: money("1500"), Memo: "X-ray"},
		}},
		{Number: "1003", Date: day(20), Items: []ledger.InvoiceItem{
			{AccountID: accounts["401"].ID, Department: "clinic", Amount: money("900"), Memo: "Follow-ups"},
		}},
	}
	for _, inv := range invoices {
		if _, err := a.Settlements.SettleInvoice(ctx, inv); err != nil {
			return err
		}
		res.Entries++
	}

	due := func(d time.Time, days int) *time.Time {
		t := d.AddDate(0, 0, days)
		return &t
	}
	expenses := []ledger.ExpenseInput{
		{Vendor: "Nile Properties", Description: "Monthly rent", Amount: money("4000"), Date: day(1),
			AccountID: accounts["530"].ID, Department: "clinic", PaidNow: true},
		{Vendor: "MedSupply Co", Description: "Reagents and consumables", Amount: money("2500"), Date: day(3),
			DueDate: due(day(3), 30), AccountID: accounts["520"].ID, Department: "lab"},
		{Vendor: "Cairo Electricity", Description: "Electricity", Amount: money("600"), Date: day(10),
			DueDate: due(day(10), 15), AccountID: accounts["510"].ID, Department: "clinic"},
	}
	for _, e := range expenses {
		if _, err := a.Settlements.RecordExpense(ctx, e); err != nil {
			return err
		}
		res.Entries++
	}

	staff := []struct {
		emp    payroll.Employee
		worked int
		action payroll.AttendanceAction
	}{
		{payroll.Employee{Name: "Amira Hassan", DepartmentID: "clinic", BasicSalary: money("12000"), VariableSalary: money("2000")}, 0, payroll.ActionPay},
		{payroll.Employee{Name: "Karim Adel", DepartmentID: "lab", BasicSalary: money("6000")}, 1, payroll.ActionPay},
		{payroll.Employee{Name: "Mona Samir", DepartmentID: "clinic", BasicSalary: money("3000")}, 2, payroll.ActionCredit},
	}
	off := 8
	present := min(m.Days(), 30) - off
	for _, s := range staff {
		s.emp.Active = true
		emp, err := a.Payroll.SaveEmployee(ctx, s.emp)
		if err != nil {
			return err
		}
		if err := a.Payroll.SaveAttendance(ctx, payroll.Attendance{
			EmployeeID:    emp.ID,
			Year:          m.Year,
			Month:         m.Month,
			PresentDays:   present,
			OffDays:       off,
			WorkedOffDays: s.worked,
			Action:        s.action,
		}); err != nil {
			return err
		}
		res.Employees++
	}

	if _, err := a.Payroll.Calculate(ctx, m); err != nil {
		return err
	}
	return nil
}
