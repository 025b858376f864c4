package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
	"github.com/warp/clinic-ledger/timeoff"
)

// =============================================================================
// SERVICE
// =============================================================================

// Poster posts journal entries. *ledger.Journal implements it.
type Poster interface {
	Post(ctx context.Context, in ledger.PostingInput) (ledger.Entry, error)
}

// TimeOffCreditor banks rest days. *timeoff.Ledger implements it.
type TimeOffCreditor interface {
	Credit(ctx context.Context, employeeID string, days decimal.Decimal, at time.Time, reason, reference, idempotencyKey string) (timeoff.Transaction, error)
}

// Service runs payroll for the clinic.
type Service struct {
	store    Store
	journal  Poster
	timeOff  TimeOffCreditor
	controls ledger.ControlAccounts
	policy   Policy
	log      zerolog.Logger
	now      func() time.Time
}

// NewService wires the payroll service.
func NewService(store Store, journal Poster, timeOff TimeOffCreditor, controls ledger.ControlAccounts, policy Policy, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		journal:  journal,
		timeOff:  timeOff,
		controls: controls,
		policy:   policy,
		log:      log.With().Str("component", "payroll").Logger(),
		now:      time.Now,
	}
}

// Policy returns the statutory constants in use.
func (s *Service) Policy() Policy { return s.policy }

// =============================================================================
// CALCULATION
// =============================================================================

// CalculationResult summarizes a Calculate run.
type CalculationResult struct {
	PeriodID string
	Month    generic.Month
	Slips    int
	Skipped  []string
	TotalNet decimal.Decimal
	Warnings []string
}

// Calculate computes and stores a slip for every active employee with
// attendance in the month. Running it again replaces the slips and drops
// those of employees no longer in the run. A closed period is rejected.
func (s *Service) Calculate(ctx context.Context, m generic.Month) (CalculationResult, error) {
	if err := m.Validate(); err != nil {
		return CalculationResult{}, err
	}

	res := CalculationResult{Month: m, TotalNet: decimal.Zero}
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		period, err := s.getOrCreatePeriod(ctx, m)
		if err != nil {
			return err
		}
		if period.Status == PeriodClosed {
			return fmt.Errorf("%w: %s", ErrPeriodClosed, m)
		}
		res.PeriodID = period.ID

		codes, err := s.codes(ctx)
		if err != nil {
			return err
		}
		employees, err := s.store.ListEmployees(ctx, true)
		if err != nil {
			return err
		}
		attendance, err := s.store.ListAttendance(ctx, m)
		if err != nil {
			return err
		}
		byEmployee := make(map[string]Attendance, len(attendance))
		for _, a := range attendance {
			byEmployee[a.EmployeeID] = a
		}

		now := s.now().UTC()
		var paid []string
		for _, emp := range employees {
			att, ok := byEmployee[emp.ID]
			if !ok {
				res.Skipped = append(res.Skipped, emp.ID)
				s.log.Warn().Str("employee_id", emp.ID).Str("month", m.Key()).Msg("no attendance, employee skipped")
				continue
			}

			slip := s.policy.ComputeSlip(emp, att, codes)
			slip.ID = uuid.NewString()
			slip.PeriodID = period.ID
			slip.CreatedAt = now
			slip.UpdatedAt = now
			if err := s.store.UpsertSlip(ctx, slip); err != nil {
				return fmt.Errorf("slip for %s: %w", emp.ID, err)
			}

			for _, w := range slip.Warnings {
				res.Warnings = append(res.Warnings, emp.ID+": "+w)
			}
			paid = append(paid, emp.ID)
			res.Slips++
			res.TotalNet = res.TotalNet.Add(slip.NetSalary)
		}
		return s.store.DeleteSlipsExcept(ctx, period.ID, paid)
	})
	if err != nil {
		return CalculationResult{}, err
	}

	s.log.Info().
		Str("month", m.Key()).
		Int("slips", res.Slips).
		Int("skipped", len(res.Skipped)).
		Str("total_net", res.TotalNet.StringFixed(2)).
		Msg("payroll calculated")
	return res, nil
}

func (s *Service) getOrCreatePeriod(ctx context.Context, m generic.Month) (Period, error) {
	p, err := s.store.GetPayrollPeriod(ctx, m)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPeriodNotFound) {
		return Period{}, err
	}
	p = Period{
		ID:        uuid.NewString(),
		Year:      m.Year,
		Month:     m.Month,
		Status:    PeriodOpen,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreatePayrollPeriod(ctx, p); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (s *Service) codes(ctx context.Context) (Codes, error) {
	list, err := s.store.ListCodes(ctx)
	if err != nil {
		return nil, err
	}
	codes := make(Codes, len(list))
	for _, c := range list {
		codes[c.Code] = c
	}
	return codes, nil
}

// Period returns the payroll period for the month.
func (s *Service) Period(ctx context.Context, m generic.Month) (Period, error) {
	return s.store.GetPayrollPeriod(ctx, m)
}

// Slips returns the month's slips.
func (s *Service) Slips(ctx context.Context, m generic.Month) ([]Slip, error) {
	var slips []Slip
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.store.GetPayrollPeriod(ctx, m)
		if err != nil {
			return err
		}
		slips, err = s.store.ListSlips(ctx, p.ID)
		return err
	})
	return slips, err
}

// =============================================================================
// MASTER DATA
// =============================================================================

// SaveDepartment creates a department.
func (s *Service) SaveDepartment(ctx context.Context, d Department) (Department, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return Department{}, generic.Field("name", "required")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if err := s.store.SaveDepartment(ctx, d); err != nil {
		return Department{}, err
	}
	return d, nil
}

// Departments lists departments by name.
func (s *Service) Departments(ctx context.Context) ([]Department, error) {
	return s.store.ListDepartments(ctx)
}

// SaveEmployee creates or updates an employee. The stored time-off balance
// is owned by the time-off ledger and is not changed here.
func (s *Service) SaveEmployee(ctx context.Context, e Employee) (Employee, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return Employee{}, generic.Field("name", "required")
	}
	for field, v := range map[string]decimal.Decimal{
		"basic_salary":     e.BasicSalary,
		"variable_salary":  e.VariableSalary,
		"insurance_salary": e.InsuranceSalary,
	} {
		if v.IsNegative() {
			return Employee{}, generic.Field(field, "must not be negative")
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, e.ID)
}

// Employee returns one employee.
func (s *Service) Employee(ctx context.Context, id string) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

// Employees lists employees by name.
func (s *Service) Employees(ctx context.Context, activeOnly bool) ([]Employee, error) {
	return s.store.ListEmployees(ctx, activeOnly)
}

// SaveAttendance records an employee's month. Attendance for a closed
// payroll month cannot change.
func (s *Service) SaveAttendance(ctx context.Context, a Attendance) error {
	if a.Action == "" {
		a.Action = ActionPay
	}
	if err := ValidateAttendance(a); err != nil {
		return err
	}
	m := generic.Month{Year: a.Year, Month: a.Month}
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetEmployee(ctx, a.EmployeeID); err != nil {
			return err
		}
		p, err := s.store.GetPayrollPeriod(ctx, m)
		if err != nil && !errors.Is(err, ErrPeriodNotFound) {
			return err
		}
		if err == nil && p.Status == PeriodClosed {
			return fmt.Errorf("%w: %s", ErrPeriodClosed, m)
		}
		return s.store.SaveAttendance(ctx, a)
	})
}

// SaveCode creates or updates a payroll code.
func (s *Service) SaveCode(ctx context.Context, c Code) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return generic.Field("code", "required")
	}
	if c.Kind != Earning && c.Kind != Deduction {
		return generic.Field("kind", fmt.Sprintf("unknown kind %q", c.Kind))
	}
	if c.Name == "" {
		c.Name = c.Code
	}
	return s.store.SaveCode(ctx, c)
}

// Codes lists payroll codes.
func (s *Service) Codes(ctx context.Context) ([]Code, error) {
	return s.store.ListCodes(ctx)
}

// AccountLookup finds a GL account by code.
type AccountLookup func(ctx context.Context, code string) (ledger.Account, error)

// SeedCodes creates the system payroll codes that do not exist yet, mapped
// to the GL accounts of the default chart. Returns the number created.
func (s *Service) SeedCodes(ctx context.Context, lookup AccountLookup) (int, error) {
	created := 0
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.codes(ctx)
		if err != nil {
			return err
		}
		for _, dc := range DefaultCodes {
			if _, ok := existing[dc.Code.Code]; ok {
				continue
			}
			c := dc.Code
			acct, err := lookup(ctx, dc.GLAccountCode)
			switch {
			case err == nil:
				c.GLAccountID = acct.ID
			case generic.IsNotFound(err):
				s.log.Warn().Str("code", c.Code).Str("gl_code", dc.GLAccountCode).Msg("GL account missing, payroll code left unmapped")
			default:
				return err
			}
			if err := s.store.SaveCode(ctx, c); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}
